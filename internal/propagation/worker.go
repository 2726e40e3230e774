package propagation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/star/covergrid/internal/transform"
)

// subpointJob is a unit of work for the worker pool.
type subpointJob struct {
	sat        satProp
	targetTime time.Time
	gmst       float64 // precomputed GMST for targetTime
}

// subpointResult is the output of a single satellite sub-point computation.
type subpointResult struct {
	sub     Subpoint
	err     error
	noradID int
}

// WorkerPool manages a fixed number of goroutines for parallel sub-point
// computation within one time step. The simulation itself stays sequential:
// a step's batch completes before the step's cells are accumulated.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// SubpointBatch computes every satellite's sub-point at the target time.
// Failed satellites are logged and skipped; returns the sub-points plus
// success and error counts.
func (wp *WorkerPool) SubpointBatch(ctx context.Context, sats []satProp, targetTime time.Time) ([]Subpoint, int, int) {
	if len(sats) == 0 {
		return nil, 0, 0
	}

	// Precompute GMST once for the target time (same for all satellites).
	gmst := transform.GMST(targetTime)

	jobs := make(chan subpointJob, wp.workers*2)
	results := make(chan subpointResult, wp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := computeSubpoint(job)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for _, sat := range sats {
			job := subpointJob{
				sat:        sat,
				targetTime: targetTime,
				gmst:       gmst,
			}
			select {
			case jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	subs := make([]Subpoint, 0, len(sats))
	var successCount, errorCount int

	for result := range results {
		if result.err != nil {
			errorCount++
			wp.logger.Warn("sub-point computation failed",
				"norad_id", result.noradID,
				"error", result.err,
			)
			continue
		}
		successCount++
		subs = append(subs, result.sub)
	}

	return subs, successCount, errorCount
}

// computeSubpoint propagates one satellite and converts the result to a
// geodetic sub-satellite point.
func computeSubpoint(job subpointJob) subpointResult {
	t := job.targetTime
	teme, err := job.sat.prop.Propagate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	if err != nil {
		return subpointResult{noradID: job.sat.noradID, err: err}
	}

	ecef := transform.TEMEToECEFWithGMST(teme, job.gmst)
	geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)

	return subpointResult{
		noradID: job.sat.noradID,
		sub: Subpoint{
			Name:    job.sat.name,
			NORADID: job.sat.noradID,
			LatDeg:  geo.LatDeg,
			LonDeg:  geo.LonDeg,
			AltKm:   geo.AltM / 1000.0,
		},
	}
}
