// Package simulation runs one partition of a time-stepped coverage
// simulation: per step it queries every satellite's sub-point, rasterizes
// the footprints, unions the resulting cell sets, and accumulates the union
// into the partition's histogram.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/star/covergrid/internal/coverage"
	"github.com/star/covergrid/internal/footprint"
	"github.com/star/covergrid/internal/geometry"
	"github.com/star/covergrid/internal/metrics"
	"github.com/star/covergrid/internal/propagation"
)

// SubpointProvider yields the sub-points of every tracked satellite at t.
// The call blocks for the duration of the batch; the driver issues it once
// per step.
type SubpointProvider interface {
	Subpoints(ctx context.Context, t time.Time) ([]propagation.Subpoint, error)
}

// Rasterizer converts one visibility cap into a cell set. Satisfied by
// *footprint.Rasterizer.
type Rasterizer interface {
	Rasterize(latDeg, lonDeg, halfAngleRad float64) (footprint.CellSet, error)
}

// State of a partition run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the partitioning and geometry settings of one run.
type Config struct {
	WindowMinutes    int       // full simulation window across all partitions
	Partitions       int       // total partition count
	Partition        int       // this worker's 0-based partition index
	StepMinutes      int       // step granularity
	ProgressInterval int       // log progress every N steps
	Epoch            time.Time // simulation start (UTC) of the full window
	MinElevationDeg  float64   // terminal elevation bound for the cap
}

// Driver owns one partition's simulation loop and histogram.
//
// Partitions are share-nothing: each Driver has its own histogram and output
// file, so any number of partitions can run as separate processes with no
// coordination, and the outputs merge by summation afterwards.
type Driver struct {
	cfg      Config
	provider SubpointProvider
	rast     Rasterizer
	hist     *coverage.Histogram
	logger   *slog.Logger

	state State
	step  int
}

// NewDriver validates the partitioning config and prepares an idle driver.
func NewDriver(cfg Config, provider SubpointProvider, rast Rasterizer, hist *coverage.Histogram, logger *slog.Logger) (*Driver, error) {
	if cfg.StepMinutes < 1 {
		return nil, fmt.Errorf("step granularity must be at least 1 minute, got %d", cfg.StepMinutes)
	}
	if cfg.WindowMinutes < 1 || cfg.WindowMinutes%cfg.StepMinutes != 0 {
		return nil, fmt.Errorf("window of %d minutes is not divisible into %d-minute steps", cfg.WindowMinutes, cfg.StepMinutes)
	}
	totalSteps := cfg.WindowMinutes / cfg.StepMinutes
	if cfg.Partitions < 1 || totalSteps%cfg.Partitions != 0 {
		return nil, fmt.Errorf("%d steps do not divide evenly into %d partitions", totalSteps, cfg.Partitions)
	}
	if cfg.Partition < 0 || cfg.Partition >= cfg.Partitions {
		return nil, fmt.Errorf("partition index %d outside [0, %d)", cfg.Partition, cfg.Partitions)
	}
	if cfg.ProgressInterval < 1 {
		cfg.ProgressInterval = 30
	}

	return &Driver{
		cfg:      cfg,
		provider: provider,
		rast:     rast,
		hist:     hist,
		logger:   logger,
	}, nil
}

// PartitionRange returns this partition's half-open step range
// [start, start+length) in global step indices.
func (d *Driver) PartitionRange() (start, length int) {
	totalSteps := d.cfg.WindowMinutes / d.cfg.StepMinutes
	length = totalSteps / d.cfg.Partitions
	return d.cfg.Partition * length, length
}

// State reports the driver's lifecycle state.
func (d *Driver) State() State { return d.state }

// Histogram returns the partition's histogram. Callers must not mutate it
// while Run is in progress.
func (d *Driver) Histogram() *coverage.Histogram { return d.hist }

// Run executes every step of the partition. Cancellation is honored only at
// step boundaries, so the histogram is always consistent: a step's union is
// either fully accumulated or not at all.
//
// Per-satellite geometry and rasterization failures are recovered within
// the step; only provider errors and cancellation abort the run.
func (d *Driver) Run(ctx context.Context) error {
	start, length := d.PartitionRange()
	d.state = StateRunning

	d.logger.Info("partition starting",
		"partition", d.cfg.Partition,
		"start_step", start,
		"steps", length,
		"epoch", d.cfg.Epoch.UTC().Format(time.RFC3339),
	)

	for i := 0; i < length; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("partition %d cancelled at step %d: %w", d.cfg.Partition, start+i, err)
		}

		d.step = start + i
		stepTime := d.cfg.Epoch.Add(time.Duration(d.step*d.cfg.StepMinutes) * time.Minute)

		if i%d.cfg.ProgressInterval == 0 {
			d.logger.Info("progress",
				"partition", d.cfg.Partition,
				"step", d.step,
				"time", stepTime.UTC().Format(time.RFC3339),
				"cells", d.hist.Len(),
			)
		}

		began := time.Now()
		union, err := d.stepUnion(ctx, stepTime)
		if err != nil {
			return fmt.Errorf("partition %d step %d: %w", d.cfg.Partition, d.step, err)
		}

		d.hist.Accumulate(union)
		metrics.RecordStep(time.Since(began), len(union))
		metrics.SetTrackedCells(d.hist.Len())
	}

	d.state = StateDone
	d.logger.Info("partition complete",
		"partition", d.cfg.Partition,
		"steps", length,
		"cells", d.hist.Len(),
	)
	return nil
}

// stepUnion computes the union of all satellites' footprint cell sets at
// stepTime. Satellites whose geometry or rasterization fails contribute
// nothing and are logged; the step itself only fails when the sub-point
// query does.
func (d *Driver) stepUnion(ctx context.Context, stepTime time.Time) (footprint.CellSet, error) {
	subs, err := d.provider.Subpoints(ctx, stepTime)
	if err != nil {
		return nil, fmt.Errorf("querying sub-points: %w", err)
	}

	union := make(footprint.CellSet)
	for _, sp := range subs {
		half, err := geometry.CapHalfAngle(sp.AltKm, d.cfg.MinElevationDeg)
		if err != nil {
			d.logger.Warn("coverage cone undefined, satellite sees nothing this step",
				"name", sp.Name,
				"altitude_km", sp.AltKm,
				"error", err,
			)
			metrics.SkipSatellite(metrics.SkipGeometryDomain)
			continue
		}

		cells, err := d.rast.Rasterize(sp.LatDeg, sp.LonDeg, half)
		if err != nil {
			reason := metrics.SkipRasterization
			var splitErr *footprint.SplitError
			if errors.As(err, &splitErr) {
				reason = metrics.SkipAntimeridian
			}
			d.logger.Warn("footprint rasterization failed",
				"name", sp.Name,
				"lat", sp.LatDeg,
				"lon", sp.LonDeg,
				"error", err,
			)
			metrics.SkipSatellite(reason)
			continue
		}

		if len(cells) == 0 {
			// A satellite always covers at least one cell; an empty set from
			// a non-failing rasterization points at a geometry bug.
			d.logger.Warn("footprint rasterized to zero cells",
				"name", sp.Name,
				"lat", sp.LatDeg,
				"lon", sp.LonDeg,
				"half_angle_rad", half,
			)
			metrics.SkipSatellite(metrics.SkipEmptyFootprint)
			continue
		}

		union.Union(cells)
	}

	return union, nil
}

// WriteResult persists the completed partition's histogram under dir, named
// by resolution and partition index, and returns the written path. Refuses
// to persist a run that did not finish, so an aborted partition never
// leaves a truncated-looking result behind.
func (d *Driver) WriteResult(dir string, resolution int) (string, error) {
	if d.state != StateDone {
		return "", fmt.Errorf("partition %d is %s, not done; refusing to persist", d.cfg.Partition, d.state)
	}
	path := filepath.Join(dir, coverage.PartitionFilename(resolution, d.cfg.Partition))
	if err := d.hist.WriteFile(path); err != nil {
		return "", fmt.Errorf("persisting partition %d: %w", d.cfg.Partition, err)
	}
	return path, nil
}
