package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/star/covergrid/internal/metrics"
	"github.com/star/covergrid/internal/tle"
)

// satProp pairs one satellite's identity with its preinitialized SGP4 state.
type satProp struct {
	name    string
	noradID int
	prop    *SGP4Propagator
}

// Provider computes geodetic sub-points for a fixed operational satellite
// set. SGP4 state is initialized once at construction; the satellite set
// never changes during a run.
type Provider struct {
	props  []satProp
	pool   *WorkerPool
	logger *slog.Logger
}

// NewProvider initializes SGP4 state for every entry. Entries whose TLEs
// fail SGP4 initialization are skipped with a warning, since they would
// fail identically at every step.
func NewProvider(entries []tle.TLEEntry, cfg Config, logger *slog.Logger) (*Provider, error) {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}

	props := make([]satProp, 0, len(entries))
	var skipped int
	for _, e := range entries {
		sp, err := NewSGP4Propagator(e.Line1, e.Line2, e.NORADID)
		if err != nil {
			logger.Warn("sgp4 init failed, dropping satellite", "norad_id", e.NORADID, "error", err)
			skipped++
			continue
		}
		props = append(props, satProp{name: e.Name, noradID: e.NORADID, prop: sp})
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("no usable satellites out of %d entries", len(entries))
	}

	logger.Info("sub-point provider ready",
		"satellites", len(props),
		"skipped", skipped,
		"workers", cfg.Workers,
	)

	return &Provider{
		props:  props,
		pool:   NewWorkerPool(cfg.Workers, logger),
		logger: logger,
	}, nil
}

// Size returns the number of satellites the provider tracks.
func (p *Provider) Size() int { return len(p.props) }

// Subpoints computes every tracked satellite's sub-point at t. Individual
// propagation failures are skipped; an error is returned only when the
// whole batch failed, which indicates a time far outside the TLE epochs.
func (p *Provider) Subpoints(ctx context.Context, t time.Time) ([]Subpoint, error) {
	start := time.Now()
	subs, successCount, errorCount := p.pool.SubpointBatch(ctx, p.props, t)
	metrics.RecordPropagation(time.Since(start), successCount, errorCount)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if successCount == 0 {
		return nil, fmt.Errorf("all %d propagations failed at %s", len(p.props), t.UTC().Format(time.RFC3339))
	}
	return subs, nil
}
