package simulation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	h3 "github.com/uber/h3-go/v4"

	"github.com/star/covergrid/internal/coverage"
	"github.com/star/covergrid/internal/footprint"
	"github.com/star/covergrid/internal/propagation"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

var testEpoch = time.Date(2020, 6, 21, 0, 0, 0, 0, time.UTC)

// fakeProvider drives the simulation with scripted sub-points keyed off the
// step time, so the test controls exactly which satellite is where.
type fakeProvider struct {
	at func(t time.Time) []propagation.Subpoint
}

func (f *fakeProvider) Subpoints(ctx context.Context, t time.Time) ([]propagation.Subpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.at(t), nil
}

func testConfig() Config {
	return Config{
		WindowMinutes:    10,
		Partitions:       1,
		Partition:        0,
		StepMinutes:      1,
		ProgressInterval: 5,
		Epoch:            testEpoch,
		MinElevationDeg:  35,
	}
}

func newTestRasterizer(t *testing.T) *footprint.Rasterizer {
	t.Helper()
	return footprint.NewRasterizer(footprint.DefaultConfig())
}

// scriptedAt places sat-a over a fixed point for the whole window, sat-b over
// the same point for the first five minutes only, and sat-c far away
// throughout.
func scriptedAt(t time.Time) []propagation.Subpoint {
	minute := int(t.Sub(testEpoch).Minutes())
	subs := []propagation.Subpoint{
		{Name: "sat-a", NORADID: 1, LatDeg: 10, LonDeg: 20, AltKm: 550},
		{Name: "sat-c", NORADID: 3, LatDeg: -40, LonDeg: 100, AltKm: 550},
	}
	b := propagation.Subpoint{Name: "sat-b", NORADID: 2, LatDeg: 10, LonDeg: 20, AltKm: 550}
	if minute >= 5 {
		b.LatDeg, b.LonDeg = -40, -100
	}
	return append(subs, b)
}

func TestRunDeduplicatesWithinStep(t *testing.T) {
	hist := coverage.NewHistogram()
	d, err := NewDriver(testConfig(), &fakeProvider{at: scriptedAt}, newTestRasterizer(t), hist, testLogger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.State() != StateDone {
		t.Fatalf("state = %v, want done", d.State())
	}

	center, err := h3.LatLngToCell(h3.LatLng{Lat: 10, Lng: 20}, 4)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	// sat-a and sat-b both cover the center cell during the first five
	// steps, but a cell counts at most once per step.
	if got := hist.Count(center); got != 10 {
		t.Errorf("center cell count = %d, want 10", got)
	}

	far, err := h3.LatLngToCell(h3.LatLng{Lat: -40, Lng: 100}, 4)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if got := hist.Count(far); got != 10 {
		t.Errorf("far cell count = %d, want 10", got)
	}
}

func TestPartitionedRunsMergeToFullRun(t *testing.T) {
	full := coverage.NewHistogram()
	cfg := testConfig()
	d, err := NewDriver(cfg, &fakeProvider{at: scriptedAt}, newTestRasterizer(t), full, testLogger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("full run: %v", err)
	}

	merged := coverage.NewHistogram()
	for part := 0; part < 2; part++ {
		pcfg := cfg
		pcfg.Partitions = 2
		pcfg.Partition = part
		hist := coverage.NewHistogram()
		pd, err := NewDriver(pcfg, &fakeProvider{at: scriptedAt}, newTestRasterizer(t), hist, testLogger)
		if err != nil {
			t.Fatalf("NewDriver partition %d: %v", part, err)
		}
		start, length := pd.PartitionRange()
		if start != part*5 || length != 5 {
			t.Fatalf("partition %d range = (%d, %d), want (%d, 5)", part, start, length, part*5)
		}
		if err := pd.Run(context.Background()); err != nil {
			t.Fatalf("partition %d run: %v", part, err)
		}
		merged.Merge(hist)
	}

	var want, got bytes.Buffer
	if _, err := full.WriteTo(&want); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if _, err := merged.WriteTo(&got); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if want.String() != got.String() {
		t.Error("merged partition histograms differ from single full run")
	}
}

func TestRunRecoversUnhealthySatellites(t *testing.T) {
	// One healthy satellite next to one whose altitude admits no coverage
	// cone and one whose cap is too large to rasterize. The bad ones are
	// skipped per step; the partition still completes on the healthy one.
	at := func(time.Time) []propagation.Subpoint {
		return []propagation.Subpoint{
			{Name: "healthy", NORADID: 1, LatDeg: 10, LonDeg: 20, AltKm: 550},
			{Name: "grounded", NORADID: 2, LatDeg: 0, LonDeg: 0, AltKm: 0},
			{Name: "too-high", NORADID: 3, LatDeg: 0, LonDeg: 0, AltKm: 36000},
		}
	}

	hist := coverage.NewHistogram()
	d, err := NewDriver(testConfig(), &fakeProvider{at: at}, newTestRasterizer(t), hist, testLogger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	center, err := h3.LatLngToCell(h3.LatLng{Lat: 10, Lng: 20}, 4)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if got := hist.Count(center); got != 10 {
		t.Errorf("healthy satellite's cell count = %d, want 10", got)
	}

	// Nothing from the skipped satellites reaches the histogram.
	origin, err := h3.LatLngToCell(h3.LatLng{Lat: 0, Lng: 0}, 4)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if got := hist.Count(origin); got != 0 {
		t.Errorf("skipped satellites' cell count = %d, want 0", got)
	}
}

// emptyRasterizer reports success with no cells, the anomaly the driver must
// survive and log rather than abort on.
type emptyRasterizer struct{}

func (emptyRasterizer) Rasterize(latDeg, lonDeg, halfAngleRad float64) (footprint.CellSet, error) {
	return footprint.CellSet{}, nil
}

func TestRunSurvivesEmptyFootprint(t *testing.T) {
	hist := coverage.NewHistogram()
	d, err := NewDriver(testConfig(), &fakeProvider{at: scriptedAt}, emptyRasterizer{}, hist, testLogger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.State() != StateDone {
		t.Errorf("state = %v, want done", d.State())
	}
	if hist.Len() != 0 {
		t.Errorf("histogram tracked %d cells, want 0", hist.Len())
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := NewDriver(testConfig(), &fakeProvider{at: scriptedAt}, newTestRasterizer(t), coverage.NewHistogram(), testLogger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if _, err := d.WriteResult(t.TempDir(), 4); err == nil {
		t.Error("WriteResult accepted an unfinished run")
	}
}

func TestWriteResult(t *testing.T) {
	hist := coverage.NewHistogram()
	d, err := NewDriver(testConfig(), &fakeProvider{at: scriptedAt}, newTestRasterizer(t), hist, testLogger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	path, err := d.WriteResult(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	back := coverage.NewHistogram()
	if err := back.ReadFile(path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if back.Len() != hist.Len() {
		t.Errorf("round-trip cell count = %d, want %d", back.Len(), hist.Len())
	}
}

func TestNewDriverValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero step", func(c *Config) { c.StepMinutes = 0 }},
		{"window not divisible by step", func(c *Config) { c.StepMinutes = 3 }},
		{"steps not divisible by partitions", func(c *Config) { c.Partitions = 3 }},
		{"partition index too large", func(c *Config) { c.Partitions = 2; c.Partition = 2 }},
		{"negative partition index", func(c *Config) { c.Partition = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewDriver(cfg, &fakeProvider{at: scriptedAt}, newTestRasterizer(t), coverage.NewHistogram(), testLogger); err == nil {
				t.Error("NewDriver accepted invalid config")
			}
		})
	}
}
