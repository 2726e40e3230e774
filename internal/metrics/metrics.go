// Package metrics exposes Prometheus instruments for a coverage run. Batch
// partitions normally just let the final log line speak, but long windows
// can serve /metrics for mid-run visibility.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reasons a satellite's contribution is dropped for one step.
const (
	SkipGeometryDomain = "geometry_domain"
	SkipRasterization  = "rasterization"
	SkipAntimeridian   = "antimeridian_split"
	SkipEmptyFootprint = "empty_footprint"
)

var (
	stepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "covergrid_steps_total",
			Help: "Simulated time steps completed.",
		},
	)

	stepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covergrid_step_duration_seconds",
			Help:    "Wall time per simulated step, including rasterization.",
			Buckets: prometheus.DefBuckets,
		},
	)

	stepUnionCells = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covergrid_step_union_cells",
			Help:    "Cells in the per-step union across all satellites.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 12),
		},
	)

	satellitesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covergrid_satellites_skipped_total",
			Help: "Per-step satellite contributions dropped, by reason.",
		},
		[]string{"reason"},
	)

	propagationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covergrid_propagation_duration_seconds",
			Help:    "Wall time per sub-point batch.",
			Buckets: prometheus.DefBuckets,
		},
	)

	propagationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "covergrid_propagations_total",
			Help: "Individual satellite propagations that succeeded.",
		},
	)

	propagationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "covergrid_propagation_errors_total",
			Help: "Individual satellite propagation failures.",
		},
	)

	trackedCells = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covergrid_tracked_cells",
			Help: "Cells currently tracked by the histogram.",
		},
	)

	operationalSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covergrid_operational_satellites",
			Help: "Satellites that passed the operational perigee filter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		stepsTotal,
		stepDurationSeconds,
		stepUnionCells,
		satellitesSkippedTotal,
		propagationDurationSeconds,
		propagationsTotal,
		propagationErrorsTotal,
		trackedCells,
		operationalSatellites,
	)
}

// RecordStep records one completed simulation step.
func RecordStep(duration time.Duration, unionCells int) {
	stepsTotal.Inc()
	stepDurationSeconds.Observe(duration.Seconds())
	stepUnionCells.Observe(float64(unionCells))
}

// RecordPropagation records one sub-point batch.
func RecordPropagation(duration time.Duration, successCount, errorCount int) {
	propagationDurationSeconds.Observe(duration.Seconds())
	propagationsTotal.Add(float64(successCount))
	propagationErrorsTotal.Add(float64(errorCount))
}

// SkipSatellite counts one dropped per-step satellite contribution.
func SkipSatellite(reason string) {
	satellitesSkippedTotal.WithLabelValues(reason).Inc()
}

// SetTrackedCells updates the histogram size gauge.
func SetTrackedCells(n int) {
	trackedCells.Set(float64(n))
}

// SetOperationalSatellites records the post-filter constellation size.
func SetOperationalSatellites(n int) {
	operationalSatellites.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
