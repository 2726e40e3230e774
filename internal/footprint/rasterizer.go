// Package footprint rasterizes satellite visibility caps onto the H3
// hierarchical grid at a single resolution level.
//
// A cap is approximated by a closed ring of vertices propagated outward from
// the sub-satellite point by the cap's arc length. H3's polygon fill expects
// a simple ring with longitudes in [-180, 180], so rings that wrap past the
// antimeridian are split at the seam into two conventional rings first.
package footprint

import (
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"

	"github.com/star/covergrid/internal/geometry"
)

// CellSet is an unordered set of grid cells covered by one or more footprints.
type CellSet map[h3.Cell]struct{}

// Union adds every cell of other into s.
func (s CellSet) Union(other CellSet) {
	for cell := range other {
		s[cell] = struct{}{}
	}
}

// RasterizationError reports a footprint that could not be rasterized. It is
// recoverable: the satellite simply contributes no cells for the step, and
// the offending coordinates are carried for investigation.
type RasterizationError struct {
	LatDeg, LonDeg float64
	Reason         string
	Err            error
}

func (e *RasterizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rasterizing footprint at lat=%.4f lon=%.4f: %v", e.LatDeg, e.LonDeg, e.Err)
	}
	return fmt.Sprintf("rasterizing footprint at lat=%.4f lon=%.4f: %s", e.LatDeg, e.LonDeg, e.Reason)
}

func (e *RasterizationError) Unwrap() error { return e.Err }

// SplitError reports a failed antimeridian split. Always wrapped in a
// RasterizationError; callers that need to distinguish the split path use
// errors.As.
type SplitError struct {
	Reason string
}

func (e *SplitError) Error() string { return "antimeridian split: " + e.Reason }

// Config holds rasterizer settings.
type Config struct {
	Resolution   int     // H3 resolution level
	Vertices     int     // ring vertex count, first == last
	MaxHalfAngle float64 // radians; caps beyond this are rejected
}

// DefaultConfig returns the rasterizer settings used in production runs.
// MaxHalfAngle guards the ring approximation: beyond pi/4 a fixed-vertex
// ring near a pole can wrap incoherently, and no LEO satellite above the
// operational perigee floor produces a cap anywhere near that large.
func DefaultConfig() Config {
	return Config{
		Resolution:   4,
		Vertices:     20,
		MaxHalfAngle: math.Pi / 4,
	}
}

// Rasterizer converts visibility caps into H3 cell sets at one fixed
// resolution level. Safe for concurrent use; it holds no mutable state.
type Rasterizer struct {
	cfg Config
}

// NewRasterizer creates a Rasterizer, filling unset config fields from
// DefaultConfig.
func NewRasterizer(cfg Config) *Rasterizer {
	def := DefaultConfig()
	if cfg.Vertices < 4 {
		cfg.Vertices = def.Vertices
	}
	if cfg.MaxHalfAngle <= 0 {
		cfg.MaxHalfAngle = def.MaxHalfAngle
	}
	return &Rasterizer{cfg: cfg}
}

// Resolution returns the configured H3 resolution level.
func (r *Rasterizer) Resolution() int { return r.cfg.Resolution }

// Rasterize returns the set of H3 cells covered by a cap of the given
// half-angle (radians) centered on the sub-satellite point. The output is
// deterministic for identical inputs.
//
// Errors are *RasterizationError (degenerate ring, oversized cap, grid fill
// failure), possibly wrapping a *SplitError when the antimeridian path
// failed. An empty cell set with a nil error is anomalous but left to the
// caller to surface, since only the caller knows the satellite involved.
func (r *Rasterizer) Rasterize(latDeg, lonDeg, halfAngleRad float64) (CellSet, error) {
	if halfAngleRad <= 0 || math.IsNaN(halfAngleRad) {
		return nil, &RasterizationError{
			LatDeg: latDeg, LonDeg: lonDeg,
			Reason: fmt.Sprintf("non-positive cap half-angle %.6f rad", halfAngleRad),
		}
	}
	if halfAngleRad > r.cfg.MaxHalfAngle {
		return nil, &RasterizationError{
			LatDeg: latDeg, LonDeg: lonDeg,
			Reason: fmt.Sprintf("cap half-angle %.4f rad exceeds maximum %.4f rad", halfAngleRad, r.cfg.MaxHalfAngle),
		}
	}

	// Arc length on the sphere, in meters for the grid library.
	arcM := geometry.RMeanKm * halfAngleRad * 1000

	ring := capRing(latDeg, lonDeg, arcM, r.cfg.Vertices)

	wrapHigh, wrapLow := false, false
	for _, v := range ring {
		if v.Lng > 180 {
			wrapHigh = true
		}
		if v.Lng < -180 {
			wrapLow = true
		}
	}

	cells := make(CellSet)
	if wrapHigh || wrapLow {
		// The destination-point formula wraps at most one way per ring:
		// vertex longitudes stay within (center-180, center+180].
		seam, offset := 180.0, -360.0
		if wrapLow {
			seam, offset = -180.0, 360.0
		}
		near, far, err := splitAtAntimeridian(ring, seam, offset)
		if err != nil {
			return nil, &RasterizationError{LatDeg: latDeg, LonDeg: lonDeg, Err: err}
		}
		for _, loop := range [][]h3.LatLng{near, far} {
			filled, err := r.fill(loop)
			if err != nil {
				return nil, &RasterizationError{
					LatDeg: latDeg, LonDeg: lonDeg,
					Err: &SplitError{Reason: fmt.Sprintf("filling split ring: %v", err)},
				}
			}
			for _, c := range filled {
				cells[c] = struct{}{}
			}
		}
		return cells, nil
	}

	filled, err := r.fill(ring)
	if err != nil {
		return nil, &RasterizationError{LatDeg: latDeg, LonDeg: lonDeg, Err: err}
	}
	for _, c := range filled {
		cells[c] = struct{}{}
	}
	return cells, nil
}

func (r *Rasterizer) fill(ring []h3.LatLng) ([]h3.Cell, error) {
	poly := h3.GeoPolygon{GeoLoop: h3.GeoLoop(ring)}
	return h3.PolygonToCells(poly, r.cfg.Resolution)
}
