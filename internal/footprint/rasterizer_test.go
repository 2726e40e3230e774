package footprint

import (
	"errors"
	"math"
	"testing"

	"github.com/uber/h3-go/v4"
)

// About 6 degrees, the cap of a 550 km satellite with a 35 degree mask.
const testHalfAngle = 0.105

func TestRasterizeContainsCenter(t *testing.T) {
	r := NewRasterizer(DefaultConfig())

	cells, err := r.Rasterize(10, 20, testHalfAngle)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(cells) == 0 {
		t.Fatal("empty footprint")
	}

	center, err := h3.LatLngToCell(h3.LatLng{Lat: 10, Lng: 20}, r.Resolution())
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if _, ok := cells[center]; !ok {
		t.Error("footprint does not contain the sub-satellite cell")
	}
}

func TestRasterizeDeterministic(t *testing.T) {
	r := NewRasterizer(DefaultConfig())

	first, err := r.Rasterize(-33.5, 151.2, testHalfAngle)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	second, err := r.Rasterize(-33.5, 151.2, testHalfAngle)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("cell counts differ: %d vs %d", len(first), len(second))
	}
	for c := range first {
		if _, ok := second[c]; !ok {
			t.Fatalf("cell %s missing from repeat run", c)
		}
	}
}

// spansAntimeridian reports whether the set holds cells on both sides of the
// seam, judged by cell center longitudes.
func spansAntimeridian(t *testing.T, cells CellSet) (east, west bool) {
	t.Helper()
	for c := range cells {
		ll, err := h3.CellToLatLng(c)
		if err != nil {
			t.Fatalf("CellToLatLng: %v", err)
		}
		if ll.Lng > 150 {
			east = true
		}
		if ll.Lng < -150 {
			west = true
		}
	}
	return east, west
}

func TestRasterizeAcrossAntimeridianEastward(t *testing.T) {
	r := NewRasterizer(DefaultConfig())

	cells, err := r.Rasterize(5, 179.5, testHalfAngle)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	east, west := spansAntimeridian(t, cells)
	if !east || !west {
		t.Errorf("footprint at lon 179.5 spans east=%v west=%v, want both sides", east, west)
	}
}

func TestRasterizeAcrossAntimeridianWestward(t *testing.T) {
	r := NewRasterizer(DefaultConfig())

	cells, err := r.Rasterize(-5, -179.5, testHalfAngle)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	east, west := spansAntimeridian(t, cells)
	if !east || !west {
		t.Errorf("footprint at lon -179.5 spans east=%v west=%v, want both sides", east, west)
	}
}

func TestRasterizeRejectsBadHalfAngle(t *testing.T) {
	r := NewRasterizer(DefaultConfig())

	cases := []struct {
		name string
		half float64
	}{
		{"zero", 0},
		{"negative", -0.1},
		{"NaN", math.NaN()},
		{"oversized", math.Pi / 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Rasterize(0, 0, tc.half)
			var rerr *RasterizationError
			if !errors.As(err, &rerr) {
				t.Fatalf("Rasterize = %v, want *RasterizationError", err)
			}
			var serr *SplitError
			if errors.As(err, &serr) {
				t.Error("input validation should not report a split failure")
			}
		})
	}
}

func TestSplitAtAntimeridian(t *testing.T) {
	// A square straddling the seam from the east: two vertices wrapped
	// past 180.
	ring := []h3.LatLng{
		{Lat: 0, Lng: 178},
		{Lat: 0, Lng: 182},
		{Lat: 4, Lng: 182},
		{Lat: 4, Lng: 178},
		{Lat: 0, Lng: 178},
	}

	near, far, err := splitAtAntimeridian(ring, 180, -360)
	if err != nil {
		t.Fatalf("splitAtAntimeridian: %v", err)
	}

	for _, v := range near {
		if v.Lng < 178 || v.Lng > 180 {
			t.Errorf("near vertex lng = %v, want within [178, 180]", v.Lng)
		}
	}
	for _, v := range far {
		if v.Lng < -180 || v.Lng > -178 {
			t.Errorf("far vertex lng = %v, want within [-180, -178]", v.Lng)
		}
	}

	if near[0] != near[len(near)-1] {
		t.Error("near ring is not closed")
	}
	if far[0] != far[len(far)-1] {
		t.Error("far ring is not closed")
	}
	if signedArea(near) < 0 || signedArea(far) < 0 {
		t.Error("split rings are not counter-clockwise")
	}
}

func TestSplitAtAntimeridianDegenerate(t *testing.T) {
	// Every vertex beyond the seam: no crossings, so the near ring is empty
	// and no polygon pair can be formed.
	ring := []h3.LatLng{
		{Lat: 0, Lng: 181},
		{Lat: 0, Lng: 183},
		{Lat: 4, Lng: 182},
		{Lat: 0, Lng: 181},
	}
	_, _, err := splitAtAntimeridian(ring, 180, -360)
	var serr *SplitError
	if !errors.As(err, &serr) {
		t.Fatalf("splitAtAntimeridian = %v, want *SplitError", err)
	}
}

func TestCrossingLat(t *testing.T) {
	a := h3.LatLng{Lat: 0, Lng: 178}
	b := h3.LatLng{Lat: 4, Lng: 182}
	if got := crossingLat(a, b, 180); got != 2 {
		t.Errorf("crossingLat = %v, want 2", got)
	}
	// Reversed edge direction gives the same crossing.
	if got := crossingLat(b, a, 180); got != 2 {
		t.Errorf("crossingLat reversed = %v, want 2", got)
	}
}

func TestOrientCCW(t *testing.T) {
	cw := []h3.LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 1, Lng: 0},
		{Lat: 1, Lng: 1},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 0},
	}
	if signedArea(cw) >= 0 {
		t.Fatal("fixture is not clockwise")
	}
	if got := orientCCW(cw); signedArea(got) < 0 {
		t.Error("orientCCW left ring clockwise")
	}
}

func TestCellSetUnion(t *testing.T) {
	a := CellSet{1: {}, 2: {}}
	b := CellSet{2: {}, 3: {}}
	a.Union(b)
	if len(a) != 3 {
		t.Errorf("union size = %d, want 3", len(a))
	}
	if len(b) != 2 {
		t.Errorf("union mutated its argument: size = %d, want 2", len(b))
	}
}
