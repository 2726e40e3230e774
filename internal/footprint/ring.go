package footprint

import (
	"fmt"

	"github.com/uber/h3-go/v4"

	"github.com/star/covergrid/internal/geometry"
)

// capRing builds a closed ring of n vertices approximating the cap boundary:
// the center propagated outward by arcM meters along n bearings evenly
// spaced over a full turn. The final bearing coincides with the first, and
// the last vertex is pinned to the first exactly so the ring closes without
// floating-point drift.
func capRing(latDeg, lonDeg, arcM float64, n int) []h3.LatLng {
	ring := make([]h3.LatLng, n)
	for i := 0; i < n-1; i++ {
		bearing := 360 * float64(i) / float64(n-1)
		lat, lon := geometry.DestinationPoint(latDeg, lonDeg, bearing, arcM)
		ring[i] = h3.LatLng{Lat: lat, Lng: lon}
	}
	ring[n-1] = ring[0]
	return ring
}

// splitAtAntimeridian splits a ring whose longitudes wrapped past the seam
// (±180) into a near ring, with longitudes inside [-180, 180], and a far
// ring remapped back into range by offset (∓360).
//
// Edges straddling the seam contribute a vertex at the seam itself, with the
// crossing latitude linearly interpolated between the edge endpoints, to
// BOTH rings. Each output ring is closed back to its own first vertex and
// normalized to counter-clockwise winding, since the far-side remap reflects
// the coordinate space and can invert winding.
func splitAtAntimeridian(ring []h3.LatLng, seam, offset float64) (near, far []h3.LatLng, err error) {
	// far side: longitudes beyond the seam in the wrap direction.
	isFar := func(lng float64) bool {
		if offset < 0 {
			return lng > seam
		}
		return lng < seam
	}

	for i := 0; i+1 < len(ring); i++ {
		a, b := ring[i], ring[i+1]
		if isFar(a.Lng) {
			far = append(far, a)
		} else {
			near = append(near, a)
		}
		if isFar(a.Lng) != isFar(b.Lng) {
			p := h3.LatLng{Lat: crossingLat(a, b, seam), Lng: seam}
			near = append(near, p)
			far = append(far, p)
		}
	}

	if len(near) < 3 || len(far) < 3 {
		return nil, nil, &SplitError{
			Reason: fmt.Sprintf("ring split produced %d/%d usable points", len(near), len(far)),
		}
	}

	near = append(near, near[0])
	far = append(far, far[0])

	for i := range far {
		far[i].Lng += offset
	}

	return orientCCW(near), orientCCW(far), nil
}

// crossingLat linearly interpolates the latitude at which the edge a→b
// crosses the given longitude. Handles edges running in either direction.
func crossingLat(a, b h3.LatLng, lng float64) float64 {
	if a.Lng == b.Lng {
		return a.Lat
	}
	t := (lng - a.Lng) / (b.Lng - a.Lng)
	return a.Lat + t*(b.Lat-a.Lat)
}

// orientCCW returns the ring wound counter-clockwise in the lon/lat plane,
// reversing it in place if necessary.
func orientCCW(ring []h3.LatLng) []h3.LatLng {
	if signedArea(ring) >= 0 {
		return ring
	}
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
	return ring
}

// signedArea is the shoelace sum over (lng, lat) vertices of a closed ring;
// positive for counter-clockwise winding.
func signedArea(ring []h3.LatLng) float64 {
	var sum float64
	for i := 0; i+1 < len(ring); i++ {
		sum += ring[i].Lng*ring[i+1].Lat - ring[i+1].Lng*ring[i].Lat
	}
	return sum / 2
}
