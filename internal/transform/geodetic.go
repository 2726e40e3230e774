package transform

import "math"

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// GeodeticPoint is a geodetic position: latitude and longitude in degrees,
// altitude in meters above the WGS-84 ellipsoid.
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts an ECEF position (meters) to geodetic coordinates
// by fixed-point iteration on the latitude (Bowring's form). Five iterations
// are plenty for Earth orbits, which converge in two or three.
//
// The output latitude/longitude is the sub-satellite point a footprint is
// centered on; the altitude feeds the visibility cone.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)

	p := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, p*(1-wgs84E2))

	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		// Polar singularity: derive altitude from the z component.
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltM:   alt,
	}
}
