package geometry

import "math"

// DestinationPoint returns the point reached by travelling distanceM meters
// from (latDeg, lonDeg) along the given initial bearing (degrees clockwise
// from north) on a sphere of mean Earth radius.
//
// The returned longitude is deliberately NOT normalized into [-180, 180]:
// a footprint ring propagated across the antimeridian keeps wrapped
// longitudes (>180 or <-180) so the rasterizer can detect the crossing and
// split the ring before grid fill.
func DestinationPoint(latDeg, lonDeg, bearingDeg, distanceM float64) (lat, lon float64) {
	delta := distanceM / (RMeanKm * 1000) // angular distance
	theta := Radians(bearingDeg)
	lat1 := Radians(latDeg)

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta)
	lat2 := math.Asin(sinLat2)
	dLon := math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*sinLat2,
	)

	return Degrees(lat2), lonDeg + Degrees(dLon)
}
