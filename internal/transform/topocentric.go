package transform

import "math"

// ObserverPosition is a ground location in both geodetic and ECEF frames.
// The ECEF coordinates are precomputed once at construction so look-angle
// queries against many satellite positions reuse them.
type ObserverPosition struct {
	LatRad, LonRad, AltM float64 // geodetic (radians, meters above ellipsoid)
	ECEFx, ECEFy, ECEFz  float64 // precomputed ECEF (meters)
}

// LookAngles is the topocentric view of a satellite from an observer.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// NewObserverPosition builds an ObserverPosition from geodetic coordinates:
// latitude and longitude in degrees, altitude in meters above WGS-84.
func NewObserverPosition(latDeg, lonDeg, altM float64) ObserverPosition {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return ObserverPosition{
		LatRad: lat,
		LonRad: lon,
		AltM:   altM,
		ECEFx:  (n + altM) * cosLat * math.Cos(lon),
		ECEFy:  (n + altM) * cosLat * math.Sin(lon),
		ECEFz:  (n*(1-wgs84E2) + altM) * sinLat,
	}
}

// ECEFToLookAngles computes azimuth, elevation, and range from an observer
// to a satellite given in ECEF meters, via the SEZ (South-East-Zenith)
// topocentric rotation (Vallado Section 4.4).
//
// The coverage model defines a footprint's edge by the elevation seen from
// the ground, so this is the independent check that a cap half-angle and
// its elevation mask agree.
func ECEFToLookAngles(obs ObserverPosition, satX, satY, satZ float64) LookAngles {
	rx := satX - obs.ECEFx
	ry := satY - obs.ECEFy
	rz := satZ - obs.ECEFz

	sinLat := math.Sin(obs.LatRad)
	cosLat := math.Cos(obs.LatRad)
	sinLon := math.Sin(obs.LonRad)
	cosLon := math.Cos(obs.LonRad)

	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rangeMag := math.Sqrt(south*south + east*east + zenith*zenith)
	el := math.Asin(zenith / rangeMag)

	// North is the negated south axis, so az = atan2(east, -south).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeMag / 1000.0,
	}
}
