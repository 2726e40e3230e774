// Package geometry computes spherical-cap coverage geometry for satellites
// on a mean-Earth-radius spherical model.
//
// The visibility cap of a satellite is bounded by the minimum elevation angle
// a ground terminal needs to close the link. The Earth-central half-angle of
// that cap follows from the law of sines in the Earth–satellite–horizon
// triangle; see Wertz, "Space Mission Analysis and Design", Section 5.3.
package geometry

import (
	"fmt"
	"math"
)

// RMeanKm is the mean Earth radius in kilometers used throughout the
// spherical model.
const RMeanKm = 6378.1

const rightAngle = math.Pi / 2

// DomainError reports an altitude/elevation combination for which the
// visibility cone never intersects the Earth's surface.
type DomainError struct {
	AltitudeKm      float64
	MinElevationDeg float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("coverage cone undefined at altitude %.3f km, min elevation %.2f deg",
		e.AltitudeKm, e.MinElevationDeg)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// CapHalfAngle returns the Earth-central half-angle (radians) of the
// spherical cap visible from a satellite altitudeKm above the mean radius,
// bounded by minElevationDeg at the cap edge:
//
//	eta    = asin(sin(eps + 90°) · R / (R + h))
//	lambda = 2 · (pi − (eps + 90° + eta))
//
// and the half-angle is lambda/2. Returns a *DomainError instead of a NaN
// or non-positive angle when the geometry is undefined, e.g. a satellite on
// the surface or an elevation the cone cannot satisfy.
func CapHalfAngle(altitudeKm, minElevationDeg float64) (float64, error) {
	if altitudeKm <= 0 {
		return 0, &DomainError{AltitudeKm: altitudeKm, MinElevationDeg: minElevationDeg}
	}

	eps := Radians(minElevationDeg)
	arg := math.Sin(eps+rightAngle) * RMeanKm / (RMeanKm + altitudeKm)
	if arg < -1 || arg > 1 {
		return 0, &DomainError{AltitudeKm: altitudeKm, MinElevationDeg: minElevationDeg}
	}

	eta := math.Asin(arg)
	half := math.Pi - (eps + rightAngle + eta)
	if half <= 0 {
		return 0, &DomainError{AltitudeKm: altitudeKm, MinElevationDeg: minElevationDeg}
	}
	return half, nil
}

// CapSurfaceArea returns the surface area (km²) of the visibility cap,
// 2·pi·R²·(1 − cos(lambda/2)). It shares the angle derivation with
// CapHalfAngle and exists for validation; the coverage loop itself only
// consumes the half-angle.
func CapSurfaceArea(altitudeKm, minElevationDeg float64) (float64, error) {
	half, err := CapHalfAngle(altitudeKm, minElevationDeg)
	if err != nil {
		return 0, err
	}
	return 2 * math.Pi * RMeanKm * RMeanKm * (1 - math.Cos(half)), nil
}
