package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// OmegaEarth is Earth's rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// JulianDate converts a time.Time (UTC) to Julian Date using the standard
// astronomical algorithm, valid for dates after March 1, 4801 BC.
func JulianDate(t time.Time) float64 {
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	// January and February count as months 13 and 14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5

	seconds := float64(t.Hour())*3600 +
		float64(t.Minute())*60 +
		float64(t.Second()) +
		float64(t.Nanosecond())/1e9
	return jd + seconds/86400.0
}

// GMST returns Greenwich Mean Sidereal Time in radians at a UTC time,
// using the IAU-82 model (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// with T in Julian centuries of UT1 from J2000.0 and the result in seconds
// of time. One GMST value serves a whole propagation batch, since every
// satellite in a step shares the same target time.
func GMST(t time.Time) float64 {
	jd := JulianDate(t.UTC())
	tUT1 := (jd - j2000) / 36525.0

	// 876600h expressed in seconds is 3155760000.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
