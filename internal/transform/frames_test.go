package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want float64
	}{
		{"J2000.0 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"Unix epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440587.5},
		// Vallado Example 3-15: April 6, 2004, 07:51:28.386 UTC.
		{"Vallado example date", time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC), 2453101.827411875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JulianDate(tt.time); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f", tt.time, got, tt.want)
			}
		})
	}
}

// GMST must agree with go-satellite's GSTimeFromDate, which implements the
// same IAU-82 model; sub-point longitudes drift with any disagreement.
func TestGMSTAgainstSGP4Library(t *testing.T) {
	times := []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		time.Date(2020, 6, 21, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
	}

	for _, tm := range times {
		our := GMST(tm)
		ref := satellite.GSTimeFromDate(
			tm.Year(), int(tm.Month()), tm.Day(),
			tm.Hour(), tm.Minute(), tm.Second(),
		)
		// 1e-8 rad is about 0.06 arcsec.
		if diff := math.Abs(our - ref); diff > 1e-8 {
			t.Errorf("GMST(%v) = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", tm, our, ref, diff)
		}
	}
}

// The rotation to ECEF must match go-satellite's ECIToECEF for the same
// GMST; both use the GMST-only form without nutation or polar motion.
func TestTEMEToECEFAgainstSGP4Library(t *testing.T) {
	tests := []struct {
		name string
		teme PositionTEME
		time time.Time
	}{
		{
			// Vallado "Fundamentals of Astrodynamics" Example 3-15.
			name: "Vallado example 3-15",
			teme: PositionTEME{
				X: 5094.18016, Y: 6127.64465, Z: 6380.34453,
				VX: -4.746131487, VY: 0.786598499, VZ: 5.531931288,
			},
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		},
		{
			name: "LEO equatorial",
			teme: PositionTEME{X: 6778.0, VY: 7.5},
			time: time.Date(2020, 6, 21, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "LEO polar",
			teme: PositionTEME{Z: 6978.0, VX: 7.4},
			time: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gmst := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			ours := TEMEToECEFWithGMST(tt.teme, gmst)
			ref := satellite.ECIToECEF(
				satellite.Vector3{X: tt.teme.X, Y: tt.teme.Y, Z: tt.teme.Z},
				gmst,
			)

			// Ours is meters, the reference km; agree within a meter.
			if math.Abs(ours.X-ref.X*1000) > 1 ||
				math.Abs(ours.Y-ref.Y*1000) > 1 ||
				math.Abs(ours.Z-ref.Z*1000) > 1 {
				t.Errorf("position mismatch:\n  ours: [%.3f, %.3f, %.3f] m\n  ref:  [%.3f, %.3f, %.3f] m",
					ours.X, ours.Y, ours.Z, ref.X*1000, ref.Y*1000, ref.Z*1000)
			}
			if !ValidateECEF(ours) {
				t.Errorf("ECEF position failed validation: [%.1f, %.1f, %.1f] m", ours.X, ours.Y, ours.Z)
			}
		})
	}
}

func TestTEMEToECEFVelocity(t *testing.T) {
	// Prograde equatorial satellite; GMST 0 aligns the TEME and ECEF X axes.
	teme := PositionTEME{X: 6778.0, VY: 7.5}
	ecef := TEMEToECEFWithGMST(teme, 0)

	if math.Abs(ecef.X-6778000.0) > 0.1 {
		t.Errorf("X position: got %.1f, want 6778000.0", ecef.X)
	}

	// Earth's rotation subtracts ω*R from the inertial eastward velocity.
	wantVY := (7.5 - OmegaEarth*6778.0) * 1000.0
	if math.Abs(ecef.VY-wantVY) > 0.1 {
		t.Errorf("VY: got %.1f m/s, want %.1f m/s", ecef.VY, wantVY)
	}
}

func TestValidateECEF(t *testing.T) {
	tests := []struct {
		name  string
		pos   PositionECEF
		valid bool
	}{
		{"LEO", PositionECEF{X: 6778000}, true},
		{"GEO", PositionECEF{X: 42164000}, true},
		{"inside the Earth", PositionECEF{X: 5000000}, false},
		{"beyond high orbit", PositionECEF{X: 60000000}, false},
		{"NaN", PositionECEF{X: math.NaN()}, false},
		{"Inf", PositionECEF{X: math.Inf(1)}, false},
		{"origin", PositionECEF{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateECEF(tt.pos); got != tt.valid {
				t.Errorf("ValidateECEF(%v) = %v, want %v", tt.pos, got, tt.valid)
			}
		})
	}
}
