package tle

import (
	"log/slog"
	"math"
)

const (
	earthMuKm3s2  = 398600.4418 // Earth gravitational parameter, km³/s²
	earthRadiusKm = 6378.135    // equatorial radius used by the perigee convention
)

// PerigeeKm returns the perigee altitude (km) implied by the entry's mean
// motion and eccentricity: a = (mu/omega²)^(1/3), perigee = a(1-e) - Re.
func (e TLEEntry) PerigeeKm() float64 {
	omega := e.MeanMotion * 2 * math.Pi / 86400 // rad/s
	a := math.Cbrt(earthMuKm3s2 / (omega * omega))
	return a*(1-e.Eccentricity) - earthRadiusKm
}

// FilterOperational returns the entries whose perigee altitude exceeds
// minPerigeeKm. Constellation operators park failed and deorbiting
// spacecraft below the operational shell, so a perigee floor is the best
// catalog-only proxy for the operational subset.
func FilterOperational(entries []TLEEntry, minPerigeeKm float64, logger *slog.Logger) []TLEEntry {
	op := make([]TLEEntry, 0, len(entries))
	for _, e := range entries {
		if e.PerigeeKm() > minPerigeeKm {
			op = append(op, e)
		}
	}
	logger.Info("filtered operational satellites",
		"total", len(entries),
		"operational", len(op),
		"min_perigee_km", minPerigeeKm,
	)
	return op
}
