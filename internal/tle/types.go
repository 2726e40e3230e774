package tle

import "time"

// TLEEntry represents a single satellite's two-line element set, along with
// the line-2 orbital elements the operational filter consumes.
type TLEEntry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string

	MeanMotion   float64 // revolutions per day
	Eccentricity float64
}

// Catalog is a complete TLE catalog from one source.
type Catalog struct {
	Source     string
	FetchedAt  time.Time
	Satellites []TLEEntry
}
