package propagation

// Subpoint is the geodetic sub-satellite point of one satellite at an
// instant, the input a footprint is built from.
type Subpoint struct {
	Name    string
	NORADID int
	LatDeg  float64
	LonDeg  float64
	AltKm   float64 // above the reference surface
}

// Config holds sub-point computation settings.
type Config struct {
	Workers int // worker pool size (default: runtime.NumCPU())
}
