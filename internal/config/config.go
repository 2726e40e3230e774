// Package config loads the run configuration from COVERGRID_* environment
// variables, with an optional .env overlay.
package config

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable of a coverage run.
type Config struct {
	GridResolution  int     // H3 resolution of the coverage grid
	MinElevationDeg float64 // minimum terminal elevation for a satellite to count
	CapVertices     int     // vertex count of the footprint boundary ring

	WindowMinutes int       // full simulation window across all partitions
	Partitions    int       // total partition count
	StepMinutes   int       // step granularity
	ProgressSteps int       // progress log interval in steps
	Epoch         time.Time // simulation start (UTC)

	MinPerigeeKm float64 // satellites below this perigee are not operational

	TLESourceURL string
	TLEExtraURLs []string
	TLECacheDir  string
	TLEMaxFiles  int
	EnableFetch  bool

	SeedFile    string // optional cell list to pre-track, one H3 index per line
	OutputDir   string
	MetricsAddr string // Prometheus listen address, empty disables the listener
	Workers     int    // propagation worker pool size
}

// Default returns the configuration of a standard one-day Starlink run.
func Default() Config {
	return Config{
		GridResolution:  4,
		MinElevationDeg: 35,
		CapVertices:     20,
		WindowMinutes:   1440,
		Partitions:      4,
		StepMinutes:     1,
		ProgressSteps:   30,
		Epoch:           time.Date(2020, 6, 21, 0, 0, 0, 0, time.UTC),
		MinPerigeeKm:    540,
		TLESourceURL:    "https://celestrak.org/NORAD/elements/gp.php?GROUP=starlink&FORMAT=tle",
		TLECacheDir:     "tle-cache",
		TLEMaxFiles:     5,
		EnableFetch:     true,
		OutputDir:       ".",
		Workers:         runtime.NumCPU(),
	}
}

// Load builds a Config from the environment on top of Default. A .env file
// in the working directory is merged in first when present. Invalid values
// are logged and the default kept, so a typo degrades rather than aborts.
func Load(logger *slog.Logger) Config {
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	cfg := Default()

	envInt(logger, "COVERGRID_GRID_RESOLUTION", &cfg.GridResolution)
	envFloat(logger, "COVERGRID_MIN_ELEVATION_DEG", &cfg.MinElevationDeg)
	envInt(logger, "COVERGRID_CAP_VERTICES", &cfg.CapVertices)

	envInt(logger, "COVERGRID_WINDOW_MINUTES", &cfg.WindowMinutes)
	envInt(logger, "COVERGRID_PARTITIONS", &cfg.Partitions)
	envInt(logger, "COVERGRID_STEP_MINUTES", &cfg.StepMinutes)
	envInt(logger, "COVERGRID_PROGRESS_STEPS", &cfg.ProgressSteps)
	envTime(logger, "COVERGRID_EPOCH", &cfg.Epoch)

	envFloat(logger, "COVERGRID_MIN_PERIGEE_KM", &cfg.MinPerigeeKm)

	envString("COVERGRID_TLE_URL", &cfg.TLESourceURL)
	envList("COVERGRID_TLE_EXTRA_URLS", &cfg.TLEExtraURLs)
	envString("COVERGRID_TLE_CACHE_DIR", &cfg.TLECacheDir)
	envInt(logger, "COVERGRID_TLE_MAX_FILES", &cfg.TLEMaxFiles)
	envBool(logger, "COVERGRID_ENABLE_FETCH", &cfg.EnableFetch)

	envString("COVERGRID_SEED_FILE", &cfg.SeedFile)
	envString("COVERGRID_OUTPUT_DIR", &cfg.OutputDir)
	envString("COVERGRID_METRICS_ADDR", &cfg.MetricsAddr)
	envInt(logger, "COVERGRID_WORKERS", &cfg.Workers)

	return cfg
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envList(key string, dst *[]string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func envInt(logger *slog.Logger, key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
			return
		}
		*dst = n
	}
}

func envFloat(logger *slog.Logger, key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
			return
		}
		*dst = f
	}
}

func envBool(logger *slog.Logger, key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
			return
		}
		*dst = b
	}
}

func envTime(logger *slog.Logger, key string, dst *time.Time) {
	if v := os.Getenv(key); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			logger.Warn("invalid "+key+" value, expected RFC3339, using default", "value", v, "default", dst.Format(time.RFC3339))
			return
		}
		*dst = t.UTC()
	}
}
