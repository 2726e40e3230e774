// Command covergrid runs one partition of a constellation ground-coverage
// simulation and writes the partition's per-cell coverage histogram.
//
// Usage:
//
//	covergrid <partition-index>
//
// Configuration comes from COVERGRID_* environment variables; see
// internal/config. Partitions are independent processes whose outputs merge
// with covmerge.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/star/covergrid/internal/config"
	"github.com/star/covergrid/internal/coverage"
	"github.com/star/covergrid/internal/footprint"
	"github.com/star/covergrid/internal/metrics"
	"github.com/star/covergrid/internal/propagation"
	"github.com/star/covergrid/internal/simulation"
	"github.com/star/covergrid/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <partition-index>\n", os.Args[0])
		os.Exit(2)
	}
	partition, err := strconv.Atoi(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "partition index %q is not a number\n", os.Args[1])
		os.Exit(2)
	}

	cfg := config.Load(logger)
	logger = logger.With("partition", partition)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := tle.Load(ctx, tle.LoadConfig{
		SourceURL:   cfg.TLESourceURL,
		ExtraURLs:   cfg.TLEExtraURLs,
		CacheDir:    cfg.TLECacheDir,
		MaxFiles:    cfg.TLEMaxFiles,
		EnableFetch: cfg.EnableFetch,
	}, logger)
	if err != nil {
		logger.Error("failed to load TLE catalog", "error", err)
		os.Exit(1)
	}

	operational := tle.FilterOperational(catalog.Satellites, cfg.MinPerigeeKm, logger)
	if len(operational) == 0 {
		logger.Error("no operational satellites in catalog",
			"total", len(catalog.Satellites),
			"min_perigee_km", cfg.MinPerigeeKm,
		)
		os.Exit(1)
	}
	metrics.SetOperationalSatellites(len(operational))
	logger.Info("catalog ready",
		"source", catalog.Source,
		"total", len(catalog.Satellites),
		"operational", len(operational),
	)

	provider, err := propagation.NewProvider(operational, propagation.Config{Workers: cfg.Workers}, logger)
	if err != nil {
		logger.Error("failed to initialize propagators", "error", err)
		os.Exit(1)
	}

	hist := coverage.NewHistogram()
	if cfg.SeedFile != "" {
		if err := hist.SeedFile(cfg.SeedFile); err != nil {
			logger.Error("failed to seed histogram", "file", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded histogram", "file", cfg.SeedFile, "cells", hist.Len())
	}

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info("metrics listener starting", "addr", cfg.MetricsAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	rast := footprint.NewRasterizer(footprint.Config{
		Resolution: cfg.GridResolution,
		Vertices:   cfg.CapVertices,
	})

	driver, err := simulation.NewDriver(simulation.Config{
		WindowMinutes:    cfg.WindowMinutes,
		Partitions:       cfg.Partitions,
		Partition:        partition,
		StepMinutes:      cfg.StepMinutes,
		ProgressInterval: cfg.ProgressSteps,
		Epoch:            cfg.Epoch,
		MinElevationDeg:  cfg.MinElevationDeg,
	}, provider, rast, hist, logger)
	if err != nil {
		logger.Error("invalid simulation config", "error", err)
		os.Exit(1)
	}

	if err := driver.Run(ctx); err != nil {
		logger.Error("simulation aborted", "error", err)
		os.Exit(1)
	}

	path, err := driver.WriteResult(cfg.OutputDir, cfg.GridResolution)
	if err != nil {
		logger.Error("failed to write result", "error", err)
		os.Exit(1)
	}
	logger.Info("partition written", "file", path, "cells", hist.Len())
}
