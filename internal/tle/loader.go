package tle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LoadConfig controls catalog acquisition.
type LoadConfig struct {
	SourceURL   string
	ExtraURLs   []string
	CacheDir    string
	MaxFiles    int
	EnableFetch bool
}

// Load acquires a TLE catalog for a simulation run: fetch from the network
// when enabled, falling back to the newest cached file when the fetch fails
// or fetching is disabled. A successful fetch is written back to the cache.
//
// A catalog is loaded exactly once per run; there is no refresh loop.
func Load(ctx context.Context, cfg LoadConfig, logger *slog.Logger) (*Catalog, error) {
	var (
		data      []byte
		source    string
		fetchedAt time.Time
	)

	if cfg.EnableFetch {
		fetcher := NewFetcher(cfg.SourceURL, logger, cfg.ExtraURLs...)
		fetched, err := fetcher.Fetch(ctx)
		if err != nil {
			logger.Warn("TLE fetch failed, trying cache", "url", fetcher.SourceURL(), "error", err)
		} else {
			data = fetched
			source = fetcher.SourceURL()
			fetchedAt = time.Now().UTC()
			cache := NewCache(cfg.CacheDir, cfg.MaxFiles)
			if err := cache.Write(data, fetchedAt); err != nil {
				logger.Warn("failed to cache TLE data", "error", err)
			}
		}
	}

	if data == nil {
		cache := NewCache(cfg.CacheDir, cfg.MaxFiles)
		cached, ts, err := cache.LoadLatest()
		if err != nil {
			return nil, fmt.Errorf("no TLE data available (fetch disabled or failed, cache empty): %w", err)
		}
		data = cached
		source = "cache"
		fetchedAt = ts
		logger.Info("loaded TLE data from cache", "cached_at", ts.UTC().Format(time.RFC3339))
	}

	entries, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("parsing TLE catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("TLE catalog from %s contained no usable entries", source)
	}

	logger.Info("TLE catalog loaded", "source", source, "satellites", len(entries))

	return &Catalog{
		Source:     source,
		FetchedAt:  fetchedAt,
		Satellites: entries,
	}, nil
}
