package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads 3-line NORAD TLE format from r and returns parsed entries.
// Malformed entries are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]TLEEntry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []TLEEntry
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Try to find the next valid triplet.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		entry, err := parseEntry(name, line1, line2)
		if err != nil {
			logger.Warn("skipping TLE entry", "name", name, "error", err)
			i += 3
			continue
		}

		entries = append(entries, entry)
		i += 3
	}

	return entries, nil
}

// parseEntry extracts the fields the coverage pipeline needs from one TLE
// triplet: NORAD ID and epoch from line 1, mean motion and eccentricity
// from line 2.
func parseEntry(name, line1, line2 string) (TLEEntry, error) {
	if len(line1) < 32 {
		return TLEEntry{}, fmt.Errorf("line1 too short (%d chars)", len(line1))
	}
	if len(line2) < 63 {
		return TLEEntry{}, fmt.Errorf("line2 too short (%d chars)", len(line2))
	}

	// NORAD ID: line 1 cols 3-7.
	noradID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid NORAD ID %q", strings.TrimSpace(line1[2:7]))
	}

	// Epoch: line 1 cols 19-32, YYDDD.DDDDDDDD.
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid epoch: %w", err)
	}

	// Eccentricity: line 2 cols 27-33, leading decimal point assumed.
	ecc, err := strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid eccentricity %q", strings.TrimSpace(line2[26:33]))
	}

	// Mean motion: line 2 cols 53-63, revolutions per day.
	meanMotion, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil || meanMotion <= 0 {
		return TLEEntry{}, fmt.Errorf("invalid mean motion %q", strings.TrimSpace(line2[52:63]))
	}

	return TLEEntry{
		NORADID:      noradID,
		Name:         strings.TrimSpace(name),
		Epoch:        epoch,
		Line1:        line1,
		Line2:        line2,
		MeanMotion:   meanMotion,
		Eccentricity: ecc,
	}, nil
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to
// time.Time. Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// Start of the year plus fractional days; day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
