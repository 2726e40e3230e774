// Package coverage accumulates per-cell visit counts across a simulation and
// persists them in the plain-text partition format `<cellId>,<count>`.
package coverage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/uber/h3-go/v4"

	"github.com/star/covergrid/internal/footprint"
)

// Histogram counts, per grid cell, how many simulated time steps had at
// least one satellite covering the cell. It is owned by a single partition
// run; partitions never share a Histogram.
type Histogram struct {
	counts map[h3.Cell]int
}

// NewHistogram returns an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{counts: make(map[h3.Cell]int)}
}

// Accumulate increments every cell present in set by exactly one. It must be
// called once per simulated time step with the union of all satellites' cell
// sets for that step; a cell then gains at most one count per step no matter
// how many satellites saw it.
func (h *Histogram) Accumulate(set footprint.CellSet) {
	for cell := range set {
		h.counts[cell]++
	}
}

// Count returns the visit count for cell, zero if never visited or seeded.
func (h *Histogram) Count(cell h3.Cell) int { return h.counts[cell] }

// Len returns the number of tracked cells, including zero-count seeds.
func (h *Histogram) Len() int { return len(h.counts) }

// Merge adds every count of other into h. Merging is commutative and
// associative, so per-partition histograms combine in any order into the
// same global result.
func (h *Histogram) Merge(other *Histogram) {
	for cell, n := range other.counts {
		h.counts[cell] += n
	}
}

// Seed pre-populates zero counts from a cell list, one hex H3 index per
// line. Blank lines are skipped; an unparseable index is an error, since a
// partial seed would silently change which cells appear in the output.
func (h *Histogram) Seed(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		cell := h3.Cell(h3.IndexFromString(tok))
		if !cell.IsValid() {
			return fmt.Errorf("seed line %d: invalid cell id %q", line, tok)
		}
		if _, ok := h.counts[cell]; !ok {
			h.counts[cell] = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading seed list: %w", err)
	}
	return nil
}

// WriteTo writes one `<cellId>,<count>` line per tracked cell, sorted by
// cell ID. Line order carries no meaning; sorting keeps partition outputs
// diffable.
func (h *Histogram) WriteTo(w io.Writer) (int64, error) {
	cells := make([]h3.Cell, 0, len(h.counts))
	for cell := range h.counts {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })

	var written int64
	for _, cell := range cells {
		n, err := fmt.Fprintf(w, "%s,%d\n", cell.String(), h.counts[cell])
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Read parses `<cellId>,<count>` lines into h, summing into any counts
// already present so a file can be read on top of seeds or merged data.
func (h *Histogram) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		id, countStr, ok := strings.Cut(tok, ",")
		if !ok {
			return fmt.Errorf("line %d: expected <cellId>,<count>, got %q", line, tok)
		}
		cell := h3.Cell(h3.IndexFromString(id))
		if !cell.IsValid() {
			return fmt.Errorf("line %d: invalid cell id %q", line, id)
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 0 {
			return fmt.Errorf("line %d: invalid count %q", line, countStr)
		}
		h.counts[cell] += count
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading histogram: %w", err)
	}
	return nil
}

// SeedFile pre-populates zero counts from a cell list file, one hex H3
// index per line.
func (h *Histogram) SeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return h.Seed(f)
}

// WriteFile persists the histogram to path.
func (h *Histogram) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating histogram file: %w", err)
	}
	w := bufio.NewWriter(f)
	if _, err := h.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("writing histogram file: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing histogram file: %w", err)
	}
	return f.Close()
}

// ReadFile loads a persisted histogram from path into h.
func (h *Histogram) ReadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening histogram file: %w", err)
	}
	defer f.Close()
	return h.Read(f)
}

// PartitionFilename names one partition's output file,
// e.g. h3_4_cov_2.txt for resolution 4, partition 2.
func PartitionFilename(resolution, partition int) string {
	return fmt.Sprintf("h3_%d_cov_%d.txt", resolution, partition)
}
