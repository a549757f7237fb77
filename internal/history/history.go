// Package history records the centroid snapshot of every iteration and
// reads and writes it in the `<iteration> <x> <y>` text format.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/bulkmeans/internal/point"
)

// ErrMalformed is returned by Read for lines that do not parse or that are
// out of iteration-major, cluster-minor order.
var ErrMalformed = errors.New("history: malformed result")

// History holds iterations+1 snapshots of k centroids. Snapshot 0 is the
// initial placement; unwritten snapshots hold point.Sentinel.
type History struct {
	k          int
	iterations int
	snaps      []point.Point
	written    []bool
}

// New allocates a history for k centroids and at most iterations updates.
func New(k, iterations int) *History {
	snaps := make([]point.Point, (iterations+1)*k)
	for i := range snaps {
		snaps[i] = point.Sentinel
	}
	return &History{
		k:          k,
		iterations: iterations,
		snaps:      snaps,
		written:    make([]bool, iterations+1),
	}
}

// K returns the number of centroids per snapshot.
func (h *History) K() int { return h.k }

// Len returns the number of snapshots, iterations+1.
func (h *History) Len() int { return h.iterations + 1 }

// Record stores the centroids after iteration iter (0 for the initial set).
func (h *History) Record(iter int, centroids []point.Point) {
	if iter < 0 || iter > h.iterations {
		panic(fmt.Sprintf("history: iteration %d out of range [0,%d]", iter, h.iterations))
	}
	if len(centroids) != h.k {
		panic(fmt.Sprintf("history: got %d centroids, want %d", len(centroids), h.k))
	}
	copy(h.snaps[iter*h.k:(iter+1)*h.k], centroids)
	h.written[iter] = true
}

// Snapshot returns a copy of snapshot iter.
func (h *History) Snapshot(iter int) []point.Point {
	out := make([]point.Point, h.k)
	copy(out, h.snaps[iter*h.k:(iter+1)*h.k])
	return out
}

// Written returns the number of recorded snapshots. Runs stop early by
// leaving a sentinel tail, so this is also the index of the first
// unwritten snapshot.
func (h *History) Written() int {
	n := 0
	for n < len(h.written) && h.written[n] {
		n++
	}
	return n
}

// Last returns the most recent recorded snapshot, nil if none.
func (h *History) Last() []point.Point {
	n := h.Written()
	if n == 0 {
		return nil
	}
	return h.Snapshot(n - 1)
}

// WriteTo writes one `<iteration> <x> <y>` line per centroid, iteration-major.
func (h *History) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	buf := make([]byte, 0, 64)
	for it := 0; it <= h.iterations; it++ {
		for c := 0; c < h.k; c++ {
			buf = strconv.AppendInt(buf[:0], int64(it), 10)
			buf = append(buf, ' ')
			buf = point.Format(buf, h.snaps[it*h.k+c])
			buf = append(buf, '\n')
			n, err := bw.Write(buf)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, bw.Flush()
}

// Read parses a result written by WriteTo. k is inferred from the number of
// iteration 0 lines. A snapshot whose centroids are all the sentinel is
// treated as unwritten.
func Read(r io.Reader) (*History, error) {
	sc := bufio.NewScanner(r)
	var (
		iters []int
		pts   []point.Point
	)
	for line := 1; sc.Scan(); line++ {
		var (
			it   int
			x, y float64
		)
		if len(sc.Bytes()) == 0 {
			continue
		}
		if _, err := fmt.Sscan(sc.Text(), &it, &x, &y); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		iters = append(iters, it)
		pts = append(pts, point.Point{X: x, Y: y})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}

	k := 0
	for k < len(iters) && iters[k] == 0 {
		k++
	}
	if k == 0 || len(pts)%k != 0 {
		return nil, fmt.Errorf("%w: %d lines do not form snapshots of %d centroids", ErrMalformed, len(pts), k)
	}
	h := New(k, len(pts)/k-1)
	for i, it := range iters {
		if it != i/k {
			return nil, fmt.Errorf("%w: line %d has iteration %d, want %d", ErrMalformed, i+1, it, i/k)
		}
	}
	for it := 0; it < h.Len(); it++ {
		snap := pts[it*k : (it+1)*k]
		if !allSentinel(snap) {
			h.Record(it, snap)
		}
	}
	return h, nil
}

func allSentinel(ps []point.Point) bool {
	for _, p := range ps {
		if p != point.Sentinel {
			return false
		}
	}
	return true
}
