package testutil

import (
	"math/rand"
	"strconv"
	"sync"

	"github.com/hupe1980/bulkmeans/internal/point"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// GridPoints returns n points with integer coordinates in [0, span).
// Sums of integer points are exact in float64, so clusterings of them do
// not depend on summation order.
func (r *RNG) GridPoints(n, span int) []point.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]point.Point, n)
	for i := range out {
		out[i] = point.Point{X: float64(r.rand.Intn(span)), Y: float64(r.rand.Intn(span))}
	}
	return out
}

// ClusteredPoints returns n integer points spread around clusters random
// centers in [0, span), with Gaussian noise of the given spread. Points are
// assigned to centers round-robin.
func (r *RNG) ClusteredPoints(n, clusters, span int, spread float64) []point.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	centers := make([]point.Point, clusters)
	for i := range centers {
		centers[i] = point.Point{X: float64(r.rand.Intn(span)), Y: float64(r.rand.Intn(span))}
	}

	out := make([]point.Point, n)
	for i := range out {
		c := centers[i%clusters]
		out[i] = point.Point{
			X: float64(int(c.X + r.rand.NormFloat64()*spread)),
			Y: float64(int(c.Y + r.rand.NormFloat64()*spread)),
		}
	}
	return out
}

// Text encodes pts as an input file, one "x y" pair per line.
func Text(pts []point.Point) []byte {
	buf := make([]byte, 0, len(pts)*8)
	for _, p := range pts {
		buf = point.Format(buf, p)
		buf = append(buf, '\n')
	}
	return buf
}

// HistoryText renders snapshots the way result files are written.
func HistoryText(snaps [][]point.Point) string {
	var buf []byte
	for it, snap := range snaps {
		for _, c := range snap {
			buf = strconv.AppendInt(buf, int64(it), 10)
			buf = append(buf, ' ')
			buf = point.Format(buf, c)
			buf = append(buf, '\n')
		}
	}
	return string(buf)
}

// ReferenceLloyd runs k-means sequentially over all points, the slow and
// obvious way, and returns one centroid snapshot per executed iteration
// plus the initial one. Labels start at 0; a point only moves to a strictly
// closer centroid, the lowest index winning among equals; empty clusters
// keep their centroid. It stops after the first iteration without a label
// change.
func ReferenceLloyd(pts, initial []point.Point, iterations int) (snaps [][]point.Point, converged bool) {
	k := len(initial)
	cur := append([]point.Point(nil), initial...)
	snaps = append(snaps, append([]point.Point(nil), cur...))
	labels := make([]int, len(pts))

	for it := 0; it < iterations; it++ {
		changed := false
		for i, p := range pts {
			best, bestDist := labels[i], dist(p, cur[labels[i]])
			for j := 0; j < k; j++ {
				if d := dist(p, cur[j]); d < bestDist {
					best, bestDist = j, d
				}
			}
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}

		next := make([]point.Point, k)
		for j := 0; j < k; j++ {
			var sx, sy float64
			var n int
			for i, p := range pts {
				if labels[i] == j {
					sx += p.X
					sy += p.Y
					n++
				}
			}
			if n == 0 {
				next[j] = cur[j]
			} else {
				next[j] = point.Point{X: sx / float64(n), Y: sy / float64(n)}
			}
		}
		cur = next
		snaps = append(snaps, append([]point.Point(nil), cur...))

		if !changed {
			return snaps, true
		}
	}
	return snaps, false
}

func dist(p, q point.Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}
