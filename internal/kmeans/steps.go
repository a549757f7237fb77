package kmeans

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bulkmeans/internal/point"
)

// SquaredDistance is the squared Euclidean distance between p and q.
func SquaredDistance(p, q point.Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Nearest returns the index of the centroid closest to p. The search starts
// from the current label and only a strictly smaller distance moves it, so
// ties keep the current label, and among centroids closer than it the
// lowest index wins.
func Nearest(p point.Point, centroids []point.Point, current int) int {
	best := current
	minDist := SquaredDistance(p, centroids[current])
	for j, c := range centroids {
		if d := SquaredDistance(p, c); d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

// Assign relabels every point with its nearest centroid, using labels as
// the warm start, and reports whether any label changed.
func Assign(points, centroids []point.Point, labels []int) bool {
	changed := false
	for i, p := range points {
		if l := Nearest(p, centroids, labels[i]); l != labels[i] {
			labels[i] = l
			changed = true
		}
	}
	return changed
}

// ClusterSum is the running coordinate sum and size of one cluster.
type ClusterSum struct {
	X, Y  float64
	Count int
}

// Add accumulates one point.
func (s *ClusterSum) Add(p point.Point) {
	s.X += p.X
	s.Y += p.Y
	s.Count++
}

// Merge accumulates another partial sum.
func (s *ClusterSum) Merge(o ClusterSum) {
	s.X += o.X
	s.Y += o.Y
	s.Count += o.Count
}

// Mean returns the centroid of the summed points. ok is false for an empty
// cluster.
func (s ClusterSum) Mean() (point.Point, bool) {
	if s.Count == 0 {
		return point.Point{}, false
	}
	n := float64(s.Count)
	return point.Point{X: s.X / n, Y: s.Y / n}, true
}

// Aggregate holds one ClusterSum per cluster.
type Aggregate []ClusterSum

// NewAggregate returns a zeroed aggregate for k clusters.
func NewAggregate(k int) Aggregate {
	return make(Aggregate, k)
}

// Accumulate recomputes the sums from scratch for the labeled points.
func (a Aggregate) Accumulate(points []point.Point, labels []int) {
	clear(a)
	for i, p := range points {
		a[labels[i]].Add(p)
	}
}

// Merge adds o into a cluster by cluster.
func (a Aggregate) Merge(o Aggregate) {
	for i := range a {
		a[i].Merge(o[i])
	}
}

// Update moves every centroid with a non-empty sum to its mean. Empty
// clusters keep their previous centroid; their indices are returned.
func Update(centroids []point.Point, agg Aggregate) *roaring.Bitmap {
	empty := roaring.New()
	for i, s := range agg {
		if m, ok := s.Mean(); ok {
			centroids[i] = m
		} else {
			empty.Add(uint32(i))
		}
	}
	return empty
}
