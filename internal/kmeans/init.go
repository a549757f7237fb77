package kmeans

import (
	"math/rand"

	"github.com/hupe1980/bulkmeans/internal/point"
)

// DefaultSeed seeds the initial centroid placement.
const DefaultSeed = 1234

// InitialSpan bounds the initial coordinates to [0, InitialSpan).
const InitialSpan = 100

// RandomCentroids places k centroids at integer coordinates drawn uniformly
// from [0, InitialSpan). The same seed always yields the same placement.
// Centroids may coincide.
func RandomCentroids(k int, seed int64) []point.Point {
	rng := rand.New(rand.NewSource(seed))
	out := make([]point.Point, k)
	for i := range out {
		x := rng.Intn(InitialSpan)
		y := rng.Intn(InitialSpan)
		out[i] = point.Point{X: float64(x), Y: float64(y)}
	}
	return out
}
