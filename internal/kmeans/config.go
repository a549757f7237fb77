package kmeans

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/bulkmeans/internal/history"
	"github.com/hupe1980/bulkmeans/internal/point"
)

// ErrInvalidConfig is returned for a configuration no run can satisfy.
var ErrInvalidConfig = errors.New("kmeans: invalid config")

// Config describes one clustering run.
type Config struct {
	// K is the number of clusters.
	K int
	// Iterations caps the number of assignment/update rounds.
	Iterations int
	// Initial overrides the seeded centroid placement when non-nil.
	Initial []point.Point
	// Seed drives RandomCentroids when Initial is nil.
	Seed int64
	// Coordinator is the rank that reduces sums and decides convergence.
	// Only used by RunBSP.
	Coordinator int
	// Observer receives per-iteration events. May be nil.
	Observer Observer
}

func (c *Config) validate(workers int) error {
	switch {
	case c.K < 1:
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, c.K)
	case c.Iterations < 0:
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalidConfig, c.Iterations)
	case workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, workers)
	case c.Coordinator < 0 || c.Coordinator >= workers:
		return fmt.Errorf("%w: coordinator %d outside [0,%d)", ErrInvalidConfig, c.Coordinator, workers)
	case c.Initial != nil && len(c.Initial) != c.K:
		return fmt.Errorf("%w: %d initial centroids for k=%d", ErrInvalidConfig, len(c.Initial), c.K)
	}
	return nil
}

func (c *Config) initial() []point.Point {
	if c.Initial != nil {
		return append([]point.Point(nil), c.Initial...)
	}
	return RandomCentroids(c.K, c.Seed)
}

func (c *Config) observer() Observer {
	if c.Observer == nil {
		return NoopObserver{}
	}
	return c.Observer
}

// IterationStats describes one completed iteration.
type IterationStats struct {
	// Iteration is zero-based; its centroids are history entry Iteration+1.
	Iteration int
	// Changed reports whether any point moved to another cluster.
	Changed bool
	// ChangedWorkers counts the workers (or blocks) that saw a label change.
	ChangedWorkers int
	// EmptyClusters lists the clusters that kept their previous centroid.
	EmptyClusters []int
	Duration      time.Duration
}

// Observer receives one event per completed iteration, always from a
// single goroutine.
type Observer interface {
	OnIteration(IterationStats)
}

// NoopObserver discards all events.
type NoopObserver struct{}

// OnIteration implements Observer.
func (NoopObserver) OnIteration(IterationStats) {}

// Outcome is the result of a run.
type Outcome struct {
	History *history.History
	// Centroids is the final centroid set.
	Centroids []point.Point
	// Iterations is the number of iterations executed.
	Iterations int
	// Converged is true when an iteration finished with no label change.
	Converged bool
	// FixedPoint is true when one more iteration would change no label. It
	// is implied by Converged and may also hold when the iteration limit
	// stopped the run.
	FixedPoint bool
	// Elapsed is the time spent in the iteration loop, excluding loads.
	Elapsed time.Duration
}
