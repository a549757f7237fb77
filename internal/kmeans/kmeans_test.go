package kmeans

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/bulkmeans/internal/point"
	"github.com/hupe1980/bulkmeans/internal/pointstore"
	"github.com/hupe1980/bulkmeans/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

var fourPoints = []point.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 10, Y: 10}, {X: 10, Y: 11}}

func sliceLoader(pts []point.Point) LoadFunc {
	src := pointstore.SliceSource(pts)
	return func(ctx context.Context, rank, size int) ([]point.Point, error) {
		return src.Load(ctx, pointstore.Block(len(pts), size, rank))
	}
}

func TestNearest_TieBreak(t *testing.T) {
	tests := []struct {
		name      string
		p         point.Point
		centroids []point.Point
		current   int
		want      int
	}{
		{"tie keeps fresh label", point.Point{X: 5}, []point.Point{{X: 0}, {X: 10}}, 0, 0},
		{"tie keeps previous label", point.Point{X: 5}, []point.Point{{X: 0}, {X: 10}}, 1, 1},
		{"lowest closer index wins", point.Point{}, []point.Point{{X: 10}, {}, {}}, 0, 1},
		{"strictly closer moves", point.Point{X: 9}, []point.Point{{X: 0}, {X: 10}}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Nearest(tt.p, tt.centroids, tt.current))
		})
	}
}

func TestAssign_ReportsChange(t *testing.T) {
	centroids := []point.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}
	labels := make([]int, len(fourPoints))

	assert.True(t, Assign(fourPoints, centroids, labels))
	assert.Equal(t, []int{0, 0, 1, 1}, labels)
	assert.False(t, Assign(fourPoints, centroids, labels))
}

func TestAggregate_MergeAndUpdate(t *testing.T) {
	labels := []int{0, 0, 1, 1}
	a := NewAggregate(3)
	a.Accumulate(fourPoints[:2], labels[:2])
	b := NewAggregate(3)
	b.Accumulate(fourPoints[2:], labels[2:])
	a.Merge(b)

	assert.Equal(t, ClusterSum{X: 0, Y: 1, Count: 2}, a[0])
	assert.Equal(t, ClusterSum{X: 20, Y: 21, Count: 2}, a[1])

	centroids := []point.Point{{}, {}, {X: 42, Y: 7}}
	empty := Update(centroids, a)
	assert.Equal(t, []point.Point{{X: 0, Y: 0.5}, {X: 10, Y: 10.5}, {X: 42, Y: 7}}, centroids)
	assert.Equal(t, []uint32{2}, empty.ToArray())

	// Accumulate starts over.
	a.Accumulate(fourPoints[:1], labels[:1])
	assert.Equal(t, ClusterSum{Count: 1}, a[0])
	assert.Equal(t, ClusterSum{}, a[1])
}

func TestRandomCentroids(t *testing.T) {
	a := RandomCentroids(5, DefaultSeed)
	b := RandomCentroids(5, DefaultSeed)
	require.Len(t, a, 5)
	assert.Equal(t, a, b)
	for _, c := range a {
		assert.GreaterOrEqual(t, c.X, 0.0)
		assert.Less(t, c.X, float64(InitialSpan))
		assert.GreaterOrEqual(t, c.Y, 0.0)
		assert.Less(t, c.Y, float64(InitialSpan))
		assert.Equal(t, c.X, float64(int(c.X)))
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		workers int
	}{
		{"zero k", Config{K: 0, Iterations: 1}, 1},
		{"negative iterations", Config{K: 1, Iterations: -1}, 1},
		{"no workers", Config{K: 1, Iterations: 1}, 0},
		{"coordinator out of range", Config{K: 1, Iterations: 1, Coordinator: 2}, 2},
		{"initial count mismatch", Config{K: 2, Iterations: 1, Initial: []point.Point{{}}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunBSP(context.Background(), tt.workers, tt.cfg, sliceLoader(fourPoints))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRunBSP_FourPoints(t *testing.T) {
	initial := []point.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}
	fixed := []point.Point{{X: 0, Y: 0.5}, {X: 10, Y: 10.5}}

	t.Run("converges at second iteration", func(t *testing.T) {
		out, err := RunBSP(context.Background(), 2, Config{K: 2, Iterations: 5, Initial: initial}, sliceLoader(fourPoints))
		require.NoError(t, err)

		assert.True(t, out.Converged)
		assert.True(t, out.FixedPoint)
		assert.Equal(t, 2, out.Iterations)
		assert.Equal(t, fixed, out.Centroids)
		assert.Equal(t, initial, out.History.Snapshot(0))
		assert.Equal(t, fixed, out.History.Snapshot(1))
		assert.Equal(t, fixed, out.History.Snapshot(2))
		assert.Equal(t, 3, out.History.Written())
		for it := 3; it <= 5; it++ {
			assert.Equal(t, []point.Point{point.Sentinel, point.Sentinel}, out.History.Snapshot(it))
		}
	})

	t.Run("single iteration reaches fixed point", func(t *testing.T) {
		out, err := RunBSP(context.Background(), 2, Config{K: 2, Iterations: 1, Initial: initial}, sliceLoader(fourPoints))
		require.NoError(t, err)

		assert.False(t, out.Converged)
		assert.True(t, out.FixedPoint)
		assert.Equal(t, 1, out.Iterations)
		assert.Equal(t, fixed, out.Centroids)
		assert.Equal(t, 2, out.History.Len())
	})

	t.Run("zero iterations", func(t *testing.T) {
		out, err := RunBSP(context.Background(), 2, Config{K: 2, Iterations: 0, Initial: initial}, sliceLoader(fourPoints))
		require.NoError(t, err)

		assert.Equal(t, 0, out.Iterations)
		assert.False(t, out.FixedPoint)
		assert.Equal(t, initial, out.Centroids)
		assert.Equal(t, 1, out.History.Len())
	})
}

func TestRun_TwoColumns(t *testing.T) {
	pts := []point.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 10, Y: 0}, {X: 10, Y: 1}}
	initial := []point.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
	fixed := []point.Point{{X: 0, Y: 0.5}, {X: 10, Y: 0.5}}

	tests := []struct {
		name       string
		iterations int
		converged  bool
		executed   int
	}{
		{"one iteration", 1, false, 1},
		{"two iterations", 2, true, 2},
		{"twenty iterations", 20, true, 2},
	}
	for _, tt := range tests {
		cfg := Config{K: 2, Iterations: tt.iterations, Initial: initial}
		check := func(t *testing.T, out *Outcome) {
			assert.Equal(t, fixed, out.Centroids)
			assert.Equal(t, tt.converged, out.Converged)
			assert.True(t, out.FixedPoint)
			assert.Equal(t, tt.executed, out.Iterations)
			assert.Equal(t, fixed, out.History.Snapshot(1))
		}

		for _, workers := range []int{1, 2, 3, 4, 7} {
			t.Run(fmt.Sprintf("%s/bsp-%d", tt.name, workers), func(t *testing.T) {
				out, err := RunBSP(context.Background(), workers, cfg, sliceLoader(pts))
				require.NoError(t, err)
				check(t, out)
			})
		}
		t.Run(tt.name+"/data-parallel", func(t *testing.T) {
			out, err := RunDataParallel(context.Background(), pts, cfg, 2, 1)
			require.NoError(t, err)
			check(t, out)
		})
	}
}

func TestRunBSP_EmptyClusterKeepsCentroid(t *testing.T) {
	initial := []point.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 100, Y: 100}}
	obs := &recordingObserver{}

	out, err := RunBSP(context.Background(), 3, Config{K: 3, Iterations: 5, Initial: initial, Observer: obs}, sliceLoader(fourPoints))
	require.NoError(t, err)

	assert.True(t, out.Converged)
	assert.Equal(t, point.Point{X: 100, Y: 100}, out.Centroids[2])
	for it := 0; it < out.History.Written(); it++ {
		assert.Equal(t, point.Point{X: 100, Y: 100}, out.History.Snapshot(it)[2])
	}
	require.NotEmpty(t, obs.iterations)
	for _, s := range obs.iterations {
		assert.Equal(t, []int{2}, s.EmptyClusters)
	}
}

func TestRunBSP_MeanConsistency(t *testing.T) {
	pts := testutil.NewRNG(7).GridPoints(200, 100)
	out, err := RunBSP(context.Background(), 4, Config{K: 4, Iterations: 100, Seed: DefaultSeed}, sliceLoader(pts))
	require.NoError(t, err)
	require.True(t, out.Converged)

	labels := make([]int, len(pts))
	for i, p := range pts {
		labels[i] = Nearest(p, out.Centroids, 0)
	}
	for j, c := range out.Centroids {
		var xs, ys []float64
		for i, p := range pts {
			if labels[i] == j {
				xs = append(xs, p.X)
				ys = append(ys, p.Y)
			}
		}
		if len(xs) == 0 {
			continue
		}
		assert.InDelta(t, stat.Mean(xs, nil), c.X, 1e-9, "cluster %d", j)
		assert.InDelta(t, stat.Mean(ys, nil), c.Y, 1e-9, "cluster %d", j)
	}
}

func TestRun_PartitionInvariance(t *testing.T) {
	pts := testutil.NewRNG(42).GridPoints(103, 100)
	cfg := Config{K: 4, Iterations: 20, Seed: DefaultSeed}

	ref, err := RunBSP(context.Background(), 1, cfg, sliceLoader(pts))
	require.NoError(t, err)

	for _, p := range []int{2, 3, 7, 103, 150} {
		out, err := RunBSP(context.Background(), p, cfg, sliceLoader(pts))
		require.NoError(t, err, "p=%d", p)
		assert.Equal(t, ref.Iterations, out.Iterations, "p=%d", p)
		assert.Equal(t, ref.FixedPoint, out.FixedPoint, "p=%d", p)
		for it := 0; it < ref.History.Len(); it++ {
			assert.Equal(t, ref.History.Snapshot(it), out.History.Snapshot(it), "p=%d iteration %d", p, it)
		}
	}

	coord := cfg
	coord.Coordinator = 2
	out, err := RunBSP(context.Background(), 3, coord, sliceLoader(pts))
	require.NoError(t, err)
	assert.Equal(t, ref.Centroids, out.Centroids)

	for _, bs := range []int{1, 16, 1000} {
		dp, err := RunDataParallel(context.Background(), pts, cfg, 4, bs)
		require.NoError(t, err, "block size %d", bs)
		assert.Equal(t, ref.Iterations, dp.Iterations)
		assert.Equal(t, ref.Converged, dp.Converged)
		for it := 0; it < ref.History.Len(); it++ {
			assert.Equal(t, ref.History.Snapshot(it), dp.History.Snapshot(it), "block size %d iteration %d", bs, it)
		}
	}
}

func TestRun_MatchesReference(t *testing.T) {
	pts := testutil.NewRNG(3).ClusteredPoints(300, 5, 200, 8)
	initial := RandomCentroids(5, DefaultSeed)
	want, converged := testutil.ReferenceLloyd(pts, initial, 40)

	check := func(t *testing.T, out *Outcome) {
		assert.Equal(t, converged, out.Converged)
		assert.Equal(t, len(want)-1, out.Iterations)
		assert.Equal(t, len(want), out.History.Written())
		for it, snap := range want {
			assert.Equal(t, snap, out.History.Snapshot(it), "iteration %d", it)
		}
	}

	t.Run("bsp", func(t *testing.T) {
		out, err := RunBSP(context.Background(), 6, Config{K: 5, Iterations: 40, Initial: initial}, sliceLoader(pts))
		require.NoError(t, err)
		check(t, out)
	})
	t.Run("data-parallel", func(t *testing.T) {
		out, err := RunDataParallel(context.Background(), pts, Config{K: 5, Iterations: 40, Initial: initial}, 4, 64)
		require.NoError(t, err)
		check(t, out)
	})
}

func TestRunBSP_LoadFailureCancelsAll(t *testing.T) {
	errBoom := errors.New("boom")
	load := func(ctx context.Context, rank, size int) ([]point.Point, error) {
		if rank == 2 {
			return nil, errBoom
		}
		return sliceLoader(fourPoints)(ctx, rank, size)
	}

	out, err := RunBSP(context.Background(), 4, Config{K: 2, Iterations: 10}, load)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, out)
}

func TestRunBSP_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunBSP(ctx, 2, Config{K: 2, Iterations: 10}, sliceLoader(fourPoints))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDataParallel_FourPoints(t *testing.T) {
	obs := &recordingObserver{}
	initial := []point.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 100, Y: 100}}

	out, err := RunDataParallel(context.Background(), fourPoints, Config{K: 3, Iterations: 5, Initial: initial, Observer: obs}, 2, 1)
	require.NoError(t, err)

	assert.True(t, out.Converged)
	assert.Equal(t, 2, out.Iterations)
	assert.Equal(t, []point.Point{{X: 0, Y: 0.5}, {X: 10, Y: 10.5}, {X: 100, Y: 100}}, out.Centroids)
	require.Len(t, obs.iterations, 2)
	assert.Equal(t, 2, obs.iterations[0].ChangedWorkers)
	assert.True(t, obs.iterations[0].Changed)
	assert.False(t, obs.iterations[1].Changed)
}

func TestRunDataParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunDataParallel(ctx, fourPoints, Config{K: 2, Iterations: 3}, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingObserver struct {
	mu         sync.Mutex
	iterations []IterationStats
}

func (o *recordingObserver) OnIteration(s IterationStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.iterations = append(o.iterations, s)
}
