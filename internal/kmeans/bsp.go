package kmeans

import (
	"context"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bulkmeans/internal/bsp"
	"github.com/hupe1980/bulkmeans/internal/history"
	"github.com/hupe1980/bulkmeans/internal/point"
)

// LoadFunc loads the points owned by rank out of size workers.
type LoadFunc func(ctx context.Context, rank, size int) ([]point.Point, error)

// convergence collects the changed flags of one iteration at the
// coordinator.
type convergence struct {
	changed *roaring.Bitmap
}

func newConvergence() *convergence {
	return &convergence{changed: roaring.New()}
}

func (c *convergence) reset() {
	c.changed.Clear()
}

func (c *convergence) observe(rank int, changed bool) {
	if changed {
		c.changed.Add(uint32(rank))
	}
}

// done is true when no worker saw a label change.
func (c *convergence) done() bool {
	return c.changed.IsEmpty()
}

func (c *convergence) workers() int {
	return int(c.changed.GetCardinality())
}

// bspState is everything the workers share through the world.
type bspState struct {
	k           int
	coordinator int
	centroids   *bsp.Coarray[point.Point]
	inbox       *bsp.Coarray[ClusterSum] // coordinator only, k slots per rank
	changed     *bsp.Coarray[bool]       // coordinator only, one slot per rank
	stop        *bsp.Var[bool]
	hist        *history.History
	conv        *convergence
	observer    Observer

	// written by the coordinator, read after the world has finished
	iterations int
	converged  bool
	fixedPoint bool
	elapsed    time.Duration
}

// RunBSP clusters the points spread over workers bulk-synchronous workers.
// Each worker loads its own partition through load. Per iteration every
// worker assigns its points and pushes its partial sums and changed flag
// to the coordinator; after a barrier the coordinator merges them, updates
// the centroids, records them, and broadcasts centroids and stop flag to
// every replica; after a second barrier all workers act on the same stop
// flag.
//
// Elapsed covers the iteration loop only. It starts once every worker has
// loaded its points.
//
// A run that stops at the iteration limit takes one more assignment pass
// without an update to tell whether the final centroids are a fixed point.
//
// Any worker error cancels the others and is returned; no outcome is
// produced in that case.
func RunBSP(ctx context.Context, workers int, cfg Config, load LoadFunc) (*Outcome, error) {
	if err := cfg.validate(workers); err != nil {
		return nil, err
	}

	world, err := bsp.NewWorld(workers)
	if err != nil {
		return nil, err
	}

	initial := cfg.initial()
	st := &bspState{
		k:           cfg.K,
		coordinator: cfg.Coordinator,
		centroids:   bsp.NewCoarray[point.Point](world, cfg.K),
		inbox:       bsp.NewCoarray[ClusterSum](world, cfg.K*workers),
		changed:     bsp.NewCoarray[bool](world, workers),
		stop:        bsp.NewVar[bool](world),
		hist:        history.New(cfg.K, cfg.Iterations),
		conv:        newConvergence(),
		observer:    cfg.observer(),
	}
	st.hist.Record(0, initial)

	err = world.Spawn(ctx, func(wk *bsp.Worker) error {
		return st.run(wk, cfg.Iterations, initial, load)
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		History:    st.hist,
		Centroids:  st.hist.Snapshot(st.hist.Written() - 1),
		Iterations: st.iterations,
		Converged:  st.converged,
		FixedPoint: st.converged || st.fixedPoint,
		Elapsed:    st.elapsed,
	}, nil
}

func (st *bspState) run(wk *bsp.Worker, iterations int, initial []point.Point, load LoadFunc) error {
	pts, err := load(wk.Context(), wk.Rank(), wk.Size())
	if err != nil {
		return err
	}

	copy(st.centroids.Local(wk), initial)
	labels := make([]int, len(pts))
	local := NewAggregate(st.k)
	base := wk.Rank() * st.k
	coord := wk.Rank() == st.coordinator

	if err := wk.Sync(); err != nil {
		return err
	}
	var start time.Time
	if coord {
		start = time.Now()
	}

	stopped := false
	for iter := 0; iter < iterations; iter++ {
		iterStart := time.Now()

		changed := Assign(pts, st.centroids.Local(wk), labels)
		local.Accumulate(pts, labels)
		for j, s := range local {
			st.inbox.Put(st.coordinator, base+j, s)
		}
		st.changed.Put(st.coordinator, wk.Rank(), changed)

		if err := wk.Sync(); err != nil {
			return err
		}

		if coord {
			st.reduce(wk, iter, iterStart)
		}

		if err := wk.Sync(); err != nil {
			return err
		}

		if st.stop.Value(wk) {
			stopped = true
			break
		}
	}
	if coord {
		st.elapsed = time.Since(start)
	}
	if stopped {
		return nil
	}

	st.changed.Put(st.coordinator, wk.Rank(), Assign(pts, st.centroids.Local(wk), labels))
	if err := wk.Sync(); err != nil {
		return err
	}
	if coord {
		st.conv.reset()
		for r, changed := range st.changed.Local(wk) {
			st.conv.observe(r, changed)
		}
		st.fixedPoint = st.conv.done()
	}
	return nil
}

// reduce is the coordinator's half superstep.
func (st *bspState) reduce(wk *bsp.Worker, iter int, start time.Time) {
	agg := NewAggregate(st.k)
	inbox := st.inbox.Local(wk)
	for r := 0; r < wk.Size(); r++ {
		agg.Merge(Aggregate(inbox[r*st.k : (r+1)*st.k]))
	}

	st.conv.reset()
	for r, changed := range st.changed.Local(wk) {
		st.conv.observe(r, changed)
	}

	cur := st.centroids.Local(wk)
	empty := Update(cur, agg)
	st.hist.Record(iter+1, cur)
	for r := 0; r < wk.Size(); r++ {
		if r != wk.Rank() {
			st.centroids.PutAll(r, cur)
		}
	}

	done := st.conv.done()
	st.stop.Broadcast(done)
	st.iterations = iter + 1
	st.converged = done

	st.observer.OnIteration(IterationStats{
		Iteration:      iter,
		Changed:        !done,
		ChangedWorkers: st.conv.workers(),
		EmptyClusters:  bitmapInts(empty),
		Duration:       time.Since(start),
	})
}

func bitmapInts(b *roaring.Bitmap) []int {
	if b.IsEmpty() {
		return nil
	}
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
