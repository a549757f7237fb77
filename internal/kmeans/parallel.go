package kmeans

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bulkmeans/internal/history"
	"github.com/hupe1980/bulkmeans/internal/point"
	"github.com/panjf2000/ants/v2"
)

// DefaultBlockSize is the number of logical threads per assignment block.
const DefaultBlockSize = 256

// kernel runs fn(0..n-1) on the pool and returns once every call finished.
func kernel(pool *ants.Pool, n int, fn func(i int)) error {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("kmeans: launch kernel: %w", err)
		}
	}
	wg.Wait()
	return nil
}

// RunDataParallel clusters points in one process using two kernels per
// iteration. The assignment kernel runs one logical thread per point,
// grouped into blocks of blockSize threads, each block executed as one pool
// task. The update kernel runs one logical thread per cluster that sums the
// points carrying its label. Each kernel is fully joined before the next
// phase starts, and convergence is the OR of the per-block changed flags.
//
// When the iteration limit is reached first, one more assignment kernel
// without an update decides Outcome.FixedPoint.
//
// threads bounds the pool size; values below 1 use GOMAXPROCS. blockSize
// below 1 uses DefaultBlockSize.
func RunDataParallel(ctx context.Context, points []point.Point, cfg Config, threads, blockSize int) (*Outcome, error) {
	cfg.Coordinator = 0
	if err := cfg.validate(1); err != nil {
		return nil, err
	}
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}

	pool, err := ants.NewPool(threads)
	if err != nil {
		return nil, fmt.Errorf("kmeans: create pool: %w", err)
	}
	defer pool.Release()

	obs := cfg.observer()

	k := cfg.K
	centroids := cfg.initial()
	hist := history.New(k, cfg.Iterations)
	hist.Record(0, centroids)

	n := len(points)
	blocks := (n + blockSize - 1) / blockSize
	labels := make([]int, n)
	blockChanged := make([]bool, blocks)
	next := make([]point.Point, k)
	emptyFlags := make([]bool, k)

	assign := func(b int) {
		lo := b * blockSize
		hi := min(lo+blockSize, n)
		blockChanged[b] = Assign(points[lo:hi], centroids, labels[lo:hi])
	}

	out := &Outcome{History: hist}
	loopStart := time.Now()
	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()

		err := kernel(pool, blocks, assign)
		if err != nil {
			return nil, err
		}

		err = kernel(pool, k, func(j int) {
			var s ClusterSum
			for i, p := range points {
				if labels[i] == j {
					s.Add(p)
				}
			}
			if m, ok := s.Mean(); ok {
				next[j] = m
				emptyFlags[j] = false
			} else {
				next[j] = centroids[j]
				emptyFlags[j] = true
			}
		})
		if err != nil {
			return nil, err
		}

		copy(centroids, next)
		hist.Record(iter+1, centroids)

		conv := newConvergence()
		for b, changed := range blockChanged {
			conv.observe(b, changed)
		}
		empty := roaring.New()
		for j, e := range emptyFlags {
			if e {
				empty.Add(uint32(j))
			}
		}

		out.Iterations = iter + 1
		out.Converged = conv.done()
		obs.OnIteration(IterationStats{
			Iteration:      iter,
			Changed:        !out.Converged,
			ChangedWorkers: conv.workers(),
			EmptyClusters:  bitmapInts(empty),
			Duration:       time.Since(start),
		})

		if out.Converged {
			break
		}
	}
	out.Elapsed = time.Since(loopStart)

	out.FixedPoint = out.Converged
	if !out.Converged {
		err := kernel(pool, blocks, assign)
		if err != nil {
			return nil, err
		}
		conv := newConvergence()
		for b, changed := range blockChanged {
			conv.observe(b, changed)
		}
		out.FixedPoint = conv.done()
	}

	out.Centroids = append([]point.Point(nil), centroids...)
	return out, nil
}
