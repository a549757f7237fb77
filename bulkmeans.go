package bulkmeans

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hupe1980/bulkmeans/blobstore"
	"github.com/hupe1980/bulkmeans/internal/history"
	"github.com/hupe1980/bulkmeans/internal/kmeans"
	"github.com/hupe1980/bulkmeans/internal/point"
	"github.com/hupe1980/bulkmeans/internal/pointstore"
	"github.com/hupe1980/bulkmeans/resource"
)

type (
	// Point is a 2-D point.
	Point = point.Point
	// Slice is a contiguous range of the global point sequence.
	Slice = pointstore.Slice
	// Source yields the points of one slice.
	Source = pointstore.Source
	// History holds one centroid snapshot per iteration.
	History = history.History
)

// Sentinel fills history snapshots of iterations that never ran.
var Sentinel = point.Sentinel

// FromBlob returns a Source reading whitespace separated "x y" pairs from
// the named blob.
func FromBlob(store blobstore.BlobStore, name string) Source {
	return &pointstore.BlobSource{Store: store, Name: name}
}

// FromPoints returns a Source serving pts.
func FromPoints(pts []Point) Source {
	return pointstore.SliceSource(pts)
}

// Mode selects the execution model.
type Mode int

const (
	// ModeBSP runs p bulk-synchronous workers, each owning a block of points.
	ModeBSP Mode = iota
	// ModeDataParallel runs assignment and update kernels on a goroutine pool.
	ModeDataParallel
)

func (m Mode) String() string {
	switch m {
	case ModeBSP:
		return "bsp"
	case ModeDataParallel:
		return "data-parallel"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "bsp", "":
		return ModeBSP, nil
	case "data-parallel", "dataparallel", "gpu":
		return ModeDataParallel, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// State is how a run ended.
type State int

const (
	// StateConverged means an iteration finished with no label change.
	StateConverged State = iota
	// StateMaxIterationsReached means the iteration cap was hit first.
	StateMaxIterationsReached
)

func (s State) String() string {
	switch s {
	case StateConverged:
		return "converged"
	case StateMaxIterationsReached:
		return "max_iterations_reached"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of a successful run.
type Result struct {
	Mode          Mode
	Workers       int
	Points        int
	K             int
	MaxIterations int

	History *History
	// Centroids is the final centroid set.
	Centroids []Point
	// Iterations is the number of iterations executed.
	Iterations int
	State      State
	// FixedPoint reports whether one more iteration would change no label.
	// It also holds for some runs that hit the iteration limit.
	FixedPoint bool
	// EmptyClusters lists the clusters left empty by the last iteration.
	EmptyClusters []int
	// Elapsed is the wall time of the whole run including loads.
	Elapsed time.Duration
	// ClusteringTime is the time spent iterating once all points are loaded.
	ClusteringTime time.Duration
}

// Converged reports whether the run reached a fixed point.
func (r *Result) Converged() bool {
	return r.State == StateConverged
}

// runObserver forwards iteration events to the logger and metrics.
type runObserver struct {
	ctx       context.Context
	logger    *Logger
	metrics   MetricsCollector
	lastEmpty []int
}

func (o *runObserver) OnIteration(s kmeans.IterationStats) {
	o.logger.LogIteration(o.ctx, s)
	o.logger.LogEmptyClusters(o.ctx, s.Iteration, s.EmptyClusters)
	o.metrics.RecordIteration(s.Changed, len(s.EmptyClusters), s.Duration)
	o.lastEmpty = s.EmptyClusters
}

// Run clusters the first n points of src.
//
// In ModeBSP each worker loads only its own block of [0,n) from src. In
// ModeDataParallel all n points are loaded once. Either way the run fails
// without a result if src holds fewer than n points.
func Run(ctx context.Context, src Source, n int, optFns ...Option) (*Result, error) {
	o := applyOptions(optFns)
	logger := o.logger.WithMode(o.mode).WithWorkers(o.workers).WithK(o.k)

	res, err := run(ctx, src, n, o, logger)
	if err != nil {
		err = translateError(err)
		logger.LogRun(ctx, nil, err)
		o.metricsCollector.RecordRun(0, false, 0, err)
		return nil, err
	}

	logger.LogRun(ctx, res, nil)
	o.metricsCollector.RecordRun(res.Iterations, res.Converged(), res.Elapsed, nil)
	return res, nil
}

func run(ctx context.Context, src Source, n int, o options, logger *Logger) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidConfig)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: number of points must be positive, got %d", ErrInvalidConfig, n)
	}

	// Workers keep their points for the whole run, so a limit below the
	// total would leave some workers waiting on memory that is never freed.
	if limit := o.resources.MemoryLimit(); limit > 0 && int64(n)*pointstore.PointBytes > limit {
		return nil, fmt.Errorf("%w: %d points need %d bytes: %w",
			ErrInvalidConfig, n, int64(n)*pointstore.PointBytes, resource.ErrMemoryLimit)
	}

	if bs, ok := src.(*pointstore.BlobSource); ok && bs.Resources == nil && o.resources != nil {
		withResources := *bs
		withResources.Resources = o.resources
		src = &withResources
	}

	obs := &runObserver{ctx: ctx, logger: logger, metrics: o.metricsCollector}
	cfg := kmeans.Config{
		K:           o.k,
		Iterations:  o.iterations,
		Initial:     o.initial,
		Seed:        o.seed,
		Coordinator: o.coordinator,
		Observer:    obs,
	}

	load := func(ctx context.Context, rank int, s Slice) ([]Point, error) {
		start := time.Now()
		pts, err := src.Load(ctx, s)
		err = exhausted(rank, err)
		logger.LogLoad(ctx, rank, s, err)
		o.metricsCollector.RecordLoad(len(pts), time.Since(start), err)
		return pts, err
	}

	start := time.Now()
	var (
		out    *kmeans.Outcome
		err    error
		loaded []Slice
	)
	switch o.mode {
	case ModeBSP:
		if o.workers < 1 {
			return nil, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, o.workers)
		}
		ok := make([]bool, o.workers)
		out, err = kmeans.RunBSP(ctx, o.workers, cfg, func(ctx context.Context, rank, size int) ([]Point, error) {
			pts, err := load(ctx, rank, pointstore.Block(n, size, rank))
			ok[rank] = err == nil
			return pts, err
		})
		for rank, s := range pointstore.Partition(n, o.workers) {
			if ok[rank] {
				loaded = append(loaded, s)
			}
		}
	case ModeDataParallel:
		all := Slice{Offset: 0, Len: n}
		var pts []Point
		if pts, err = load(ctx, 0, all); err == nil {
			loaded = append(loaded, all)
			out, err = kmeans.RunDataParallel(ctx, pts, cfg, o.workers, o.blockSize)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, int(o.mode))
	}

	if r, ok := src.(interface{ Release(Slice) }); ok {
		for _, s := range loaded {
			r.Release(s)
		}
	}
	if err != nil {
		return nil, err
	}

	state := StateMaxIterationsReached
	if out.Converged {
		state = StateConverged
	}
	return &Result{
		Mode:           o.mode,
		Workers:        o.workers,
		Points:         n,
		K:              o.k,
		MaxIterations:  o.iterations,
		History:        out.History,
		Centroids:      out.Centroids,
		Iterations:     out.Iterations,
		State:          state,
		FixedPoint:     out.FixedPoint,
		EmptyClusters:  obs.lastEmpty,
		Elapsed:        time.Since(start),
		ClusteringTime: out.Elapsed,
	}, nil
}

// ReadHistory parses a result written by WriteResult or History.WriteTo.
func ReadHistory(r io.Reader) (*History, error) {
	return history.Read(r)
}
