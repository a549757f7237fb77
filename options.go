package bulkmeans

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/bulkmeans/internal/kmeans"
	"github.com/hupe1980/bulkmeans/resource"
)

const (
	// DefaultK is the number of clusters when WithK is not given.
	DefaultK = 5
	// DefaultIterations is the iteration cap when WithIterations is not given.
	DefaultIterations = 20
	// DefaultSeed seeds the initial centroid placement.
	DefaultSeed = kmeans.DefaultSeed
)

type options struct {
	workers          int
	k                int
	iterations       int
	seed             int64
	initial          []Point
	coordinator      int
	mode             Mode
	blockSize        int
	logger           *Logger
	metricsCollector MetricsCollector
	resources        *resource.Controller
}

// Option configures a Run.
type Option func(*options)

// WithWorkers sets the number of workers (BSP) or pool goroutines
// (data-parallel). Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithK sets the number of clusters.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithIterations caps the number of iterations. The history always holds
// iterations+1 snapshots.
func WithIterations(n int) Option {
	return func(o *options) {
		o.iterations = n
	}
}

// WithSeed seeds the uniform initial centroid placement.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithInitialCentroids replaces the seeded placement. The number of
// centroids must match k.
func WithInitialCentroids(centroids []Point) Option {
	return func(o *options) {
		o.initial = centroids
	}
}

// WithCoordinator selects the worker that reduces sums and decides
// convergence in BSP mode. Defaults to 0.
func WithCoordinator(rank int) Option {
	return func(o *options) {
		o.coordinator = rank
	}
}

// WithMode selects the execution model.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithBlockSize sets the number of logical threads per assignment block in
// data-parallel mode.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := bulkmeans.NewJSONLogger(slog.LevelInfo)
//	res, _ := bulkmeans.Run(ctx, src, n, bulkmeans.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &bulkmeans.BasicMetricsCollector{}
//	res, _ := bulkmeans.Run(ctx, src, n, bulkmeans.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithResourceController bounds memory, concurrent loads and load
// throughput of blob sources.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		workers:          runtime.GOMAXPROCS(0),
		k:                DefaultK,
		iterations:       DefaultIterations,
		seed:             DefaultSeed,
		mode:             ModeBSP,
		blockSize:        kmeans.DefaultBlockSize,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
