package bulkmeans

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/bulkmeans/internal/kmeans"
	"golang.org/x/time/rate"
)

// Logger wraps slog.Logger with bulkmeans-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger

	// progress throttles Info-level iteration progress. Shared by loggers
	// derived through With* so one run reports at one cadence.
	progress *rate.Sometimes
}

// ProgressInterval is the minimum spacing of Info-level iteration logs.
const ProgressInterval = time.Second

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger:   slog.New(handler),
		progress: &rate.Sometimes{First: 1, Interval: ProgressInterval},
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger:   l.Logger.With(args...),
		progress: l.progress,
	}
}

// WithWorkers adds the worker count to the logger.
func (l *Logger) WithWorkers(workers int) *Logger {
	return l.with("workers", workers)
}

// WithK adds the cluster count to the logger.
func (l *Logger) WithK(k int) *Logger {
	return l.with("k", k)
}

// WithMode adds the execution mode to the logger.
func (l *Logger) WithMode(mode Mode) *Logger {
	return l.with("mode", mode.String())
}

// LogLoad logs one partition load.
func (l *Logger) LogLoad(ctx context.Context, rank int, s Slice, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"rank", rank,
			"offset", s.Offset,
			"points", s.Len,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"rank", rank,
			"offset", s.Offset,
			"points", s.Len,
		)
	}
}

// LogIteration logs a finished iteration at Debug, and at Info no more
// than once per ProgressInterval.
func (l *Logger) LogIteration(ctx context.Context, s kmeans.IterationStats) {
	l.DebugContext(ctx, "iteration completed",
		"iteration", s.Iteration,
		"changed", s.Changed,
		"changed_workers", s.ChangedWorkers,
		"duration", s.Duration,
	)
	if l.progress == nil {
		return
	}
	l.progress.Do(func() {
		l.InfoContext(ctx, "clustering progress",
			"iteration", s.Iteration,
			"changed", s.Changed,
		)
	})
}

// LogEmptyClusters logs clusters that received no points and kept their
// previous centroid.
func (l *Logger) LogEmptyClusters(ctx context.Context, iteration int, clusters []int) {
	if len(clusters) == 0 {
		return
	}
	l.DebugContext(ctx, "empty clusters kept previous centroid",
		"iteration", iteration,
		"clusters", clusters,
	)
}

// LogRun logs the end of a run.
func (l *Logger) LogRun(ctx context.Context, res *Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "run completed",
		"iterations", res.Iterations,
		"state", res.State.String(),
		"fixed_point", res.FixedPoint,
		"elapsed", res.Elapsed,
		"clustering", res.ClusteringTime,
	)
}

// LogWrite logs a result or report write.
func (l *Logger) LogWrite(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "written",
			"name", name,
		)
	}
}
