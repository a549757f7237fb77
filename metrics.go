package bulkmeans

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting run metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after each partition load. points is the number
	// of points loaded, err is nil if successful.
	RecordLoad(points int, duration time.Duration, err error)

	// RecordIteration is called once per completed iteration.
	RecordIteration(changed bool, emptyClusters int, duration time.Duration)

	// RecordRun is called when a run finishes.
	RecordRun(iterations int, converged bool, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordIteration(bool, int, time.Duration)  {}
func (NoopMetricsCollector) RecordRun(int, bool, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount           atomic.Int64
	LoadErrors          atomic.Int64
	PointsLoaded        atomic.Int64
	LoadTotalNanos      atomic.Int64
	IterationCount      atomic.Int64
	UnchangedIterations atomic.Int64
	EmptyClusters       atomic.Int64
	IterationTotalNanos atomic.Int64
	RunCount            atomic.Int64
	RunErrors           atomic.Int64
	ConvergedRuns       atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(points int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.PointsLoaded.Add(int64(points))
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(changed bool, emptyClusters int, duration time.Duration) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.EmptyClusters.Add(int64(emptyClusters))
	if !changed {
		b.UnchangedIterations.Add(1)
	}
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ int, converged bool, _ time.Duration, err error) {
	b.RunCount.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	if converged {
		b.ConvergedRuns.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:           b.LoadCount.Load(),
		LoadErrors:          b.LoadErrors.Load(),
		PointsLoaded:        b.PointsLoaded.Load(),
		IterationCount:      b.IterationCount.Load(),
		UnchangedIterations: b.UnchangedIterations.Load(),
		EmptyClusters:       b.EmptyClusters.Load(),
		IterationAvgNanos:   avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		RunCount:            b.RunCount.Load(),
		RunErrors:           b.RunErrors.Load(),
		ConvergedRuns:       b.ConvergedRuns.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	PointsLoaded   int64
	IterationCount int64
	// UnchangedIterations counts iterations in which no label changed.
	UnchangedIterations int64
	EmptyClusters       int64
	IterationAvgNanos   int64
	RunCount            int64
	RunErrors           int64
	ConvergedRuns       int64
}
