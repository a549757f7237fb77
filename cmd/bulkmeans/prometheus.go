package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// promCollector implements bulkmeans.MetricsCollector on a private
// registry that is dumped to a node exporter textfile after the run.
type promCollector struct {
	registry      *prometheus.Registry
	loadLatency   *prometheus.HistogramVec
	pointsLoaded  prometheus.Counter
	iterLatency   prometheus.Histogram
	iterations    *prometheus.CounterVec
	emptyClusters prometheus.Counter
	runs          *prometheus.CounterVec
	runDuration   prometheus.Gauge
}

func newPromCollector() *promCollector {
	c := &promCollector{
		registry: prometheus.NewRegistry(),
		loadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bulkmeans_load_duration_seconds",
			Help:    "Latency of partition loads",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		pointsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bulkmeans_points_loaded_total",
			Help: "Points loaded by all workers",
		}),
		iterLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bulkmeans_iteration_duration_seconds",
			Help:    "Latency of one assignment/update iteration",
			Buckets: prometheus.DefBuckets,
		}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulkmeans_iterations_total",
			Help: "Completed iterations",
		}, []string{"changed"}),
		emptyClusters: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bulkmeans_empty_clusters_total",
			Help: "Clusters that kept their previous centroid",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulkmeans_runs_total",
			Help: "Finished runs",
		}, []string{"state"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bulkmeans_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}
	c.registry.MustRegister(
		c.loadLatency,
		c.pointsLoaded,
		c.iterLatency,
		c.iterations,
		c.emptyClusters,
		c.runs,
		c.runDuration,
	)
	return c
}

func (c *promCollector) RecordLoad(points int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.loadLatency.WithLabelValues(status).Observe(d.Seconds())
	c.pointsLoaded.Add(float64(points))
}

func (c *promCollector) RecordIteration(changed bool, emptyClusters int, d time.Duration) {
	label := "false"
	if changed {
		label = "true"
	}
	c.iterations.WithLabelValues(label).Inc()
	c.iterLatency.Observe(d.Seconds())
	c.emptyClusters.Add(float64(emptyClusters))
}

func (c *promCollector) RecordRun(_ int, converged bool, d time.Duration, err error) {
	state := "max_iterations_reached"
	switch {
	case err != nil:
		state = "error"
	case converged:
		state = "converged"
	}
	c.runs.WithLabelValues(state).Inc()
	c.runDuration.Set(d.Seconds())
}

// writeTo atomically replaces path with the current metrics.
func (c *promCollector) writeTo(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
