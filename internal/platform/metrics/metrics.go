// Package metrics declares the process prometheus collectors
// collectors register on the default registry; Handler serves them
package metrics

import (
	stdhttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsEnqueued counts jobs accepted for execution, by kind
	JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "turna", Subsystem: "jobs", Name: "enqueued_total",
		Help: "Jobs accepted for execution, by kind.",
	}, []string{"kind"})

	// JobsFinished counts jobs reaching a terminal status, by kind and status
	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "turna", Subsystem: "jobs", Name: "finished_total",
		Help: "Jobs that reached a terminal status, by kind and status.",
	}, []string{"kind", "status"})

	// JobsRequeued counts stale RUNNING jobs sent back to PENDING
	JobsRequeued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "turna", Subsystem: "jobs", Name: "requeued_total",
		Help: "Stale RUNNING jobs returned to PENDING by requeue or reconcile.",
	})

	// JobDuration observes wall time from claim to terminal status
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "turna", Subsystem: "jobs", Name: "duration_seconds",
		Help:    "Wall time from claim to terminal status.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"kind"})

	// SolverRuns counts allocation solves, by mode and outcome
	SolverRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "turna", Subsystem: "solver", Name: "runs_total",
		Help: "Allocation solves, by mode and outcome.",
	}, []string{"mode", "outcome"})

	// SolverDuration observes solve wall time
	SolverDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "turna", Subsystem: "solver", Name: "duration_seconds",
		Help:    "Allocation solve wall time.",
		Buckets: prometheus.DefBuckets,
	})

	// SSEStreams gauges currently open job event streams
	SSEStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "turna", Subsystem: "http", Name: "sse_streams",
		Help: "Currently open job event streams.",
	})
)

// Handler serves the default registry in prometheus exposition format
func Handler() stdhttp.Handler { return promhttp.Handler() }
