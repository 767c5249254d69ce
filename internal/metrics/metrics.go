// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bc_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bc_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	LifecycleEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bc_lifecycle_events_total",
			Help: "Card lifecycle events by type.",
		},
		[]string{"type"},
	)

	SweepRecordsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bc_sweep_records_deleted_total",
		Help: "Cards soft-deleted by the retention sweeper.",
	})

	SweepDependentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bc_sweep_dependents_deleted_total",
		Help: "Dependent rows removed by the retention sweeper.",
	})

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bc_sweep_runs_total",
			Help: "Retention sweep runs by outcome.",
		},
		[]string{"outcome"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bc_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		},
		[]string{"scope"},
	)
)
