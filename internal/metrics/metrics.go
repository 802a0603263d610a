// Package metrics holds the Prometheus instruments of the service.
//
// All collectors are registered on Registry rather than the global default
// registry, so tests can create servers repeatedly without duplicate
// registration panics and /metrics only exposes what this service defines
// (plus the Go/process collectors added below).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "organizationapp"

// Registry is the registry every collector in this package is attached to.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Store metrics
var (
	// StoreOperations counts document store calls by collection, operation
	// (load, save, update) and result (ok, error).
	StoreOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of document store operations",
		},
		[]string{"collection", "op", "result"},
	)

	// StoreOperationDuration includes time spent waiting for the collection
	// lock, so it also shows write contention.
	StoreOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation latency in seconds, lock wait included",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"collection", "op"},
	)

	// MigratedEvents counts events rewritten from a legacy product shape.
	MigratedEvents = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migrated_events_total",
			Help:      "Total number of events migrated from a legacy product shape",
		},
	)
)

// Auth metrics
var (
	// AuthAttempts counts signup and login attempts by outcome.
	AuthAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Total number of signup and login attempts",
		},
		[]string{"action", "result"},
	)

	// RateLimited counts requests rejected by the auth rate limiter.
	RateLimited = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
)

// ObserveStore records one store operation.
func ObserveStore(collection, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(collection, op, result).Inc()
	StoreOperationDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

// Handler serves the contents of Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
