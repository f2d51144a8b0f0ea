// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registerOnce guards MustRegister: the default registry panics on
	// duplicate registration, and tests may call Init repeatedly.
	registerOnce sync.Once

	// HTTPRequestsTotal counts finished requests by method, route pattern
	// and status code. Use route patterns, not raw paths, to keep label
	// cardinality bounded.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration records request latency distributions.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests tracks requests currently being handled.
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// CacheOperations counts link-cache outcomes (hit, miss, error).
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_cache_operations_total",
			Help: "Link cache operations by result.",
		},
		[]string{"result"},
	)

	// IdentifierRetries counts short-identifier regenerations caused by
	// unique-constraint collisions on create.
	IdentifierRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_identifier_retries_total",
			Help: "Short identifier regenerations after a URL collision.",
		},
	)
)

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			HTTPInflightRequests,
			CacheOperations,
			IdentifierRetries,
		)
	})
}
