// Package metrics provides Prometheus metrics for the prode client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "prode"

var (
	// API client metrics.
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "API requests by endpoint, method and outcome status.",
	}, []string{"endpoint", "method", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_ms",
		Help:      "API request duration in milliseconds.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"endpoint", "method"})

	apiNetworkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "network_errors_total",
		Help:      "Requests that completed with no server response.",
	})

	// Prediction form metrics.
	formSubmits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "form",
		Name:      "submits_total",
		Help:      "Prediction submissions by outcome.",
	}, []string{"kind", "outcome"})

	formLocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "form",
		Name:      "locks_total",
		Help:      "Forms locked by the deadline watchdog.",
	})

	// Score cache metrics.
	cacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scorecache",
		Name:      "refreshes_total",
		Help:      "Score cache refreshes by source (lookup, user, external).",
	}, []string{"source"})

	// Result hydration metrics.
	hydrateInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hydrate",
		Name:      "in_flight",
		Help:      "Result-status fetches currently outstanding.",
	})

	hydrateSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hydrate",
		Name:      "sessions_total",
		Help:      "Sessions hydrated by outcome.",
	}, []string{"outcome"})
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(endpoint, method, status string) {
	apiRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIRequestDuration records the latency of one API request.
func RecordAPIRequestDuration(endpoint, method string, ms float64) {
	apiRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}

// RecordNetworkError records a request that got no response at all.
func RecordNetworkError() {
	apiNetworkErrors.Inc()
}

// RecordFormSubmit records a prediction submission outcome.
// Outcome is one of: success, failure, noop.
func RecordFormSubmit(kind, outcome string) {
	formSubmits.WithLabelValues(kind, outcome).Inc()
}

// RecordFormLock records a watchdog-initiated form lock.
func RecordFormLock() {
	formLocks.Inc()
}

// RecordCacheRefresh records a score cache refresh by source.
func RecordCacheRefresh(source string) {
	cacheRefreshes.WithLabelValues(source).Inc()
}

// HydrateStarted marks one result-status fetch as outstanding.
func HydrateStarted() { hydrateInFlight.Inc() }

// HydrateFinished marks one result-status fetch as done.
func HydrateFinished(outcome string) {
	hydrateInFlight.Dec()
	hydrateSessions.WithLabelValues(outcome).Inc()
}
