// Package metrics provides Prometheus metrics for the catalog server.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Catalog metrics:
//   - catalog_medicines: Gauge with the number of medicines served
//   - catalog_reloads_total: Counter of scheduled reloads by result
//   - catalog_reload_duration_seconds: Histogram of reload durations
//   - catalog_last_reload_timestamp_seconds: Gauge with the time of the last successful reload
//   - catalog_edits_total: Counter of record edits by operation
//
// Assistant metrics:
//   - assistant_requests_total: Counter of language model calls by operation and result
//   - assistant_request_duration_seconds: Histogram of language model latency by operation
//
// All metrics are registered with the Prometheus default registry
// during package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Edit operations counted by catalog_edits_total
const (
	EditCreate = "create"
	EditUpdate = "update"
	EditDelete = "delete"
)

// Assistant operations counted by assistant_requests_total
const (
	AssistantChat         = "chat"
	AssistantPrescription = "prescription"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last cleanup)",
		},
	)

	CatalogMedicines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_medicines",
			Help: "Number of medicines in the catalog",
		},
	)

	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Catalog reloads by result",
		},
		[]string{"result"},
	)

	CatalogReloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_reload_duration_seconds",
			Help:    "Time spent loading and swapping the catalog",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CatalogLastReload = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_last_reload_timestamp_seconds",
			Help: "Unix time of the last successful catalog reload",
		},
	)

	CatalogEditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_edits_total",
			Help: "Record edits by operation",
		},
		[]string{"operation"},
	)

	AssistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Language model calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	AssistantRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_request_duration_seconds",
			Help:    "Language model latency",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(CatalogMedicines)
	prometheus.MustRegister(CatalogReloadsTotal)
	prometheus.MustRegister(CatalogReloadDuration)
	prometheus.MustRegister(CatalogLastReload)
	prometheus.MustRegister(CatalogEditsTotal)
	prometheus.MustRegister(AssistantRequestsTotal)
	prometheus.MustRegister(AssistantRequestDuration)
}

// RecordReload records the outcome of a catalog reload
func RecordReload(medicines int, duration time.Duration, err error) {
	CatalogReloadDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogReloadsTotal.WithLabelValues("error").Inc()
		return
	}

	CatalogReloadsTotal.WithLabelValues("success").Inc()
	CatalogMedicines.Set(float64(medicines))
	CatalogLastReload.SetToCurrentTime()
}

// RecordEdit counts a record edit and refreshes the catalog size
func RecordEdit(operation string, medicines int) {
	CatalogEditsTotal.WithLabelValues(operation).Inc()
	CatalogMedicines.Set(float64(medicines))
}

// RecordAssistant records one language model call
func RecordAssistant(operation string, duration time.Duration, err error) {
	AssistantRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	AssistantRequestsTotal.WithLabelValues(operation, result).Inc()
}
