// Package metrics defines Prometheus metrics for the negotiation engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RoundsImported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_rounds_imported_total",
			Help: "Rounds imported, by outcome (created, replayed, failed)",
		},
		[]string{"outcome"},
	)

	ComparatorDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parley_comparator_duration_seconds",
			Help:    "Redline comparison duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ChangesDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_changes_detected_total",
			Help: "Changes detected by the redline comparator",
		},
	)

	ChangesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_changes_resolved_total",
			Help: "Changes resolved, by target status",
		},
		[]string{"status"},
	)

	AnalysisQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_analysis_queue_depth",
			Help: "Current AI analysis queue depth",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		RoundsImported, ComparatorDuration, ChangesDetected, ChangesResolved,
		AnalysisQueueDepth, WSConnections,
	)
}
