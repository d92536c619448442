// Package observability exposes Prometheus metrics and health checks for
// the drafting service.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specdraft_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "specdraft_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Turn metrics
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specdraft_turns_total",
			Help: "Total number of processed turns by outcome",
		},
		[]string{"outcome"},
	)

	turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "specdraft_turn_duration_seconds",
			Help:    "End-to-end turn processing duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
		},
		[]string{"outcome"},
	)

	gateRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specdraft_gate_rejections_total",
			Help: "Total number of inputs rejected by a gate",
		},
		[]string{"gate"},
	)

	parseRepairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "specdraft_parse_repairs_total",
			Help: "Total number of repair attempts for malformed model output",
		},
	)

	questionsPerTurn = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "specdraft_questions_per_turn",
			Help:    "Number of open questions after each successful turn",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	exportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "specdraft_exports_total",
			Help: "Total number of document exports",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers all Prometheus metrics. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			turnsTotal,
			turnDuration,
			gateRejectionsTotal,
			parseRepairsTotal,
			questionsPerTurn,
			exportsTotal,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTurn records the outcome and duration of a processed turn.
// Outcome is "success" or the error kind.
func RecordTurn(outcome string, duration time.Duration) {
	turnsTotal.WithLabelValues(outcome).Inc()
	turnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordGateRejection records a rejection by the named gate.
func RecordGateRejection(gate string) {
	gateRejectionsTotal.WithLabelValues(gate).Inc()
}

// RecordParseRepair records a repair attempt for malformed model output.
func RecordParseRepair() {
	parseRepairsTotal.Inc()
}

// RecordQuestionCount records the number of open questions after a turn.
func RecordQuestionCount(count int) {
	questionsPerTurn.Observe(float64(count))
}

// RecordExport records a document export.
func RecordExport() {
	exportsTotal.Inc()
}
