// Package metrics exposes Prometheus instrumentation for the HTTP layer and the
// session audit lifecycle. Metrics are registered on the default registry and
// served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the session counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeNoop     = "noop"
	OutcomeError    = "error"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_logins_total",
			Help: "Authentication attempts by outcome",
		},
		[]string{"outcome"},
	)

	LogoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_logouts_total",
			Help: "Logout requests by outcome; noop means no open audit entry matched",
		},
		[]string{"outcome"},
	)

	AuditWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_audit_write_failures_total",
			Help: "Audit store writes that failed",
		},
		[]string{"operation"},
	)

	AuditEntriesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_audit_entries_deleted_total",
			Help: "Audit entries removed by administrators",
		},
	)
)

func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}

func RecordLogout(outcome string) {
	LogoutsTotal.WithLabelValues(outcome).Inc()
}

func RecordAuditWriteFailure(operation string) {
	AuditWriteFailures.WithLabelValues(operation).Inc()
}

func RecordAuditDeletion() {
	AuditEntriesDeleted.Inc()
}
