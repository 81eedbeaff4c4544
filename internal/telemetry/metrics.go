// Package telemetry provides application-level observability for the assessment platform.
//
// All metrics are registered against the default Prometheus registry and are
// served on the side-channel HTTP server started by main.go:
//
//	GET http://<host>:<XTP_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped every 15–60 seconds. It is NOT served by
// the Gin router, so it sits behind neither the rate limiter nor the public ingress.
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/audit/status/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as audit IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Audit pipeline metrics, recorded by the submission handler and the background workers.
//
// AuditsSubmittedTotal counts accepted submissions. AuditsProcessedTotal is
// labelled by terminal outcome ("completed" or "failed"); the difference between
// the two over a window is the current in-flight backlog.
//
// AnalysisFallbackTotal is labelled by reason ("disabled", "transport", "timeout",
// "parse"). A rising transport/timeout rate with a healthy completed rate is the
// expected signature of a model-provider outage: audits keep completing on the
// deterministic strategy.
var (
	AuditsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audits_submitted_total",
			Help: "Total number of audit submissions accepted for processing.",
		},
	)

	AuditsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audits_processed_total",
			Help: "Total number of audits that reached a terminal status, by outcome.",
		},
		[]string{"outcome"},
	)

	AuditProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audit_processing_duration_seconds",
			Help:    "End-to-end duration of the background audit pipeline (analyze, normalize, persist, dispatch).",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	AnalysisFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_fallback_total",
			Help: "Total number of audits analyzed by the deterministic fallback strategy, by reason.",
		},
		[]string{"reason"},
	)

	QueueRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_queue_rejections_total",
			Help: "Total number of submissions rejected because the pipeline queue was full.",
		},
	)
)

// Dispatch metrics for the best-effort side effects after a completed analysis.
var (
	PDFReportsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf_reports_generated_total",
			Help: "Total number of PDF reports successfully rendered and registered.",
		},
	)

	PDFReportFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf_report_failures_total",
			Help: "Total number of PDF report generation attempts that failed.",
		},
	)

	CompletionEmailsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "completion_emails_sent_total",
			Help: "Total number of audit-completion emails successfully delivered.",
		},
	)

	CompletionEmailFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "completion_email_failures_total",
			Help: "Total number of audit-completion email deliveries that failed.",
		},
	)
)

// StaleAuditsReapedTotal counts audits the reaper job moved from processing to
// failed after exceeding the pipeline.stale_after deadline. Any non-zero rate
// here means workers are dying or the deadline is too aggressive.
var StaleAuditsReapedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "stale_audits_reaped_total",
		Help: "Total number of stuck processing audits forcibly marked failed by the reaper job.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool. It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
