// Package metrics exposes the Prometheus registry for the telemetry engine.
// All metrics are defined in their respective packages (errorlog, health,
// autoreport, retry, sink, store, telemetry) to maintain modularity and
// avoid circular dependencies.
//
// This package provides the HTTP handler and the reference for all metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the telemetry engine.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Log Metrics (pkg/errorlog):
//   - telemetry_log_appends_total (Counter): Events appended to the log
//   - telemetry_log_evictions_total{reason} (Counter): Evictions by reason (count, age, size)
//   - telemetry_log_capacity_exceeded_total (Counter): Appends whose event alone exceeded the size limit
//   - telemetry_log_events (Gauge): Events currently retained
//   - telemetry_log_size_bytes (Gauge): Estimated serialized size of the log
//
// Health Metrics (pkg/health):
//   - telemetry_health_score (Gauge): Last computed health score (0-100)
//   - telemetry_error_rate_per_hour{window} (Gauge): Events per hour by window
//
// Auto-Report Metrics (pkg/autoreport):
//   - telemetry_auto_reports_sent_total (Counter): Escalations recorded
//   - telemetry_auto_reports_suppressed_total{reason} (Counter): Rejected candidates by reason
//
// Retry Metrics (pkg/retry):
//   - telemetry_retries_total{error_class} (Counter): Retry attempts by error class
//   - telemetry_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - telemetry_retry_exhausted_total{error_class} (Counter): Operations that exhausted max retries
//
// Sink Metrics (pkg/sink):
//   - telemetry_sink_sends_total{sink, status} (Counter): Deliveries by sink and outcome
//   - telemetry_sink_send_duration_seconds{sink} (Histogram): Delivery duration by sink
//
// Store Metrics (pkg/store):
//   - telemetry_store_operations_total{backend, operation} (Counter): Store operations
//   - telemetry_store_errors_total{backend, operation} (Counter): Failed store operations
//   - telemetry_store_record_bytes{backend} (Gauge): Size of the last record written
//
// Service Metrics (pkg/telemetry):
//   - telemetry_events_reported_total{type, severity} (Counter): Reported events
//   - telemetry_internal_errors_total{source} (Counter): Self-logged internal failures
//   - telemetry_sink_tasks_inflight (Gauge): Sink deliveries in flight
//
// Example Prometheus Queries:
//
//   # Critical Event Rate
//   sum(rate(telemetry_events_reported_total{severity="critical"}[5m]))
//
//   # Degraded Health
//   telemetry_health_score < 60
//
//   # Sink Failure Ratio
//   sum(rate(telemetry_sink_sends_total{status="error"}[5m])) by (sink) /
//   sum(rate(telemetry_sink_sends_total[5m])) by (sink)
//
//   # P95 Delivery Latency
//   histogram_quantile(0.95, rate(telemetry_sink_send_duration_seconds_bucket[5m]))
//
//   # Escalation Budget Exhausted
//   increase(telemetry_auto_reports_suppressed_total{reason="cap_reached"}[1h]) > 0
