package errorlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// appendedTotal counts events appended to any log.
	appendedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_log_appends_total",
			Help: "Total number of events appended to the error log",
		},
	)

	// evictionsTotal counts evicted events by the limit that triggered eviction.
	evictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_log_evictions_total",
			Help: "Total number of events evicted from the error log",
		},
		[]string{"reason"}, // "count", "age", "size"
	)

	// capacityExceededTotal counts appends whose event alone exceeded the size limit.
	capacityExceededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_log_capacity_exceeded_total",
			Help: "Total number of single events larger than the log size limit",
		},
	)

	// logEvents tracks retained event count.
	logEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_log_events",
			Help: "Current number of events retained in the error log",
		},
	)

	// logBytes tracks estimated retained size.
	logBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_log_size_bytes",
			Help: "Estimated serialized size of the error log in bytes",
		},
	)
)

func recordEvictions(r EvictionReport) {
	if r.ByCount > 0 {
		evictionsTotal.WithLabelValues("count").Add(float64(r.ByCount))
	}
	if r.ByAge > 0 {
		evictionsTotal.WithLabelValues("age").Add(float64(r.ByAge))
	}
	if r.BySize > 0 {
		evictionsTotal.WithLabelValues("size").Add(float64(r.BySize))
	}
}

func updateGauges(l *Log) {
	logEvents.Set(float64(len(l.entries)))
	logBytes.Set(float64(l.bytes))
}
