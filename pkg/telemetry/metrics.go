package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsReportedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_events_reported_total",
		Help: "Total events reported by type and severity",
	}, []string{"type", "severity"})

	internalErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_internal_errors_total",
		Help: "Total internal failures self-logged by the service, by source",
	}, []string{"source"}) // "sink:<name>", "store", "report"

	inflightSinkTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "telemetry_sink_tasks_inflight",
		Help: "Sink deliveries currently in flight",
	})
)
