package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	healthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "telemetry_health_score",
		Help: "Current health score (0-100)",
	})

	errorRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "telemetry_error_rate_per_hour",
		Help: "Events per hour inside the window",
	}, []string{"window"})
)

// Observe publishes m to the health gauges.
func Observe(m Metrics) {
	healthScore.Set(float64(m.HealthScore))
	errorRate.WithLabelValues(string(m.Window)).Set(m.Rate)
}
