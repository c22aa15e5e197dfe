package autoreport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

var (
	autoReportsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_auto_reports_sent_total",
		Help: "Total number of events escalated to the reporting sink",
	})

	autoReportsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_auto_reports_suppressed_total",
		Help: "Total number of escalation candidates rejected by the gate",
	}, []string{"reason"}) // "disabled", "below_threshold", "cap_reached"
)

// Decision reasons.
const (
	ReasonAllowed        = "allowed"
	ReasonDisabled       = "disabled"
	ReasonBelowThreshold = "below_threshold"
	ReasonCapReached     = "cap_reached"
)

// ShouldAutoReport reports whether ev should be escalated.
// It does not modify state; the caller records the send.
func ShouldAutoReport(ev event.Event, state *State, cfg Config) bool {
	ok, _ := Evaluate(ev, state, cfg)
	return ok
}

// Evaluate is ShouldAutoReport with the reason for the decision.
func Evaluate(ev event.Event, state *State, cfg Config) (bool, string) {
	ok, reason := evaluate(ev, state, cfg)
	if !ok {
		autoReportsSuppressed.WithLabelValues(reason).Inc()
	}
	return ok, reason
}

func evaluate(ev event.Event, state *State, cfg Config) (bool, string) {
	threshold := cfg.Threshold
	if threshold == "" {
		threshold = DefaultThreshold
	}

	switch {
	case !cfg.Enabled:
		return false, ReasonDisabled
	case !ev.Severity.AtLeast(threshold):
		return false, ReasonBelowThreshold
	case state == nil || state.Sent() >= cfg.MaxAutoReports:
		return false, ReasonCapReached
	default:
		return true, ReasonAllowed
	}
}
