// Package autoreport implements the auto-report gate: it decides whether an
// event is escalated to the external reporting sink, under a per-session cap.
package autoreport

import (
	"sync/atomic"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// Defaults for Config.
const (
	DefaultThreshold      = event.SeverityHigh
	DefaultMaxAutoReports = 5
)

// Config controls escalation.
type Config struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Threshold is the minimum severity escalated.
	Threshold event.Severity `yaml:"threshold" json:"threshold"`

	// MaxAutoReports caps escalations per session. Zero disables escalation.
	MaxAutoReports int `yaml:"max_auto_reports" json:"max_auto_reports"`
}

// DefaultConfig returns an enabled gate escalating high and critical events,
// at most five per session.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Threshold:      DefaultThreshold,
		MaxAutoReports: DefaultMaxAutoReports,
	}
}

// State is the per-session escalation counter. A new session gets a new State;
// there is no other way to reset it.
type State struct {
	sent atomic.Int64
}

// NewState returns a State with nothing sent.
func NewState() *State {
	return &State{}
}

// Sent returns the number of escalations recorded in this session.
func (s *State) Sent() int {
	return int(s.sent.Load())
}

// RecordSent counts one escalation. Callers record before the send completes,
// so a failed send still consumes quota.
func (s *State) RecordSent() int {
	n := int(s.sent.Add(1))
	autoReportsSent.Inc()
	return n
}

// Remaining returns the quota left under cfg, never negative.
func (s *State) Remaining(cfg Config) int {
	return max(cfg.MaxAutoReports-s.Sent(), 0)
}
