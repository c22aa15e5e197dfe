// Package health derives rolling statistics and the health score from the
// contents of the error log.
//
// Everything here is a pure function of its inputs. Nothing is cached
// between calls, so results cannot drift from the log under eviction.
package health

import (
	"sort"
	"time"

	"github.com/Sternrassler/error-telemetry/pkg/errorlog"
	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// Score constants.
const (
	BaseScore = 100

	// PenaltyPerEvent applies to every retained event, critical ones included.
	PenaltyPerEvent = 2

	// PenaltyPerCritical applies on top of PenaltyPerEvent for critical events.
	PenaltyPerCritical = 10
)

// Band is the qualitative classification of a score.
type Band string

const (
	BandHealthy  Band = "healthy"
	BandFair     Band = "fair"
	BandDegraded Band = "degraded"
	BandCritical Band = "critical"
)

// Band thresholds (inclusive lower bounds).
const (
	ThresholdHealthy  = 80
	ThresholdFair     = 60
	ThresholdDegraded = 40
)

// ComponentCount is the number of windowed events reported by one component.
type ComponentCount struct {
	Component string `json:"component"`
	Count     int    `json:"count"`
}

// Metrics is the derived view of the log.
type Metrics struct {
	Window errorlog.Window `json:"window"`

	// Rate is windowed events per hour.
	Rate float64 `json:"rate"`

	SeverityBreakdown map[event.Severity]int `json:"severity_breakdown"`
	TypeBreakdown     map[event.Type]int     `json:"type_breakdown"`
	TopComponents     []ComponentCount       `json:"top_components"`

	// WindowCount is the number of events inside the window.
	WindowCount int `json:"window_count"`

	// Total is the number of retained events, regardless of window.
	Total int `json:"total"`

	Uptime time.Duration `json:"uptime"`

	// HealthScore is computed over all retained events, not the window.
	HealthScore int  `json:"health_score"`
	Band        Band `json:"band"`
}

// maxTopComponents bounds Metrics.TopComponents.
const maxTopComponents = 5

// Compute derives Metrics from the retained events.
func Compute(events []event.Event, window errorlog.Window, now, sessionStart time.Time) Metrics {
	if window == "" {
		window = errorlog.WindowAll
	}

	m := Metrics{
		Window:            window,
		SeverityBreakdown: make(map[event.Severity]int, len(event.Severities)),
		TypeBreakdown:     make(map[event.Type]int, len(event.Types)),
		Total:             len(events),
		Uptime:            max(now.Sub(sessionStart), 0),
		HealthScore:       Score(events),
	}
	m.Band = BandFor(m.HealthScore)

	components := make(map[string]int)
	for _, ev := range events {
		if !window.Contains(ev.Timestamp, now) {
			continue
		}
		m.WindowCount++
		m.SeverityBreakdown[ev.Severity]++
		m.TypeBreakdown[ev.Type]++
		components[ev.Component]++
	}

	m.Rate = float64(m.WindowCount) / windowHours(events, window, now)
	m.TopComponents = topComponents(components, maxTopComponents)
	return m
}

// Score returns 100 − 10·critical − 2·all, clamped at 0.
// A single critical event therefore costs 12 points.
func Score(events []event.Event) int {
	score := BaseScore
	for _, ev := range events {
		score -= PenaltyPerEvent
		if ev.Severity == event.SeverityCritical {
			score -= PenaltyPerCritical
		}
		if score <= 0 {
			return 0
		}
	}
	return score
}

// BandFor classifies a score.
func BandFor(score int) Band {
	switch {
	case score >= ThresholdHealthy:
		return BandHealthy
	case score >= ThresholdFair:
		return BandFair
	case score >= ThresholdDegraded:
		return BandDegraded
	default:
		return BandCritical
	}
}

// windowHours returns the rate denominator. WindowAll spans from the
// oldest retained event to now, floored at one hour.
func windowHours(events []event.Event, window errorlog.Window, now time.Time) float64 {
	if d, ok := window.Duration(); ok {
		return d.Hours()
	}
	if len(events) == 0 {
		return 1
	}
	oldest := events[0].Timestamp
	for _, ev := range events[1:] {
		if ev.Timestamp.Before(oldest) {
			oldest = ev.Timestamp
		}
	}
	return max(now.Sub(oldest).Hours(), 1)
}

func topComponents(counts map[string]int, limit int) []ComponentCount {
	out := make([]ComponentCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, ComponentCount{Component: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Component < out[j].Component
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
