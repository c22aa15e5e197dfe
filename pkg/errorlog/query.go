package errorlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// Window is a trailing time window used by queries and metrics.
type Window string

const (
	WindowHour   Window = "1h"
	Window6Hours Window = "6h"
	WindowDay    Window = "24h"
	WindowAll    Window = "all"
)

// Duration returns the window length. ok is false for WindowAll.
func (w Window) Duration() (d time.Duration, ok bool) {
	switch w {
	case WindowHour:
		return time.Hour, true
	case Window6Hours:
		return 6 * time.Hour, true
	case WindowDay:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Contains reports whether ts falls inside the window ending at now.
// The lower bound is inclusive.
func (w Window) Contains(ts, now time.Time) bool {
	d, ok := w.Duration()
	if !ok {
		return true
	}
	return !ts.Before(now.Add(-d))
}

// ParseWindow converts a string into a Window. The empty string means WindowAll.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WindowAll, nil
	case WindowHour, Window6Hours, WindowDay, WindowAll:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q (want 1h, 6h, 24h or all)", s)
	}
}

// Filter selects events. Zero-valued fields match everything.
type Filter struct {
	Window Window

	Type event.Type

	// Severity matches exactly.
	Severity event.Severity

	// MinSeverity matches events at or above the given severity.
	MinSeverity event.Severity

	Component string
}

// Match reports whether ev passes the filter at time now.
func (f Filter) Match(ev event.Event, now time.Time) bool {
	if f.Window != "" && !f.Window.Contains(ev.Timestamp, now) {
		return false
	}
	if f.Type != "" && ev.Type != f.Type {
		return false
	}
	if f.Severity != "" && ev.Severity != f.Severity {
		return false
	}
	if f.MinSeverity != "" && !ev.Severity.AtLeast(f.MinSeverity) {
		return false
	}
	if f.Component != "" && ev.Component != f.Component {
		return false
	}
	return true
}

// Query returns copies of the events matching f, in insertion order.
func (l *Log) Query(f Filter) []event.Event {
	now := l.now()
	out := make([]event.Event, 0, len(l.entries))
	for _, e := range l.entries {
		if f.Match(e.ev, now) {
			out = append(out, e.ev.Clone())
		}
	}
	return out
}
