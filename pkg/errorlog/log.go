// Package errorlog implements the bounded, retention-limited event log.
//
// The log is an insertion-ordered sequence of events bounded by three
// independent limits: a maximum event count, a maximum age and a maximum
// estimated serialized size. After every mutation eviction runs until all
// three hold, always removing the oldest events first and never choosing by
// severity.
//
// A Log is not safe for concurrent use. Its owner serializes access.
package errorlog

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// ErrCapacityExceeded is returned when the newest event alone is larger than
// the size limit. The event is kept: the log always retains at least one.
var ErrCapacityExceeded = errors.New("log capacity exceeded")

// Defaults for Limits.
const (
	DefaultMaxLogSize    = 1000
	DefaultRetentionDays = 7
	DefaultMaxSizeBytes  = 10 * 1024 * 1024
)

// Retention bounds the log by age and size.
type Retention struct {
	// Days is the maximum age of a retained event. Zero disables age eviction.
	Days int `yaml:"days" json:"days"`

	// MaxSize is the maximum estimated serialized size in bytes. Zero
	// disables size eviction.
	MaxSize int64 `yaml:"max_size" json:"max_size"`
}

// MaxAge returns the retention window as a duration.
func (r Retention) MaxAge() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

// Limits holds every bound applied by eviction.
type Limits struct {
	// MaxLogSize is the maximum number of events. Zero disables count
	// eviction for a standalone Log; telemetry.Config requires at least 1.
	MaxLogSize int       `yaml:"max_log_size" json:"max_log_size"`
	Retention  Retention `yaml:"retention" json:"retention"`
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxLogSize: DefaultMaxLogSize,
		Retention: Retention{
			Days:    DefaultRetentionDays,
			MaxSize: DefaultMaxSizeBytes,
		},
	}
}

// EvictionReport counts the events removed by one eviction pass.
type EvictionReport struct {
	ByCount int
	ByAge   int
	BySize  int
}

// Total returns the number of evicted events.
func (r EvictionReport) Total() int {
	return r.ByCount + r.ByAge + r.BySize
}

type entry struct {
	ev   event.Event
	size int64
}

// Log is the bounded event log.
type Log struct {
	limits  Limits
	now     func() time.Time
	logger  zerolog.Logger
	entries []entry
	bytes   int64
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the time source used for age eviction and windowed queries.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger used for capacity warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// New creates an empty log.
func New(limits Limits, opts ...Option) *Log {
	l := &Log{
		limits: limits,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limits returns the configured limits.
func (l *Log) Limits() Limits {
	return l.limits
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	return len(l.entries)
}

// Bytes returns the estimated serialized size of the retained events.
func (l *Log) Bytes() int64 {
	return l.bytes
}

// Append adds a copy of ev at the end of the log and runs eviction.
// A non-nil error is always ErrCapacityExceeded and is informational.
func (l *Log) Append(ev event.Event) (EvictionReport, error) {
	ev = ev.Clone()
	size := EstimateSize(ev)
	l.entries = append(l.entries, entry{ev: ev, size: size})
	l.bytes += size
	appendedTotal.Inc()
	return l.Evict()
}

// Restore replaces the log contents with events, in order, then runs
// eviction so stale or oversized input is trimmed exactly as if appended.
func (l *Log) Restore(events []event.Event) (EvictionReport, error) {
	l.entries = make([]entry, 0, len(events))
	l.bytes = 0
	for _, ev := range events {
		ev = ev.Clone()
		size := EstimateSize(ev)
		l.entries = append(l.entries, entry{ev: ev, size: size})
		l.bytes += size
	}
	return l.Evict()
}

// Clear empties the log.
func (l *Log) Clear() {
	l.entries = nil
	l.bytes = 0
	updateGauges(l)
}

// Evict applies count, age and size limits, in that order, oldest first.
func (l *Log) Evict() (EvictionReport, error) {
	var report EvictionReport

	// Count.
	if maxCount := l.limits.MaxLogSize; maxCount > 0 && len(l.entries) > maxCount {
		report.ByCount = len(l.entries) - maxCount
		l.dropOldest(report.ByCount)
	}

	// Age. Timestamps are usually monotonic in insertion order, but
	// rehydrated or clock-skewed events may not be, so every entry is checked.
	if maxAge := l.limits.Retention.MaxAge(); maxAge > 0 {
		cutoff := l.now().Add(-maxAge)
		kept := l.entries[:0]
		for _, e := range l.entries {
			if e.ev.Timestamp.Before(cutoff) {
				l.bytes -= e.size
				report.ByAge++
				continue
			}
			kept = append(kept, e)
		}
		clear(l.entries[len(kept):])
		l.entries = kept
	}

	// Size.
	var err error
	if maxSize := l.limits.Retention.MaxSize; maxSize > 0 && l.bytes > maxSize {
		drop := 0
		remaining := l.bytes
		for drop < len(l.entries)-1 && remaining > maxSize {
			remaining -= l.entries[drop].size
			drop++
		}
		report.BySize = drop
		l.dropOldest(drop)

		if l.bytes > maxSize {
			err = ErrCapacityExceeded
			capacityExceededTotal.Inc()
			newest := l.entries[len(l.entries)-1]
			l.logger.Warn().
				Str("event_id", newest.ev.ID).
				Int64("event_bytes", newest.size).
				Int64("max_size", maxSize).
				Msg("Single event exceeds log size limit, keeping it")
		}
	}

	recordEvictions(report)
	updateGauges(l)
	return report, err
}

// dropOldest removes the first n entries.
func (l *Log) dropOldest(n int) {
	if n <= 0 {
		return
	}
	for _, e := range l.entries[:n] {
		l.bytes -= e.size
	}
	l.entries = append([]entry(nil), l.entries[n:]...)
}

// Events returns copies of the retained events in insertion order.
func (l *Log) Events() []event.Event {
	out := make([]event.Event, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.ev.Clone()
	}
	return out
}

// EstimateSize returns the serialized size of ev in bytes.
func EstimateSize(ev event.Event) int64 {
	data, err := json.Marshal(ev)
	if err != nil {
		// Unencodable environment or metadata values; approximate from the
		// text fields so the event still counts against the limit.
		return int64(len(ev.ID) + len(ev.Message) + len(ev.Component) + len(ev.Context) + len(ev.Stack) + 256)
	}
	return int64(len(data))
}
