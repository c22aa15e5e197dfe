// Package sink delivers telemetry events to destinations outside the log:
// the console, a remote collector over HTTP, and Sentry.
//
// Sinks are invoked off the reporting path and their failures never reach
// the reporter. Everything that leaves the process is scrubbed first.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

var (
	sinkSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_sink_sends_total",
		Help: "Total sink deliveries by sink and status",
	}, []string{"sink", "status"}) // status: "ok", "error"

	sinkSendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "telemetry_sink_send_duration_seconds",
		Help:    "Sink delivery duration in seconds by sink",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"sink"})
)

// Sink receives events.
type Sink interface {
	// Name identifies the sink in logs, metrics and errors.
	Name() string

	// Send delivers one event. Implementations must honour ctx.
	Send(ctx context.Context, ev event.Event) error
}

// Error is a failed delivery.
type Error struct {
	Sink    string
	EventID string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("sink %s: event %s: %v", e.Sink, e.EventID, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Deliver sends ev through s, recording metrics and wrapping failures in *Error.
func Deliver(ctx context.Context, s Sink, ev event.Event) error {
	start := time.Now()
	err := s.Send(ctx, ev)
	sinkSendDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		sinkSendsTotal.WithLabelValues(s.Name(), "error").Inc()
		return &Error{Sink: s.Name(), EventID: ev.ID, Err: err}
	}
	sinkSendsTotal.WithLabelValues(s.Name(), "ok").Inc()
	return nil
}

// Func adapts a function to Sink.
type Func struct {
	SinkName string
	Fn       func(ctx context.Context, ev event.Event) error
}

// Name implements Sink.
func (f Func) Name() string { return f.SinkName }

// Send implements Sink.
func (f Func) Send(ctx context.Context, ev event.Event) error { return f.Fn(ctx, ev) }
