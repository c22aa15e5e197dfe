package telemetry

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/error-telemetry/pkg/sink"
	"github.com/Sternrassler/error-telemetry/pkg/store"
)

// DefaultSinkTimeout bounds a single sink delivery.
const DefaultSinkTimeout = 30 * time.Second

// Option configures a Service.
type Option func(*Service)

// WithStore sets the persistence backend for the store mirror and rehydration.
func WithStore(s store.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithRemoteSink sets the remote logging mirror.
func WithRemoteSink(s sink.Sink) Option {
	return func(svc *Service) { svc.remote = s }
}

// WithReporter sets the auto-report sink.
func WithReporter(s sink.Sink) Option {
	return func(svc *Service) { svc.reporter = s }
}

// WithConsoleSink replaces the default console sink.
func WithConsoleSink(s sink.Sink) Option {
	return func(svc *Service) { svc.console = s }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(svc *Service) { svc.logger = logger }
}

// WithEnvironment sets the snapshot attached to every event. capture runs
// before the service lock is taken, so it may block on system calls.
func WithEnvironment(capture func() map[string]any) Option {
	return func(svc *Service) { svc.environment = capture }
}

// WithIDGenerator replaces event ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(svc *Service) {
		if newID != nil {
			svc.newID = newID
		}
	}
}

// WithSinkTimeout bounds each sink delivery.
func WithSinkTimeout(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.sinkTimeout = d
		}
	}
}
