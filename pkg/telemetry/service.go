// Package telemetry is the error telemetry engine: it classifies raw
// failures, keeps them in a bounded log, derives health metrics and
// escalates severe events to a reporting sink.
//
// A Service is safe for concurrent use. Reporting never blocks on I/O:
// console, remote and store mirrors as well as auto-reports run on
// background goroutines that Close waits for.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/error-telemetry/pkg/autoreport"
	"github.com/Sternrassler/error-telemetry/pkg/errorlog"
	"github.com/Sternrassler/error-telemetry/pkg/event"
	"github.com/Sternrassler/error-telemetry/pkg/health"
	"github.com/Sternrassler/error-telemetry/pkg/logging"
	"github.com/Sternrassler/error-telemetry/pkg/retry"
	"github.com/Sternrassler/error-telemetry/pkg/sink"
	"github.com/Sternrassler/error-telemetry/pkg/store"
)

// ComponentSelf is the component of events the service logs about itself.
const ComponentSelf = "telemetry"

// metaInternal marks self-logged events.
const metaInternal = "internal"

// Closer is implemented by sinks that buffer and must be flushed on shutdown.
type Closer interface {
	Close(ctx context.Context) error
}

// Service is the telemetry engine for one session.
type Service struct {
	config Config

	mu         sync.Mutex
	log        *errorlog.Log
	classifier *event.Classifier
	gate       *autoreport.State
	levels     map[event.Severity]bool
	closed     bool

	sessionID    string
	sessionStart time.Time

	now         func() time.Time
	newID       func() string
	environment func() map[string]any
	logger      zerolog.Logger
	sinkTimeout time.Duration

	store    store.Store
	remote   sink.Sink
	reporter sink.Sink
	console  sink.Sink

	mirror *mirror
	tasks  sync.WaitGroup

	// baseCtx parents sink deliveries; cancelled when Close gives up waiting.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a Service. With rehydration enabled and a store configured,
// the stored log is loaded before New returns.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Service{
		config:      cfg,
		gate:        autoreport.NewState(),
		now:         time.Now,
		newID:       event.NewID,
		logger:      log.With().Str("component", "telemetry").Logger(),
		sinkTimeout: DefaultSinkTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.console == nil && cfg.EnableConsoleLogging {
		s.console = sink.NewConsole(s.logger.With().Str("sink", "console").Logger())
	}
	if len(cfg.LogLevels) > 0 {
		s.levels = make(map[event.Severity]bool, len(cfg.LogLevels))
		for _, sev := range cfg.LogLevels {
			s.levels[sev] = true
		}
	}

	s.classifier = event.NewClassifier(
		event.WithClock(s.now),
		event.WithIDGenerator(s.newID),
	)
	s.log = errorlog.New(cfg.Limits, errorlog.WithClock(s.now), errorlog.WithLogger(s.logger))

	s.sessionID = s.newID()
	s.sessionStart = s.now()
	s.baseCtx, s.cancel = context.WithCancel(context.Background())

	if s.store != nil && cfg.EnableLocalStorage {
		if cfg.Rehydrate {
			s.rehydrate()
		}
		s.mirror = newMirror(s.store, s.record, func(err error) {
			s.selfLog("store", fmt.Errorf("store mirror: %w", err))
		})
	}

	s.logger.Info().
		Str("session_id", s.sessionID).
		Int("max_log_size", cfg.MaxLogSize).
		Int("retention_days", cfg.Retention.Days).
		Bool("auto_report", cfg.AutoReport.Enabled && s.reporter != nil).
		Bool("store", s.mirror != nil).
		Int("rehydrated", s.log.Len()).
		Msg("Telemetry service started")

	return s, nil
}

func (s *Service) rehydrate() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	rec, err := s.store.Load(ctx)
	if errors.Is(err, store.ErrNoRecord) {
		return
	}
	if err != nil {
		s.selfLog("store", fmt.Errorf("rehydrate: %w", err))
		return
	}

	s.mu.Lock()
	report, _ := s.log.Restore(rec.Events)
	s.mu.Unlock()

	s.logger.Info().
		Int("loaded", len(rec.Events)).
		Int("evicted", report.Total()).
		Time("saved_at", rec.SavedAt).
		Msg("Rehydrated error log from store")
}

// Report classifies raw, stores the resulting event and schedules its
// mirrors and escalation. It never panics and always returns the stored event.
func (s *Service) Report(raw event.Raw, rc event.ReportContext) (ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			ev = s.selfLog("report", fmt.Errorf("%w: %v", event.ErrClassificationFailure, r))
		}
	}()

	if rc.Environment == nil {
		rc.Environment = s.captureEnvironment()
	}
	return s.report(raw, rc)
}

// captureEnvironment snapshots the platform outside s.mu. A panicking
// snapshotter leaves the event without an environment.
func (s *Service) captureEnvironment() (env map[string]any) {
	if s.environment == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug().Interface("panic", r).Msg("Environment snapshot failed")
			env = nil
		}
	}()
	return s.environment()
}

// ReportError is Report for a Go error.
func (s *Service) ReportError(err error, rc event.ReportContext) event.Event {
	return s.Report(event.FromError(err), rc)
}

func (s *Service) report(raw event.Raw, rc event.ReportContext) event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.classifier.Classify(raw, rc)
	report, err := s.log.Append(ev)
	escalate := s.reporter != nil && !s.closed && autoreport.ShouldAutoReport(ev, s.gate, s.config.AutoReport)
	if escalate {
		s.gate.RecordSent()
	}

	eventsReportedTotal.WithLabelValues(string(ev.Type), string(ev.Severity)).Inc()

	evLogger := logging.WithEvent(s.logger, ev)
	logEvent := evLogger.Debug()
	if err != nil {
		logEvent = evLogger.Warn().Err(err)
	}
	logEvent.
		Int("evicted", report.Total()).
		Bool("escalated", escalate).
		Msg("Event recorded")

	if s.closed {
		return ev
	}

	// Sinks read their own copy; the caller owns ev.
	out := ev.Clone()
	if s.mirrored(ev.Severity) {
		if s.console != nil && s.config.EnableConsoleLogging {
			s.deliver(s.console, out)
		}
		if s.remote != nil && s.config.EnableRemoteLogging {
			s.deliver(s.remote, out)
		}
	}
	if escalate {
		s.deliver(s.reporter, out)
	}
	if s.mirror != nil {
		s.mirror.notify()
	}

	return ev
}

// mirrored reports whether console and remote mirrors receive severity sev.
func (s *Service) mirrored(sev event.Severity) bool {
	return s.levels == nil || s.levels[sev]
}

// deliver sends ev through snk on a tracked goroutine. Caller holds s.mu.
func (s *Service) deliver(snk sink.Sink, ev event.Event) {
	s.tasks.Add(1)
	inflightSinkTasks.Inc()

	go func() {
		defer s.tasks.Done()
		defer inflightSinkTasks.Dec()
		defer func() {
			if r := recover(); r != nil {
				s.selfLog("sink:"+snk.Name(), fmt.Errorf("sink %s panicked: %v", snk.Name(), r))
			}
		}()

		ctx, cancel := context.WithTimeout(s.baseCtx, s.sinkTimeout)
		defer cancel()

		if err := sink.Deliver(ctx, snk, ev); err != nil {
			s.selfLog("sink:"+snk.Name(), err)
		}
	}()
}

// selfLog records an internal failure as a system/medium event. Self-logged
// events skip the gate and every mirror, so a failing sink cannot recurse.
func (s *Service) selfLog(source string, cause error) (ev event.Event) {
	internalErrorsTotal.WithLabelValues(source).Inc()

	ev = event.Event{
		ID:        s.safeID(),
		Timestamp: s.now(),
		Type:      event.TypeSystem,
		Severity:  event.SeverityMedium,
		Message:   cause.Error(),
		Component: ComponentSelf,
		Context:   source,
		Metadata:  map[string]any{metaInternal: true},
	}

	s.logger.Warn().
		Err(cause).
		Str("source", source).
		Str("event_id", ev.ID).
		Msg("Telemetry internal failure")

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Failed to record internal failure")
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.log.Append(ev)
	return ev
}

func (s *Service) safeID() (id string) {
	defer func() {
		if recover() != nil {
			id = event.NewID()
		}
	}()
	return s.newID()
}

// record snapshots the log for the store.
func (s *Service) record() store.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.NewRecord(s.log.Events(), s.now())
}

// Metrics derives health metrics for window and publishes them to Prometheus.
func (s *Service) Metrics(window errorlog.Window) health.Metrics {
	s.mu.Lock()
	events := s.log.Events()
	now := s.now()
	s.mu.Unlock()

	m := health.Compute(events, window, now, s.sessionStart)
	health.Observe(m)
	return m
}

// Query returns the events matching f in insertion order.
func (s *Service) Query(f errorlog.Filter) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Query(f)
}

// Clear empties the log. The auto-report quota is not restored.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Clear()
	if s.mirror != nil && !s.closed {
		s.mirror.notify()
	}
	s.logger.Info().Msg("Error log cleared")
}

// AutoReportsSent returns the number of escalations in this session.
func (s *Service) AutoReportsSent() int {
	return s.gate.Sent()
}

// RetryPolicy returns the configured policy for network consumers.
func (s *Service) RetryPolicy() retry.Policy {
	return s.config.Retry.Normalize()
}

// SessionID identifies the current session.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.config
}

// Close stops dispatching, waits for in-flight sink deliveries, flushes the
// store and closes buffering sinks. When ctx expires first, outstanding
// deliveries are cancelled. The log remains readable afterwards.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.cancel()
		<-done
		errs = append(errs, fmt.Errorf("waiting for sink deliveries: %w", ctx.Err()))
	}
	s.cancel()

	if s.mirror != nil {
		if err := s.mirror.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing store: %w", err))
		}
	}

	for _, snk := range []sink.Sink{s.reporter, s.remote, s.console} {
		if c, ok := snk.(Closer); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("closing sink %s: %w", snk.Name(), err))
			}
		}
	}

	s.mu.Lock()
	remaining := s.log.Len()
	s.mu.Unlock()

	s.logger.Info().
		Str("session_id", s.sessionID).
		Int("events", remaining).
		Int("auto_reports", s.gate.Sent()).
		Msg("Telemetry service stopped")

	return errors.Join(errs...)
}
