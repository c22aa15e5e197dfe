package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// ErrNotCaptured indicates the Sentry client dropped the event (sampling,
// rate limiting or a BeforeSend filter).
var ErrNotCaptured = errors.New("sentry did not capture event")

// SentryConfig configures the Sentry sink.
type SentryConfig struct {
	// DSN is the project DSN. Empty disables network delivery unless
	// Transport is set.
	DSN string

	Environment string
	Release     string

	// Transport overrides the HTTP transport (tests).
	Transport sentry.Transport

	// FlushTimeout bounds Close when ctx has no deadline.
	FlushTimeout time.Duration

	Debug bool
}

// Sentry reports events to Sentry through a dedicated hub, so it never
// touches the process-global client.
type Sentry struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
	logger       zerolog.Logger
}

// NewSentry creates a Sentry sink.
func NewSentry(cfg SentryConfig, logger zerolog.Logger) (*Sentry, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		Transport:        cfg.Transport,
		Debug:            cfg.Debug,
		SendDefaultPII:   false,
		AttachStacktrace: false,
		SampleRate:       1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("create sentry client: %w", err)
	}

	timeout := cfg.FlushTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Sentry{
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: timeout,
		logger:       logger.With().Str("sink", "sentry").Logger(),
	}, nil
}

// Name implements Sink.
func (s *Sentry) Name() string { return "sentry" }

// Send implements Sink.
func (s *Sentry) Send(ctx context.Context, ev event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := s.hub.CaptureEvent(toSentryEvent(Scrub(ev)))
	if id == nil {
		return ErrNotCaptured
	}

	s.logger.Debug().
		Str("event_id", ev.ID).
		Str("sentry_event_id", string(*id)).
		Msg("Event reported to Sentry")
	return nil
}

// Close flushes buffered events.
func (s *Sentry) Close(ctx context.Context) error {
	timeout := s.flushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !s.hub.Flush(timeout) {
		return fmt.Errorf("sentry flush timed out after %s", timeout)
	}
	return nil
}

func toSentryEvent(ev event.Event) *sentry.Event {
	title := fmt.Sprintf("%s error in %s", ev.Type, ev.Component)

	se := sentry.NewEvent()
	se.Level = SentryLevel(ev.Severity)
	se.Message = ev.Message
	se.Timestamp = ev.Timestamp
	se.Exception = []sentry.Exception{{
		Type:  title,
		Value: ev.Message,
	}}
	se.Fingerprint = []string{string(ev.Type), ev.Component, ev.Message}

	se.Tags["component"] = ev.Component
	se.Tags["type"] = string(ev.Type)
	se.Tags["severity"] = string(ev.Severity)
	se.Tags["telemetry_event_id"] = ev.ID
	if class, ok := ev.Metadata["error_class"].(string); ok {
		se.Tags["error_class"] = class
	}

	report := map[string]any{}
	if ev.Context != "" {
		report["context"] = ev.Context
	}
	if ev.Stack != "" {
		report["stack"] = ev.Stack
	}
	for k, v := range ev.Metadata {
		report[k] = v
	}
	if len(report) > 0 {
		se.Contexts["report"] = report
	}
	if len(ev.Environment) > 0 {
		se.Contexts["environment"] = ev.Environment
	}

	return se
}

// SentryLevel maps a severity to a Sentry level.
func SentryLevel(s event.Severity) sentry.Level {
	switch s {
	case event.SeverityCritical:
		return sentry.LevelFatal
	case event.SeverityHigh:
		return sentry.LevelError
	case event.SeverityMedium:
		return sentry.LevelWarning
	case event.SeverityLow:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
