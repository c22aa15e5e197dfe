package sink

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/error-telemetry/pkg/event"
	"github.com/Sternrassler/error-telemetry/pkg/logging"
)

// Console writes events to a zerolog logger. The level follows the severity.
type Console struct {
	logger zerolog.Logger
}

// NewConsole creates a console sink.
func NewConsole(logger zerolog.Logger) *Console {
	return &Console{logger: logger}
}

// Name implements Sink.
func (c *Console) Name() string { return "console" }

// Send implements Sink.
func (c *Console) Send(_ context.Context, ev event.Event) error {
	logger := logging.WithEvent(c.logger, ev)
	e := logger.WithLevel(LevelFor(ev.Severity))

	if ev.Context != "" {
		e = e.Str("context", ev.Context)
	}
	if ev.Stack != "" && c.logger.GetLevel() <= zerolog.DebugLevel {
		e = e.Str("stack", ev.Stack)
	}

	e.Msg(ev.Message)
	return nil
}

// LevelFor maps a severity to a log level.
func LevelFor(s event.Severity) zerolog.Level {
	switch s {
	case event.SeverityCritical, event.SeverityHigh:
		return zerolog.ErrorLevel
	case event.SeverityMedium:
		return zerolog.WarnLevel
	case event.SeverityLow:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
