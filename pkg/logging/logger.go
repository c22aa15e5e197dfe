// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service, when set, is attached to every line as "service".
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithEvent returns a child of logger carrying the identifying fields of ev:
// event_id, type, severity, component and, when known, error_class.
func WithEvent(logger zerolog.Logger, ev event.Event) zerolog.Logger {
	ctx := logger.With().
		Str("event_id", ev.ID).
		Str("type", string(ev.Type)).
		Str("severity", string(ev.Severity)).
		Str("component", ev.Component)
	if class, ok := ev.Metadata["error_class"].(string); ok {
		ctx = ctx.Str("error_class", class)
	}
	return ctx.Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Every recorded event (event_id, type, severity)
//   - Store snapshot writes
//   - Successful sink deliveries
//
// Info: Normal operation events
//   - Service startup/shutdown, rehydration
//   - Imports, exports and clears
//   - Low-severity events mirrored to the console
//
// Warn: Warning conditions that don't prevent operation
//   - Retry attempts
//   - Log capacity exceeded (newest event kept)
//   - Internal failures self-logged by the service
//   - Medium-severity events mirrored to the console
//
// Error: Error conditions requiring attention
//   - Critical and high events mirrored to the console
//   - Retry attempts exhausted
//   - Configuration errors
//
// Context Fields:
//   - event_id: Telemetry event ID
//   - type: Event type (component, api, network, ...)
//   - severity: Event severity
//   - component: Originating component (or "telemetry" for the service itself)
//   - error_class: Retry class (network, timeout, rate_limit, server, auth, client)
//   - attempt: Zero-based retry attempt
//   - backoff: Delay before the next attempt
//   - sink: Delivery destination (console, http, sentry)
