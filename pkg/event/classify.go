package event

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Sternrassler/error-telemetry/pkg/environment"
	"github.com/Sternrassler/error-telemetry/pkg/retry"
)

// ComponentUnknown is used when the reporter did not name a component.
const ComponentUnknown = "unknown"

// ErrMemoryPressure can be wrapped by callers to flag allocation failures
// or low-memory conditions. Such events are always classified critical.
var ErrMemoryPressure = stderrors.New("memory pressure")

// ErrClassificationFailure is recorded in event metadata when the raw input
// could not be normalized and a default event was produced instead.
var ErrClassificationFailure = stderrors.New("classification failure")

// memoryPressureHints are message fragments that indicate allocation failure.
var memoryPressureHints = []string{
	"out of memory",
	"cannot allocate memory",
	"memory pressure",
	"quota exceeded",
}

// stackTracer is implemented by errors created with github.com/pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Classifier turns raw failures into events. The zero value is not usable;
// use NewClassifier.
type Classifier struct {
	now   func() time.Time
	newID func() string
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithClock sets the time source used for event timestamps.
func WithClock(now func() time.Time) ClassifierOption {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(newID func() string) ClassifierOption {
	return func(c *Classifier) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// NewClassifier creates a classifier.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify normalizes a raw failure into an Event. It never panics: input
// that cannot be normalized degrades to a system/medium event whose message
// is the stringified input.
func (c *Classifier) Classify(raw Raw, rc ReportContext) (ev Event) {
	ev = Event{
		ID:        c.newID(),
		Timestamp: c.now(),
		Component: rc.Component,
		Context:   rc.Action,
		Metadata:  cloneMap(rc.Metadata),
	}
	if ev.Component == "" {
		ev.Component = ComponentUnknown
	}

	defer func() {
		if r := recover(); r != nil {
			ev.Type = TypeSystem
			ev.Severity = SeverityMedium
			ev.Message = safeString(raw)
			ev.Metadata = withMeta(ev.Metadata, "classification_error",
				fmt.Sprintf("%v: %v", ErrClassificationFailure, r))
		}
	}()

	ev.Environment = cloneMap(rc.Environment)
	pressure := environment.UnderMemoryPressure(ev.Environment)

	switch raw.Kind {
	case KindException:
		c.classifyError(&ev, raw.Err, rc, pressure)
	case KindString:
		c.classifyText(&ev, raw.Text, rc, pressure)
	case KindStructured:
		c.classifyPayload(&ev, raw.Payload, rc, pressure)
	default:
		ev.Type = TypeSystem
		ev.Severity = SeverityMedium
		ev.Message = raw.String()
		ev.Metadata = withMeta(ev.Metadata, "classification_error", ErrClassificationFailure.Error())
	}

	return ev
}

func (c *Classifier) classifyError(ev *Event, err error, rc ReportContext, pressure bool) {
	if err == nil {
		ev.Type = TypeSystem
		ev.Severity = SeverityMedium
		ev.Message = "<nil error>"
		ev.Metadata = withMeta(ev.Metadata, "classification_error", ErrClassificationFailure.Error())
		return
	}

	ev.Message = err.Error()
	ev.Stack = extractStack(err)

	inferredType, inferredSeverity := inferFromError(err, rc.Panic)
	if pressure {
		inferredType, inferredSeverity = TypeSystem, SeverityCritical
	}
	ev.Type = pickType(rc.Type, inferredType)
	ev.Severity = pickSeverity(rc.Severity, inferredSeverity, ev.Type)

	if class := retry.ClassifyError(err); class != retry.ClassUnknown {
		ev.Metadata = withMeta(ev.Metadata, "error_class", string(class))
	}
}

func (c *Classifier) classifyText(ev *Event, text string, rc ReportContext, pressure bool) {
	ev.Message = text
	var inferredType Type
	var inferredSeverity Severity
	if pressure || isMemoryPressure(text) {
		inferredType, inferredSeverity = TypeSystem, SeverityCritical
	} else if rc.Panic {
		inferredType, inferredSeverity = TypeComponent, SeverityHigh
	}
	ev.Type = pickType(rc.Type, inferredType)
	ev.Severity = pickSeverity(rc.Severity, inferredSeverity, ev.Type)
}

func (c *Classifier) classifyPayload(ev *Event, payload map[string]any, rc ReportContext, pressure bool) {
	if payload == nil {
		ev.Type = pickType(rc.Type, "")
		ev.Severity = pickSeverity(rc.Severity, "", ev.Type)
		ev.Message = "<empty payload>"
		return
	}

	var payloadType Type
	var payloadSeverity Severity
	for key, value := range payload {
		switch key {
		case "message":
			ev.Message = fmt.Sprint(value)
		case "type":
			if t, err := ParseType(fmt.Sprint(value)); err == nil {
				payloadType = t
			}
		case "severity":
			if s, err := ParseSeverity(fmt.Sprint(value)); err == nil {
				payloadSeverity = s
			}
		case "component":
			if rc.Component == "" {
				ev.Component = fmt.Sprint(value)
			}
		case "context":
			if rc.Action == "" {
				ev.Context = fmt.Sprint(value)
			}
		case "stack":
			ev.Stack = fmt.Sprint(value)
		case "metadata":
			if m, ok := value.(map[string]any); ok {
				for k, v := range m {
					ev.Metadata = withMeta(ev.Metadata, k, cloneValue(v))
				}
			}
		default:
			ev.Metadata = withMeta(ev.Metadata, key, cloneValue(value))
		}
	}
	if ev.Message == "" {
		ev.Message = fmt.Sprintf("%v", payload)
	}

	// Explicit caller context beats the payload, which beats inference.
	inferredType, inferredSeverity := payloadType, payloadSeverity
	if inferredSeverity == "" && (pressure || isMemoryPressure(ev.Message)) {
		inferredSeverity = SeverityCritical
		if inferredType == "" {
			inferredType = TypeSystem
		}
	}
	ev.Type = pickType(rc.Type, inferredType)
	ev.Severity = pickSeverity(rc.Severity, inferredSeverity, ev.Type)
}

// inferFromError derives type and severity from the error chain.
// Empty results mean "no opinion".
func inferFromError(err error, panicked bool) (Type, Severity) {
	if stderrors.Is(err, ErrMemoryPressure) || isMemoryPressure(err.Error()) {
		return TypeSystem, SeverityCritical
	}

	switch retry.ClassifyError(err) {
	case retry.ClassAuth:
		return TypeNetwork, SeverityHigh
	case retry.ClassTimeout:
		return TypeNetwork, SeverityMedium
	case retry.ClassRateLimit:
		return TypeNetwork, SeverityMedium
	case retry.ClassNetwork:
		return TypeNetwork, SeverityMedium
	case retry.ClassServer:
		return TypeAPI, SeverityMedium
	case retry.ClassClient:
		return TypeAPI, SeverityMedium
	}

	if stderrors.Is(err, context.Canceled) {
		return TypeSystem, SeverityLow
	}

	if panicked {
		return TypeComponent, SeverityHigh
	}

	return "", ""
}

func pickType(explicit, inferred Type) Type {
	if explicit.Valid() {
		return explicit
	}
	if inferred.Valid() {
		return inferred
	}
	return TypeSystem
}

func pickSeverity(explicit, inferred Severity, t Type) Severity {
	if explicit.Valid() {
		return explicit
	}
	if inferred.Valid() {
		return inferred
	}
	return defaultSeverity(t)
}

func isMemoryPressure(msg string) bool {
	lower := strings.ToLower(msg)
	for _, hint := range memoryPressureHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func extractStack(err error) string {
	var st stackTracer
	if stderrors.As(err, &st) {
		return strings.TrimSpace(fmt.Sprintf("%+v", st.StackTrace()))
	}
	return ""
}

// safeString stringifies raw without letting a misbehaving Error method escape.
func safeString(raw Raw) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("unprintable failure (kind %q)", string(raw.Kind))
		}
	}()
	return raw.String()
}

func withMeta(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = make(map[string]any)
	}
	m[key] = value
	return m
}
