// Package event defines the normalized error record and the classifier that
// turns raw failures into it.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a normalized record of one failure occurrence.
// Events are never mutated after construction; corrections are new events.
type Event struct {
	// ID is a UUIDv7 (time-ordered prefix, random suffix) used for
	// deduplication and UI keying.
	ID string `json:"id"`

	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`

	Type     Type     `json:"type"`
	Severity Severity `json:"severity"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Component is the originating logical component, used for grouping.
	Component string `json:"component"`

	// Context tags the action that triggered the failure.
	Context string `json:"context,omitempty"`

	// Stack is the raw stack trace, when one was available.
	Stack string `json:"stack,omitempty"`

	// Environment is the platform snapshot taken at event time. It is not
	// interpreted by the engine.
	Environment map[string]any `json:"environment,omitempty"`

	// Metadata carries caller-supplied key/value pairs.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Clone returns a copy of e that shares no maps or slices with it.
// The log stores clones and hands out clones, so callers and sinks can
// never alias a retained event.
func (e Event) Clone() Event {
	e.Environment = cloneMap(e.Environment)
	e.Metadata = cloneMap(e.Metadata)
	return e
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the container shapes produced by JSON decoding.
// Other values are copied by assignment.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// NewID generates a new event identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
