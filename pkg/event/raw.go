package event

import (
	"fmt"
)

// Kind tags the shape of a raw failure.
type Kind string

const (
	// KindException is a Go error value.
	KindException Kind = "exception"

	// KindString is a bare message.
	KindString Kind = "string"

	// KindStructured is a key/value payload, e.g. decoded from JSON.
	KindStructured Kind = "structured"
)

// Raw is the closed union of failure representations accepted by Classify.
// Exactly one of Err, Text or Payload is meaningful, selected by Kind.
type Raw struct {
	Kind    Kind
	Err     error
	Text    string
	Payload map[string]any
}

// FromError wraps an error value.
func FromError(err error) Raw {
	return Raw{Kind: KindException, Err: err}
}

// FromString wraps a bare message.
func FromString(msg string) Raw {
	return Raw{Kind: KindString, Text: msg}
}

// FromPayload wraps a structured payload. Recognized keys are "message",
// "type", "severity", "component", "context", "stack" and "metadata";
// everything else is kept as metadata.
func FromPayload(payload map[string]any) Raw {
	return Raw{Kind: KindStructured, Payload: payload}
}

// String renders the raw failure for use as a fallback message.
func (r Raw) String() string {
	switch r.Kind {
	case KindException:
		if r.Err == nil {
			return "<nil error>"
		}
		return r.Err.Error()
	case KindString:
		return r.Text
	case KindStructured:
		return fmt.Sprintf("%v", r.Payload)
	default:
		switch {
		case r.Err != nil:
			return r.Err.Error()
		case r.Text != "":
			return r.Text
		case r.Payload != nil:
			return fmt.Sprintf("%v", r.Payload)
		}
		return fmt.Sprintf("unclassified failure (kind %q)", string(r.Kind))
	}
}

// ReportContext is the caller-side hint accompanying a raw failure.
// Zero values mean "infer".
type ReportContext struct {
	// Component is the logical component reporting the failure.
	Component string

	// Action tags what the component was doing.
	Action string

	// Type overrides type inference.
	Type Type

	// Severity overrides severity inference.
	Severity Severity

	// Panic marks failures recovered from a panic in a render/handler path.
	Panic bool

	// Metadata is merged into the event metadata.
	Metadata map[string]any

	// Environment is the platform snapshot attached to the event. A snapshot
	// flagged by environment.Capture as under memory pressure makes the
	// event critical when no severity is given, and system when no type is.
	Environment map[string]any
}
