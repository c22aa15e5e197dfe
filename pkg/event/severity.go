package event

import (
	"fmt"
	"strings"
)

// Severity is the urgency tier of an event.
type Severity string

const (
	// SeverityCritical marks failures that take a feature or the session down.
	SeverityCritical Severity = "critical"

	// SeverityHigh marks failures the user will notice.
	SeverityHigh Severity = "high"

	// SeverityMedium is the default for failures that degrade but do not break.
	SeverityMedium Severity = "medium"

	// SeverityLow marks recoverable or cosmetic failures.
	SeverityLow Severity = "low"

	// SeverityInfo marks diagnostic reports that are not failures.
	SeverityInfo Severity = "info"
)

// Severities lists every severity from most to least urgent.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank returns the position of s on the severity ordering (critical = 4, info = 0).
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	case SeverityInfo:
		return 0
	default:
		return -1
	}
}

// AtLeast reports whether s is at or above threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.Rank() >= threshold.Rank()
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s.Rank() >= 0
}

// ParseSeverity converts a case-insensitive name into a Severity.
// "warning" and "error" are accepted as aliases for medium and high.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "fatal":
		return SeverityCritical, nil
	case "high", "error":
		return SeverityHigh, nil
	case "medium", "warning", "warn":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	case "info", "debug":
		return SeverityInfo, nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// Type is the subsystem an event originated from.
type Type string

const (
	TypeComponent     Type = "component"
	TypeAPI           Type = "api"
	TypeAudio         Type = "audio"
	TypeVisualization Type = "visualization"
	TypeNetwork       Type = "network"
	TypeSystem        Type = "system"
	TypeUser          Type = "user"
)

// Types lists every event type.
var Types = []Type{TypeComponent, TypeAPI, TypeAudio, TypeVisualization, TypeNetwork, TypeSystem, TypeUser}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	switch t {
	case TypeComponent, TypeAPI, TypeAudio, TypeVisualization, TypeNetwork, TypeSystem, TypeUser:
		return true
	default:
		return false
	}
}

// ParseType converts a case-insensitive name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// defaultSeverity is used when neither the caller nor the error itself
// carries a severity.
func defaultSeverity(t Type) Severity {
	switch t {
	case TypeComponent:
		return SeverityHigh
	case TypeUser:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
