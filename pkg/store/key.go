package store

import "strings"

// Key identifies the record of one telemetry namespace.
type Key struct {
	// Namespace separates applications sharing a backend (e.g. "checkout-ui").
	Namespace string

	// Scope optionally narrows the namespace (e.g. a deployment or tenant).
	Scope string
}

// DefaultNamespace is used when Key.Namespace is empty.
const DefaultNamespace = "default"

// String generates the backend key.
// Format: telemetry:namespace[:scope]:log
//
// Example:
//
//	telemetry:checkout-ui:eu-west:log
func (k Key) String() string {
	parts := []string{"telemetry", normalize(k.Namespace, DefaultNamespace)}
	if scope := normalize(k.Scope, ""); scope != "" {
		parts = append(parts, scope)
	}
	parts = append(parts, "log")
	return strings.Join(parts, ":")
}

// normalize lowercases s and replaces characters that would break the key layout.
func normalize(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(":", "_", " ", "_").Replace(s)
	if s == "" {
		return fallback
	}
	return s
}
