package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name     string
		class    Class
		expected bool
	}{
		{name: "client error should not retry", class: ClassClient, expected: false},
		{name: "auth error should not retry", class: ClassAuth, expected: false},
		{name: "server error should retry", class: ClassServer, expected: true},
		{name: "rate limit should retry", class: ClassRateLimit, expected: true},
		{name: "network error should retry", class: ClassNetwork, expected: true},
		{name: "timeout should retry", class: ClassTimeout, expected: true},
		{name: "unknown should not retry", class: ClassUnknown, expected: false},
		{name: "empty class should not retry", class: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.class); got != tt.expected {
				t.Errorf("Retryable(%q) = %v, want %v", tt.class, got, tt.expected)
			}
		})
	}
}

func TestClassForStatus(t *testing.T) {
	tests := []struct {
		code     int
		expected Class
	}{
		{401, ClassAuth},
		{403, ClassAuth},
		{400, ClassClient},
		{404, ClassClient},
		{408, ClassTimeout},
		{429, ClassRateLimit},
		{520, ClassRateLimit},
		{500, ClassServer},
		{503, ClassServer},
		{504, ClassTimeout},
		{200, ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			if got := ClassForStatus(tt.code); got != tt.expected {
				t.Errorf("ClassForStatus(%d) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Class
	}{
		{name: "nil", err: nil, expected: ClassUnknown},
		{name: "plain error", err: errors.New("boom"), expected: ClassUnknown},
		{name: "deadline exceeded", err: context.DeadlineExceeded, expected: ClassTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), expected: ClassTimeout},
		{name: "net timeout", err: timeoutErr{}, expected: ClassTimeout},
		{
			name:     "op error",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")},
			expected: ClassNetwork,
		},
		{name: "connection refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), expected: ClassNetwork},
		{name: "status 401", err: &StatusError{StatusCode: 401}, expected: ClassAuth},
		{name: "status 503 wrapped", err: fmt.Errorf("report: %w", &StatusError{StatusCode: 503}), expected: ClassServer},
		{name: "explicit class wins", err: &StatusError{StatusCode: 500, Class: ClassRateLimit}, expected: ClassRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.expected {
				t.Errorf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStatusError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StatusError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &StatusError{
				StatusCode: 500,
				Class:      ClassServer,
				Message:    "internal server error",
				Err:        errors.New("connection refused"),
			},
			expected: "server error (status 500): internal server error: connection refused",
		},
		{
			name:     "class derived from status",
			err:      &StatusError{StatusCode: 404, Message: "not found"},
			expected: "client error (status 404): not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStatusError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &StatusError{StatusCode: 502, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}
