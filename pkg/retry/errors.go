package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Common errors returned by Do.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled between attempts.
	ErrContextCancelled = errors.New("context cancelled")
)

// Class is the retry-relevant classification of a failure.
type Class string

const (
	// ClassNetwork represents connection-level failures (refused, reset, DNS).
	ClassNetwork Class = "network"

	// ClassTimeout represents deadlines and I/O timeouts.
	ClassTimeout Class = "timeout"

	// ClassRateLimit represents 429 (and 520 upstream throttling) responses.
	ClassRateLimit Class = "rate_limit"

	// ClassServer represents transient 5xx server errors.
	ClassServer Class = "server"

	// ClassAuth represents 401/403 authentication and authorization failures.
	ClassAuth Class = "auth"

	// ClassClient represents malformed requests (other 4xx).
	ClassClient Class = "client"

	// ClassUnknown is anything not recognized. It is never retried.
	ClassUnknown Class = "unknown"
)

// Classed is implemented by errors that know their own retry class.
type Classed interface {
	error
	RetryClass() Class
}

// StatusError is a failed remote call that produced a status code.
type StatusError struct {
	StatusCode int
	Class      Class
	Message    string

	// RetryAfter is the server-requested wait, if any.
	RetryAfter time.Duration

	Err error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	class := e.Class
	if class == "" {
		class = ClassForStatus(e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error (status %d): %s: %v", class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (status %d): %s", class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *StatusError) Unwrap() error {
	return e.Err
}

// RetryClass implements Classed.
func (e *StatusError) RetryClass() Class {
	if e.Class != "" {
		return e.Class
	}
	return ClassForStatus(e.StatusCode)
}

// ClassForStatus maps an HTTP status code to a class.
func ClassForStatus(code int) Class {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ClassAuth
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ClassTimeout
	case code == http.StatusTooManyRequests || code == 520:
		return ClassRateLimit
	case code >= 400 && code < 500:
		return ClassClient
	case code >= 500:
		return ClassServer
	default:
		return ClassUnknown
	}
}

// ClassifyError categorizes an error for retry decisions.
func ClassifyError(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	var classed Classed
	if errors.As(err, &classed) {
		return classed.RetryClass()
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return ClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return ClassNetwork
	}

	return ClassUnknown
}

// Retryable reports whether failures of class c are worth retrying.
func Retryable(c Class) bool {
	switch c {
	case ClassNetwork, ClassTimeout, ClassRateLimit, ClassServer:
		return true
	case ClassAuth, ClassClient:
		// Retrying would only burn budget on a request that cannot succeed.
		return false
	default:
		return false
	}
}
