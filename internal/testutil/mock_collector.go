// Package testutil provides test doubles for the telemetry sinks.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// CollectorPath is the path the mock collector accepts events on.
const CollectorPath = "/v1/events"

// MockResponse defines the behavior for one mock collector response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCollector is a configurable mock remote collector.
// Responses are served in order; once exhausted, the collector answers 202.
type MockCollector struct {
	server *httptest.Server

	mu        sync.Mutex
	responses []MockResponse
	events    []event.Event
	requests  int
	lastHdr   http.Header
}

// NewMockCollector creates and starts a mock collector.
func NewMockCollector() *MockCollector {
	mock := &MockCollector{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != CollectorPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}

		mock.mu.Lock()
		mock.requests++
		mock.lastHdr = r.Header.Clone()
		resp := MockResponse{StatusCode: http.StatusAccepted}
		if len(mock.responses) > 0 {
			resp = mock.responses[0]
			mock.responses = mock.responses[1:]
		}
		mock.mu.Unlock()

		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			var ev event.Event
			if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			mock.mu.Lock()
			mock.events = append(mock.events, ev)
			mock.mu.Unlock()
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// URL returns the collector endpoint URL.
func (m *MockCollector) URL() string {
	return m.server.URL + CollectorPath
}

// Close shuts down the mock server.
func (m *MockCollector) Close() {
	m.server.Close()
}

// Enqueue queues responses served before the default 202.
func (m *MockCollector) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// Events returns the events accepted so far.
func (m *MockCollector) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.Event(nil), m.events...)
}

// RequestCount returns the number of requests received.
func (m *MockCollector) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// LastHeader returns the headers of the most recent request.
func (m *MockCollector) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHdr
}

// NewServerErrorResponse creates a 503 Service Unavailable response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"error": "collector unavailable"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 response with a Retry-After header.
func NewRateLimitResponse(retryAfter string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "rate limit exceeded"}`,
		Headers:    map[string]string{"Retry-After": retryAfter},
	}
}

// NewUnauthorizedResponse creates a 401 response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"error": "invalid token"}`,
	}
}
