package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/error-telemetry/pkg/event"
	"github.com/Sternrassler/error-telemetry/pkg/retry"
)

// DefaultUserAgent identifies the collector client.
const DefaultUserAgent = "error-telemetry/1.0"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// HTTPConfig holds the webhook configuration.
type HTTPConfig struct {
	// URL of the collector endpoint (REQUIRED). Events are POSTed as JSON.
	URL string

	// Headers are added to every request (e.g. Authorization).
	Headers map[string]string

	UserAgent string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// Retry governs redelivery of transient failures.
	Retry retry.Policy

	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// HTTP posts events to a remote collector.
type HTTP struct {
	httpClient *http.Client
	config     HTTPConfig
	logger     zerolog.Logger
}

// NewHTTP creates a webhook sink.
func NewHTTP(cfg HTTPConfig, logger zerolog.Logger) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("collector url is required")
	}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		return nil, fmt.Errorf("collector url must be http(s): %q", cfg.URL)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.Retry = cfg.Retry.Normalize()

	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTP{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("sink", "http").Logger(),
	}, nil
}

// Name implements Sink.
func (h *HTTP) Name() string { return "http" }

// Send implements Sink. Transient failures are retried per the policy.
func (h *HTTP) Send(ctx context.Context, ev event.Event) error {
	body, err := json.Marshal(Scrub(ev))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return retry.Do(ctx, h.config.Retry, func(ctx context.Context) error {
		return h.post(ctx, body)
	}, retry.WithOnRetry(func(a retry.Attempt) {
		h.logger.Warn().
			Str("event_id", ev.ID).
			Int("attempt", a.Number).
			Str("error_class", string(a.Class)).
			Dur("backoff", a.Delay).
			Err(a.Err).
			Msg("Retrying event delivery after backoff")
	}))
}

func (h *HTTP) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.config.UserAgent)
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &retry.StatusError{
		StatusCode: resp.StatusCode,
		Class:      retry.ClassForStatus(resp.StatusCode),
		Message:    strings.TrimSpace(string(msg)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}
