package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "telemetry_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Attempt describes a failed attempt that is about to be retried.
type Attempt struct {
	Number int
	Class  Class
	Err    error
	Delay  time.Duration
}

type doOptions struct {
	classify func(error) Class
	onRetry  func(Attempt)
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures Do.
type Option func(*doOptions)

// WithClassifier replaces ClassifyError.
func WithClassifier(classify func(error) Class) Option {
	return func(o *doOptions) {
		if classify != nil {
			o.classify = classify
		}
	}
}

// WithOnRetry registers a callback invoked before each backoff wait.
func WithOnRetry(fn func(Attempt)) Option {
	return func(o *doOptions) {
		o.onRetry = fn
	}
}

// withSleep replaces the backoff wait; used by tests.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *doOptions) {
		o.sleep = sleep
	}
}

// Do runs fn until it succeeds, fails with a non-retryable class, the policy
// gives up, or ctx is cancelled. Cancellation is only observed between
// attempts; an in-flight attempt receives ctx and is expected to honour it.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error, opts ...Option) error {
	o := doOptions{
		classify: ClassifyError,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(&o)
	}
	policy = policy.Normalize()

	var lastErr error
	var class Class

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				return fmt.Errorf("%w: %w", ErrContextCancelled, err)
			}
			return fmt.Errorf("%w: %w (last error: %w)", ErrContextCancelled, err, lastErr)
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info().
					Str("error_class", string(class)).
					Int("attempt", attempt).
					Msg("Operation succeeded after retry")
			}
			return nil
		}

		lastErr = err
		class = o.classify(err)

		decision := policy.NextAttempt(attempt, class)
		if !decision.ShouldRetry {
			if !Retryable(class) {
				return lastErr
			}
			break
		}

		delay := policy.Jittered(decision.Delay)
		if se, ok := asStatusError(err); ok && se.RetryAfter > delay {
			delay = min(se.RetryAfter, policy.MaxDelay)
		}

		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())

		log.Debug().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying operation after backoff")

		if o.onRetry != nil {
			o.onRetry(Attempt{Number: attempt, Class: class, Err: err, Delay: delay})
		}

		if err := o.sleep(ctx, delay); err != nil {
			log.Warn().
				Str("error_class", string(class)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w (last error: %w)", ErrContextCancelled, err, lastErr)
		}
	}

	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	log.Warn().
		Str("error_class", string(class)).
		Int("max_retries", policy.MaxRetries).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, policy.MaxRetries+1, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func asStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	ok := errors.As(err, &se)
	return se, ok
}
