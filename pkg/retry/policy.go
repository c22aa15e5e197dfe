// Package retry computes bounded exponential backoff for failing remote
// operations and provides a context-aware loop that applies it.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Policy holds the configuration for retry decisions.
type Policy struct {
	// MaxRetries is the number of retries allowed after the initial attempt.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration `yaml:"base_delay" json:"base_delay"`

	// Multiplier is the exponential growth factor. Values <= 1 are replaced by 2.
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`

	// MaxDelay caps every delay.
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`

	// Jitter is the ± fraction applied by Do to spread concurrent callers.
	// NextAttempt itself never jitters.
	Jitter float64 `yaml:"jitter" json:"jitter"`
}

// Decision is the outcome of NextAttempt.
type Decision struct {
	ShouldRetry bool
	Delay       time.Duration
}

// DefaultPolicy returns the default retry configuration.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		Multiplier: 2.0,
		MaxDelay:   30 * time.Second,
		Jitter:     0.2,
	}
}

// Normalize fills zero or invalid fields from DefaultPolicy.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = def.Multiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Jitter > 1 {
		p.Jitter = 1
	}
	return p
}

// NextAttempt decides whether a failure on the given zero-based attempt
// should be retried, and after how long.
func (p Policy) NextAttempt(attempt int, class Class) Decision {
	p = p.Normalize()
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= p.MaxRetries || !Retryable(class) {
		return Decision{}
	}
	return Decision{ShouldRetry: true, Delay: p.Delay(attempt)}
}

// Delay returns BaseDelay * Multiplier^attempt capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.Normalize()
	if attempt < 0 {
		attempt = 0
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Jittered spreads d by ±Jitter.
func (p Policy) Jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	factor := 1 - p.Jitter + rand.Float64()*2*p.Jitter
	return time.Duration(float64(d) * factor)
}
