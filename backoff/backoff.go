// Package backoff provides the per-item retry policy for batch execution.
// All strategies are safe for concurrent use (they are stateless).
package backoff

import (
	"math"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retrying after failed attempt n
	// (0-indexed). Attempt 0 is the initial call; its failure produces the
	// first retry delay.
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^attempt, Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^attempt, capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// Policy
// ──────────────────────────────────────────────────

// Policy couples a retry budget with a delay strategy. It is a pure
// decision function: it never distinguishes error kinds — processors that
// need kind-specific retry must filter before returning the error.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero means a single attempt with no retries.
	MaxRetries int

	// Strategy computes the delay before each retry. Nil means retry
	// immediately.
	Strategy Strategy
}

// NewPolicy builds a Policy from plain configuration values. When
// exponential is true the delay doubles each attempt starting at initial,
// capped at maxDelay; otherwise the delay is the fixed initial interval.
func NewPolicy(maxRetries int, initial, maxDelay time.Duration, exponential bool) Policy {
	var s Strategy
	if exponential {
		s = NewExponential(initial, maxDelay)
	} else {
		s = NewConstant(initial)
	}
	return Policy{MaxRetries: maxRetries, Strategy: s}
}

// ShouldRetry reports whether another attempt is allowed after failed
// attempt n (0-indexed).
func (p Policy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxRetries
}

// Delay returns the wait before retrying after failed attempt n (0-indexed).
func (p Policy) Delay(attempt int) time.Duration {
	if p.Strategy == nil {
		return 0
	}
	return p.Strategy.Delay(attempt)
}

// DefaultPolicy returns the policy used when a batch config leaves the
// retry section zero-valued: 3 retries, exponential from 1s capped at 1m.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		Strategy:   NewExponential(1*time.Second, 1*time.Minute),
	}
}
