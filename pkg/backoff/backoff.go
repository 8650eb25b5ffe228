// Package backoff provides the retry delay strategies applied to failed jobs.
// All strategies are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// DefaultDelay is used when a job's backoff policy carries no delay.
const DefaultDelay = time.Second

// MaxDelay caps every computed delay.
const MaxDelay = time.Hour

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	Delay(attempt int) time.Duration
}

// Fixed always returns the same delay regardless of attempt number.
type Fixed struct {
	Interval time.Duration
}

// Delay returns the fixed interval.
func (f Fixed) Delay(_ int) time.Duration {
	return f.Interval
}

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && d > float64(e.Max) {
		return e.Max
	}
	return time.Duration(d)
}

// For returns the strategy described by a job backoff policy.
// Unknown kinds fall back to exponential.
func For(b core.Backoff) Strategy {
	delay := b.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	if b.Kind == core.BackoffFixed {
		return Fixed{Interval: delay}
	}
	return Exponential{Initial: delay, Max: MaxDelay}
}
