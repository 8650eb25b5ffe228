package broker

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/backoff"
	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// RetryConfig controls retries of storage operations.
type RetryConfig struct {
	// MaxAttempts includes the first try.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure; it doubles per attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait.
	MaxBackoff time.Duration

	// JitterFraction randomizes each wait by up to this fraction in either direction.
	JitterFraction float64
}

// DefaultRetryConfig returns the retry configuration for storage writes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		JitterFraction: 0.1,
	}
}

// retryWithBackoff runs op until it succeeds, attempts run out, or ctx ends.
// Context errors and lost job ownership are not retried.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, op func() error) error {
	strategy := backoff.Exponential{Initial: cfg.InitialBackoff, Max: cfg.MaxBackoff}

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, core.ErrJobNotOwned) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(strategy.Delay(attempt), cfg.JitterFraction)):
		}
	}
}

func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	j := d + time.Duration(float64(d)*fraction*(rand.Float64()*2-1))
	if j < 0 {
		return d
	}
	return j
}
