package errors

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Retry configuration defaults.
const (
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 30 * time.Second
	DefaultJitter    = 0.4
)

// RetryConfig holds configuration for retry behavior. The alignment pipeline
// never retries on its own; RetryConfig is for callers that re-invoke a whole
// check after a transient failure.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryConfig returns a RetryConfig with default delays and the given
// number of retries.
func NewRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Jitter:     DefaultJitter,
	}
}

// Retry executes fn with exponential backoff while it fails with a retryable
// error. See RetryWithResult.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := RetryWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult executes fn with exponential backoff. Errors that are not
// retryable are returned immediately; a cancelled ctx stops the loop with the
// last error wrapped.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var (
		result  T
		lastErr error
	)

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return result, Wrapf(lastErr, "context cancelled after %d attempts", attempt)
			}
			return result, Wrap(err, "context cancelled before attempt")
		}

		var err error
		result, err = fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(lastErr) || attempt == cfg.MaxRetries {
			break
		}

		delay := CalculateBackoff(cfg.BaseDelay, cfg.MaxDelay, attempt, cfg.Jitter)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, Wrapf(lastErr, "context cancelled during backoff (attempt %d/%d)", attempt+1, cfg.MaxRetries)
		case <-timer.C:
		}
	}

	if cfg.MaxRetries > 0 && IsRetryable(lastErr) {
		return result, Wrapf(lastErr, "failed after %d retries", cfg.MaxRetries)
	}
	return result, lastErr
}

// CalculateBackoff computes min(base*2^attempt, max) scaled by a random
// factor in [1-jitter/2, 1+jitter/2].
func CalculateBackoff(base, maxDelay time.Duration, attempt int, jitter float64) time.Duration {
	exp := float64(base) * math.Pow(2, float64(attempt))
	if exp > float64(maxDelay) {
		exp = float64(maxDelay)
	}
	return time.Duration(exp * (1.0 - jitter/2 + jitter*rand.Float64()))
}
