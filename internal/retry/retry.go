// Package retry implements bounded exponential backoff for external calls.
// Fetch and embed calls are retried up to a fixed attempt cap; search and
// generation calls are never routed through this package.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/veritus-labs/scholia/internal/logger"
)

// Default configuration values.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 200 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultMultiplier   = 2.0
)

// Config controls the backoff behaviour.
type Config struct {
	// MaxAttempts is the total attempt cap, including the first try.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay growth.
	MaxDelay time.Duration

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64

	// RetryableErrors restricts retries to matching errors.
	// Empty means every error is retryable.
	RetryableErrors []error
}

// DefaultConfig returns the standard bounded-backoff configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// Do runs op until it succeeds, the attempt cap is reached, or the context
// is cancelled. The last error is returned when all attempts fail.
func Do(ctx context.Context, cfg Config, op func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = DefaultMultiplier
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			if attempt > 1 {
				logger.Debug("Retry succeeded on attempt %d", attempt)
			}
			return nil
		}
		lastErr = err

		if !retryable(err, cfg.RetryableErrors) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn("Attempt %d/%d failed: %v (retrying in %s)", attempt, cfg.MaxAttempts, err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(delay)):
		}

		delay = time.Duration(math.Min(float64(cfg.MaxDelay), float64(delay)*cfg.Multiplier))
	}

	return lastErr
}

// DoWithResult is Do for operations that return a value.
func DoWithResult[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = op()
		return err
	})
	return result, err
}

// retryable reports whether err matches the allowed set.
func retryable(err error, allowed []error) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if errors.Is(err, a) {
			return true
		}
	}
	return false
}

// jitter spreads the delay by up to +/-10% to avoid thundering herds.
func jitter(d time.Duration) time.Duration {
	offset := time.Duration(rand.Float64() * float64(d) * 0.1) //nolint:gosec // timing jitter, not crypto
	if rand.Intn(2) == 0 {                                     //nolint:gosec
		return d - offset
	}
	return d + offset
}
