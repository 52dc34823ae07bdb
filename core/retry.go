package core

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy determines retry behavior after a transport-level failure.
// Policies never see HTTP status errors: a response, whatever its status,
// ends the attempt loop.
type RetryPolicy interface {
	// NextDelay returns the delay before the next retry attempt and whether to retry.
	// If ok is false, no more retries should be attempted.
	// attempt starts at 0 for the first retry after the initial failure.
	NextDelay(attempt int, err error) (delay time.Duration, ok bool)
}

// FlatRetry retries immediately, up to limit extra attempts.
type FlatRetry struct {
	Limit int
}

// NewFlatRetry returns the default policy for a given retry limit.
func NewFlatRetry(limit int) FlatRetry {
	return FlatRetry{Limit: limit}
}

// NextDelay implements RetryPolicy.
func (f FlatRetry) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt >= f.Limit || !isRetryable(err) {
		return 0, false
	}
	return 0, true
}

// RetryConfig configures exponential backoff.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (default: 3)
	BaseDelay  time.Duration // Initial delay before first retry (default: 250ms)
	MaxDelay   time.Duration // Maximum delay cap (default: 5s)
	Jitter     float64       // Jitter factor 0.0-1.0 (default: 0.2)
}

// NewBackoffPolicy creates an exponential backoff policy with jitter.
// Use it instead of the flat default when the remote side needs breathing room.
func NewBackoffPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0.2
	}
	return &exponentialBackoff{cfg: cfg}
}

type exponentialBackoff struct {
	cfg RetryConfig
}

func (e *exponentialBackoff) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt >= e.cfg.MaxRetries {
		return 0, false
	}
	if !isRetryable(err) {
		return 0, false
	}

	// baseDelay * 2^attempt
	delay := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt))

	if e.cfg.Jitter > 0 {
		jitterRange := delay * e.cfg.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay), true
}

// isRetryable reports whether a transport failure may be retried.
// Caller cancellation, oversized bodies and classified API errors are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrResponseTooLarge) {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
