package tubelib

import (
	"context"
	"math"
	"time"
)

// Default retry policy values.
const (
	DEF_MAX_ATTEMPTS  = 3
	DEF_INITIAL_DELAY = time.Second
	DEF_MAX_DELAY     = 30 * time.Second
	DEF_MULTIPLIER    = 2.0
)

// RetryPolicy configures Retry. It applies to metadata lookups; queued
// downloads are never retried automatically.
type RetryPolicy struct {
	MaxAttempts  int           // Total attempts including the first
	InitialDelay time.Duration // Delay after the first failure
	MaxDelay     time.Duration // Cap on any single delay
	Multiplier   float64       // Growth factor between delays
}

// DefaultRetryPolicy returns 3 attempts, 1s initial, 30s cap, x2.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DEF_MAX_ATTEMPTS,
		InitialDelay: DEF_INITIAL_DELAY,
		MaxDelay:     DEF_MAX_DELAY,
		Multiplier:   DEF_MULTIPLIER,
	}
}

// Backoff returns the delay after attempt n (1-based):
// min(initial * multiplier^(n-1), max).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if delay < 0 || math.IsInf(delay, 0) || math.IsNaN(delay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

// sleep is swapped out in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs op until it succeeds, the attempt budget is spent, the error
// is not retryable, or ctx ends. It returns the number of attempts made
// and the last error.
func Retry(ctx context.Context, policy RetryPolicy, op func(context.Context) error) (int, error) {
	_, attempts, err := RetryValue(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return attempts, err
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, int, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var (
		zero T
		err  error
	)
	for attempt := 1; ; attempt++ {
		var v T
		v, err = op(ctx)
		if err == nil {
			return v, attempt, nil
		}
		if attempt >= maxAttempts || !IsRetryable(err) {
			return zero, attempt, err
		}
		if serr := sleep(ctx, policy.Backoff(attempt)); serr != nil {
			return zero, attempt, err
		}
	}
}
