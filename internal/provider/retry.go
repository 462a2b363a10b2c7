// internal/provider/retry.go
package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// Total attempts per provider call, including the first.
	maxRetries = 3

	retryInitialInterval = 200 * time.Millisecond

	// Rate limit resets further away than this fail the call instead of
	// blocking a worker.
	maxRateLimitWait = time.Minute
)

// retry runs op with exponential backoff. op marks non-retryable failures
// with backoff.Permanent.
func retry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(maxRetries),
	)
}

// waitUntil blocks until t or ctx is done. It returns false when t is beyond
// maxRateLimitWait or ctx ended first.
func waitUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return true
	}
	if d > maxRateLimitWait {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
