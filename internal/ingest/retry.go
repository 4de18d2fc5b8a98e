package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/climaverse/meteo/internal/provider"
)

// ErrRateLimitExceeded marks a unit of work that stayed rate limited through
// every allowed attempt.
var ErrRateLimitExceeded = errors.New("rate limit exceeded after retries")

// withRetry runs fn up to attempts times, sleeping delay between attempts,
// but only when the failure is a provider rate limit. Any other error
// propagates immediately. This wraps remote fetches only, never storage.
func withRetry[T any](ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, provider.ErrRateLimited) {
			return zero, err
		}
		if attempt >= attempts {
			return zero, ErrRateLimitExceeded
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
