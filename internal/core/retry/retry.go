// Package retry runs a call again after a fixed pause when it fails
package retry

import (
	"context"
	"time"
)

// Defaults for generator calls
const (
	DefaultMaxRetries = 1
	DefaultDelay      = 2 * time.Second
)

// Policy is a bounded retry with a flat delay between attempts
type Policy struct {
	MaxRetries int
	Delay      time.Duration

	// Retryable filters errors worth another attempt, nil retries everything
	Retryable func(error) bool

	// OnRetry is told about each failed attempt that will be retried
	OnRetry func(attempt int, err error)
}

// Default is one retry after two seconds
func Default() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, Delay: DefaultDelay}
}

// sleep waits for d or until ctx is done; swapped in tests
var sleep = func(ctx context.Context, d time.Duration) error {
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

// Do calls fn up to MaxRetries+1 times and returns the last error
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	retries := max(p.MaxRetries, 0)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.Delay); err != nil {
				return zero, lastErr
			}
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == retries {
			break
		}
		if p.Retryable != nil && !p.Retryable(err) {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}
	}
	return zero, lastErr
}
