package backoff

import (
	"context"
	"time"
)

// Retry executes f up to attempts times with exponential backoff starting at
// sleep. It returns nil on the first successful attempt, the context error
// if ctx is cancelled between attempts, or the last error once attempts are
// exhausted. The shouldRetry predicate decides whether a given error is
// retryable; when it returns false, Retry stops immediately with that error.
// A nil shouldRetry retries every error.
func Retry(ctx context.Context, attempts int, sleep time.Duration, f func() error, shouldRetry func(error) bool) error {
	if attempts < 1 {
		attempts = 1
	}
	if sleep <= 0 {
		sleep = time.Second
	}
	var lastErr error
	for cur := 0; cur < attempts; cur++ {
		err := f()
		if err == nil {
			return nil
		}
		lastErr = err
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		if cur != attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
			sleep *= 2
		}
	}
	return lastErr
}
