package search

import (
	"context"
	"errors"
	"time"
)

// Retry policy for outbound search calls: a fixed number of attempts with
// linearly increasing delay, applied only to network-class failures.
// Provider errors (non-2xx, bad payloads) are marked permanent and fail
// immediately.
const (
	maxAttempts = 3
	baseDelay   = 500 * time.Millisecond
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent wraps an error so withRetry stops retrying it.
func permanent(err error) error {
	return &permanentError{err: err}
}

func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var pe *permanentError
		if errors.As(lastErr, &pe) {
			return pe.err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(time.Duration(attempt) * baseDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
