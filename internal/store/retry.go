// internal/store/retry.go
//
// Bounded exponential-backoff retry for transient persistence failures.
// Remote saves may fail partway; the caller's in-memory state stays
// untouched and the error is surfaced after the final attempt rather
// than retried forever.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrTransient marks a failure worth retrying (network/store hiccup).
// Wrap store errors with it to opt in to retry.
var ErrTransient = errors.New("transient store failure")

const (
	// DefaultAttempts bounds retries of a failing store call.
	DefaultAttempts = 3
	// DefaultBackoff is the first retry delay; it doubles per attempt.
	DefaultBackoff = 250 * time.Millisecond
)

// WithRetry runs fn up to attempts times, sleeping baseDelay, 2x, 4x...
// between failures. Non-transient errors (ErrNotFound, validation) are
// returned immediately. Context cancellation stops the loop.
func WithRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransient) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
