package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("first try succeeds", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, time.Millisecond, func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("transient failures retried up to the limit", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, time.Millisecond, func() error {
			calls++
			return fmt.Errorf("save: %w", ErrTransient)
		})
		assert.ErrorIs(t, err, ErrTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("recovers mid-way", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("save: %w", ErrTransient)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors do not retry", func(t *testing.T) {
		boom := errors.New("constraint violated")
		calls := 0
		err := WithRetry(ctx, 3, time.Millisecond, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("not found is permanent", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, time.Millisecond, func() error {
			calls++
			return ErrNotFound
		})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := WithRetry(cctx, 3, 50*time.Millisecond, func() error {
			return fmt.Errorf("save: %w", ErrTransient)
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
