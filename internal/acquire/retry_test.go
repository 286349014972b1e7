package acquire

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyDo(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		attempts, err := RetryPolicy{Attempts: 3}.Do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		attempts, err := RetryPolicy{Attempts: 3}.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errBoom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("exhausted", func(t *testing.T) {
		calls := 0
		attempts, err := RetryPolicy{Attempts: 2}.Do(context.Background(), func(context.Context) error {
			calls++
			return errBoom
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "failed after 2 attempts")
		assert.Equal(t, 2, attempts)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero attempts still tries once", func(t *testing.T) {
		calls := 0
		attempts, _ := RetryPolicy{}.Do(context.Background(), func(context.Context) error {
			calls++
			return errBoom
		})
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled before first attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		attempts, err := RetryPolicy{Attempts: 3}.Do(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, attempts)
	})

	t.Run("cancel interrupts delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		start := time.Now()
		attempts, err := RetryPolicy{Attempts: 3, Delay: time.Hour}.Do(ctx, func(context.Context) error {
			cancel()
			return errBoom
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
		assert.Less(t, time.Since(start), time.Minute)
	})
}
