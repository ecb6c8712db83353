package common

import (
	"context"
	"errors"
	"testing"

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithOptimisticRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries only on lock conflicts", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return shared.ErrOptimisticLock
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted retries surface RETRIES_EXHAUSTED", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, func(ctx context.Context) error {
			calls++
			return shared.ErrOptimisticLock
		})
		assert.Equal(t, MaxOptimisticRetries, calls)

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "RETRIES_EXHAUSTED", derr.Code)
	})

	t.Run("other errors abort immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := WithOptimisticRetry(ctx, func(ctx context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("domain errors other than lock abort immediately", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, func(ctx context.Context) error {
			calls++
			return shared.ErrExceedsDue
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "EXCEEDS_DUE", derr.Code)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := WithOptimisticRetry(cctx, func(ctx context.Context) error {
			t.Fatal("fn should not run with cancelled context")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
