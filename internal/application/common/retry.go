// Package common holds helpers shared by the application services.
package common

import (
	"context"
	"errors"

	"github.com/retailpos/backend/internal/domain/shared"
)

// MaxOptimisticRetries bounds how often a lost optimistic-lock race is
// retried before giving up
const MaxOptimisticRetries = 3

// WithOptimisticRetry runs fn up to MaxOptimisticRetries times, retrying
// only on optimistic-lock conflicts. fn must reload the aggregate on
// every attempt so it sees the version that won the race. Any other
// error aborts immediately. When all attempts lose, RETRIES_EXHAUSTED is
// returned so the caller can surface a retryable failure.
func WithOptimisticRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < MaxOptimisticRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var derr *shared.DomainError
		if !errors.As(lastErr, &derr) || derr.Code != shared.ErrOptimisticLock.Code {
			return lastErr
		}
	}
	return shared.ErrRetriesExhausted
}
