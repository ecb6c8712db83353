package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// Repository persists Sale aggregates
type Repository interface {
	shared.TenantRepository[Sale]

	// FindByReceiptNumber looks up a sale by its human-facing receipt
	// number
	FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*Sale, error)

	// FindByCustomer returns a customer's sales, newest first
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (shared.Paginated[Sale], error)

	// FindOpenOlderThan returns PENDING and PROCESSING sales created
	// before the cutoff, for the stale-sale sweeper
	FindOpenOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]Sale, error)

	// SaveWithLock persists the aggregate with an optimistic-lock check
	SaveWithLock(ctx context.Context, s *Sale) error
}

// SequenceRepository hands out gapless-enough receipt numbers. Each
// named counter is incremented atomically in its own transaction.
type SequenceRepository interface {
	// Next atomically increments and returns the counter for the given
	// tenant and sequence name
	Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error)
}
