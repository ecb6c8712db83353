package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// Repository persists Transaction aggregates
type Repository interface {
	shared.TenantRepository[Transaction]

	// FindByGatewayTransactionID looks up the transaction bound to a
	// processor reference. Used by webhook handling to route results.
	FindByGatewayTransactionID(ctx context.Context, tenantID uuid.UUID, gateway Gateway, gatewayTxID string) (*Transaction, error)

	// FindBySale returns all transactions recorded against a sale
	FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]Transaction, error)

	// FindOpenOlderThan returns PENDING and PROCESSING transactions
	// created before the cutoff, for the stale-transaction sweeper
	FindOpenOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]Transaction, error)

	// SaveWithLock persists the aggregate with an optimistic-lock check
	SaveWithLock(ctx context.Context, t *Transaction) error
}
