package customer

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpos/backend/internal/domain/shared"
)

// Stats aggregates the receivable position across a tenant's active
// customers. AvgPurchase is total purchase value over purchase count.
type Stats struct {
	TotalCustomers   int64           `json:"total_customers"`
	CustomersWithDue int64           `json:"customers_with_due"`
	TotalDue         decimal.Decimal `json:"total_due"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	AvgPurchase      decimal.Decimal `json:"avg_purchase"`
}

// Repository persists Customer aggregates
type Repository interface {
	shared.TenantRepository[Customer]

	// FindByCode looks up a customer by their store code
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Customer, error)

	// FindByContact looks a customer up by phone, then by email when
	// the contact is email shaped. Returns shared.ErrNotFound on miss.
	FindByContact(ctx context.Context, tenantID uuid.UUID, contact string) (*Customer, error)

	// Stats aggregates due and purchase figures over active customers
	Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error)

	// SaveWithLock persists the aggregate with an optimistic-lock check.
	// Returns shared.ErrOptimisticLock when the stored version does not
	// match the version the aggregate was loaded at.
	SaveWithLock(ctx context.Context, c *Customer) error
}

// LedgerRepository persists the append-only receivable ledger
type LedgerRepository interface {
	// Append writes a new ledger entry. Entries are never updated or
	// deleted.
	Append(ctx context.Context, entry *LedgerEntry) error

	// FindByCustomer returns a customer's ledger entries, newest first
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (shared.Paginated[LedgerEntry], error)
}
