package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailpos/backend/internal/domain/customer"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements customer.LedgerRepository using GORM.
// The ledger is append-only; this repository exposes no update or
// delete.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// Append writes a new ledger entry
func (r *GormLedgerRepository) Append(ctx context.Context, entry *customer.LedgerEntry) error {
	return r.conn(ctx).Create(models.LedgerEntryModelFromDomain(entry)).Error
}

// FindByCustomer returns a customer's ledger entries, newest first
func (r *GormLedgerRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (shared.Paginated[customer.LedgerEntry], error) {
	base := r.conn(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID)

	if entryType, ok := filter.Filters["entry_type"]; ok {
		base = base.Where("entry_type = ?", entryType)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[customer.LedgerEntry]{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	orderBy := ValidateSortField(filter.OrderBy, LedgerSortFields, "created_at")
	var entryModels []models.LedgerEntryModel
	if err := base.
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entryModels).Error; err != nil {
		return shared.Paginated[customer.LedgerEntry]{}, err
	}

	entries := make([]customer.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return shared.NewPaginated(entries, total, page, pageSize), nil
}

var _ customer.LedgerRepository = (*GormLedgerRepository)(nil)
