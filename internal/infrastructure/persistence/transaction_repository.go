package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
)

// GormTransactionRepository implements payment.Repository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := r.conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a transaction by ID within a tenant
func (r *GormTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByGatewayTransactionID finds the transaction bound to a processor
// reference
func (r *GormTransactionRepository) FindByGatewayTransactionID(ctx context.Context, tenantID uuid.UUID, gateway payment.Gateway, gatewayTxID string) (*payment.Transaction, error) {
	if gatewayTxID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.TransactionModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND gateway = ? AND gateway_transaction_id = ?", tenantID, gateway, gatewayTxID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySale returns all transactions recorded against a sale, oldest
// first
func (r *GormTransactionRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]payment.Transaction, error) {
	var txModels []models.TransactionModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("created_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toTransactions(txModels), nil
}

// FindOpenOlderThan returns PENDING and PROCESSING transactions created
// before the cutoff
func (r *GormTransactionRepository) FindOpenOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]payment.Transaction, error) {
	var txModels []models.TransactionModel
	query := r.conn(ctx).
		Where("tenant_id = ? AND status IN ? AND created_at < ?",
			tenantID,
			[]valueobject.PaymentStatus{valueobject.PaymentStatusPending, valueobject.PaymentStatusProcessing},
			cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toTransactions(txModels), nil
}

// TenantsWithOpen returns the tenants that have PENDING or PROCESSING
// transactions created before the cutoff. The background sweeper uses
// this to scope its per-tenant passes.
func (r *GormTransactionRepository) TenantsWithOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.conn(ctx).Model(&models.TransactionModel{}).
		Where("status IN ? AND created_at < ?",
			[]valueobject.PaymentStatus{valueobject.PaymentStatusPending, valueobject.PaymentStatusProcessing},
			cutoff).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// FindAll finds all transactions matching the filter
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payment.Transaction, error) {
	var txModels []models.TransactionModel
	query := r.applyFilter(r.conn(ctx).Model(&models.TransactionModel{}), filter)
	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toTransactions(txModels), nil
}

// FindAllForTenant finds all transactions for a tenant
func (r *GormTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]payment.Transaction, error) {
	var txModels []models.TransactionModel
	query := r.applyFilter(
		r.conn(ctx).Model(&models.TransactionModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toTransactions(txModels), nil
}

// Count counts transactions matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.conn(ctx).Model(&models.TransactionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, t *payment.Transaction) error {
	return r.conn(ctx).Save(models.TransactionModelFromDomain(t)).Error
}

// SaveWithLock saves a transaction only if the stored version matches
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, t *payment.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	result := r.conn(ctx).
		Model(model).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrOptimisticLock
	}
	return nil
}

// Delete deletes a transaction. Transactions are audit records; this
// exists to satisfy the repository contract and is only used by tests.
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, TransactionSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormTransactionRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("gateway_transaction_id ILIKE ?", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "tenant_id":
			query = query.Where("tenant_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "method":
			query = query.Where("method = ?", value)
		case "gateway":
			query = query.Where("gateway = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "sale_id":
			query = query.Where("sale_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

func toTransactions(txModels []models.TransactionModel) []payment.Transaction {
	transactions := make([]payment.Transaction, len(txModels))
	for i, model := range txModels {
		transactions[i] = *model.ToDomain()
	}
	return transactions
}

var _ payment.Repository = (*GormTransactionRepository)(nil)
