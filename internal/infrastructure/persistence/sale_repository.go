package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailpos/backend/internal/domain/sale"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements sale.Repository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sale.Sale, error) {
	var model models.SaleModel
	if err := r.conn(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a sale by ID within a tenant
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sale.Sale, error) {
	var model models.SaleModel
	if err := r.conn(ctx).Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReceiptNumber finds a sale by its receipt number within a tenant
func (r *GormSaleRepository) FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*sale.Sale, error) {
	var model models.SaleModel
	if err := r.conn(ctx).Preload("Items").
		Where("tenant_id = ? AND receipt_number = ?", tenantID, receiptNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns a customer's sales, newest first
func (r *GormSaleRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (shared.Paginated[sale.Sale], error) {
	base := r.conn(ctx).Model(&models.SaleModel{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID)
	if status, ok := filter.Filters["status"]; ok {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[sale.Sale]{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	orderBy := ValidateSortField(filter.OrderBy, SaleSortFields, "created_at")
	var saleModels []models.SaleModel
	if err := base.Preload("Items").
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&saleModels).Error; err != nil {
		return shared.Paginated[sale.Sale]{}, err
	}

	return shared.NewPaginated(toSales(saleModels), total, page, pageSize), nil
}

// FindAll finds all sales matching the filter
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sale.Sale, error) {
	var saleModels []models.SaleModel
	query := r.applyFilter(r.conn(ctx).Preload("Items").Model(&models.SaleModel{}), filter)
	if err := query.Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// FindAllForTenant finds all sales for a tenant
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sale.Sale, error) {
	var saleModels []models.SaleModel
	query := r.applyFilter(
		r.conn(ctx).Preload("Items").Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// FindOpenOlderThan returns PENDING and PROCESSING sales created before
// the cutoff
func (r *GormSaleRepository) FindOpenOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]sale.Sale, error) {
	var saleModels []models.SaleModel
	query := r.conn(ctx).Preload("Items").
		Where("tenant_id = ? AND status IN ? AND created_at < ?",
			tenantID,
			[]valueobject.PaymentStatus{valueobject.PaymentStatusPending, valueobject.PaymentStatusProcessing},
			cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// TenantsWithOpen returns the tenants that have PENDING or PROCESSING
// sales created before the cutoff. The background sweeper uses this to
// scope its per-tenant passes.
func (r *GormSaleRepository) TenantsWithOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.conn(ctx).Model(&models.SaleModel{}).
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

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.conn(ctx).Model(&models.SaleModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a sale together with its line items
func (r *GormSaleRepository) Save(ctx context.Context, s *sale.Sale) error {
	return r.conn(ctx).Save(models.SaleModelFromDomain(s)).Error
}

// SaveWithLock saves a sale only if the stored version matches. Line
// items are immutable after creation and are not rewritten here.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, s *sale.Sale) error {
	model := models.SaleModelFromDomain(s)
	model.Items = nil
	result := r.conn(ctx).
		Model(model).
		Where("id = ? AND version = ?", s.ID, s.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrOptimisticLock
	}
	return nil
}

// Delete deletes a sale. Sales are audit records; this exists to
// satisfy the repository contract and is only used by tests.
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&models.SaleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, SaleSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormSaleRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("receipt_number ILIKE ?", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "tenant_id":
			query = query.Where("tenant_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

func toSales(saleModels []models.SaleModel) []sale.Sale {
	sales := make([]sale.Sale, len(saleModels))
	for i, model := range saleModels {
		sales[i] = *model.ToDomain()
	}
	return sales
}

var _ sale.Repository = (*GormSaleRepository)(nil)
