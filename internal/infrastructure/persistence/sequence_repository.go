package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailpos/backend/internal/domain/sale"
)

// GormSequenceRepository implements sale.SequenceRepository on a
// per-tenant counter table. The increment happens in one UPSERT so
// concurrent checkouts never see the same number.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next atomically increments and returns the named counter
func (r *GormSequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error) {
	var value int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).Raw(`
		INSERT INTO sequences (tenant_id, name, value, updated_at)
		VALUES (?, ?, 1, NOW())
		ON CONFLICT (tenant_id, name)
		DO UPDATE SET value = sequences.value + 1, updated_at = NOW()
		RETURNING value`,
		tenantID, name,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

var _ sale.SequenceRepository = (*GormSequenceRepository)(nil)
