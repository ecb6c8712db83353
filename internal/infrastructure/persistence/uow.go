package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailpos/backend/internal/domain/shared"
)

type txContextKey struct{}

// GormUnitOfWork implements shared.UnitOfWork on a GORM transaction.
// The open transaction rides in the context; repositories created from
// the same Database pick it up via dbFromContext, so everything inside
// fn commits or rolls back together.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a unit of work bound to the database
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do runs fn inside one database transaction
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the ambient transaction instead of opening a
	// second one
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// txFromContext returns the ambient transaction, if any
func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx
}

// dbFromContext returns the ambient transaction when inside a unit of
// work, the base handle otherwise
func dbFromContext(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

var _ shared.UnitOfWork = (*GormUnitOfWork)(nil)
