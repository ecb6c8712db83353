package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpos/backend/internal/domain/sale"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// SaleModel is the persistence model for the Sale aggregate
type SaleModel struct {
	TenantAggregateModel
	ReceiptNumber  string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_sale_tenant_receipt,priority:2"`
	CustomerID     *uuid.UUID                `gorm:"type:uuid;index"`
	CashierID      *uuid.UUID                `gorm:"type:uuid"`
	Currency       string                    `gorm:"type:varchar(3);not null;default:'USD'"`
	Subtotal       decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Total          decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	DueAmount      decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	RefundedAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Status         valueobject.PaymentStatus `gorm:"type:varchar(30);not null;index"`
	StatusHistory  shared.StatusChanges      `gorm:"type:jsonb;default:'[]'"`
	Note           string                    `gorm:"type:text"`
	TransactionID  *uuid.UUID                `gorm:"type:uuid;index"`
	NetAmount      *decimal.Decimal          `gorm:"type:decimal(18,4)"`
	ProcessedAt    *time.Time
	Items          []SaleItemModel           `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel is the persistence model for one sale line item
type SaleItemModel struct {
	BaseModel
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  *uuid.UUID      `gorm:"type:uuid"`
	Name       string          `gorm:"type:varchar(200);not null"`
	Currency   string          `gorm:"type:varchar(3);not null;default:'USD'"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity   int64           `gorm:"not null"`
	Discount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *sale.Sale {
	items := make([]sale.LineItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = *item.ToDomain()
	}
	return &sale.Sale{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		ReceiptNumber:       m.ReceiptNumber,
		CustomerID:          m.CustomerID,
		CashierID:           m.CashierID,
		Items:               items,
		Subtotal:            toMoney(m.Subtotal, m.Currency),
		DiscountAmount:      toMoney(m.DiscountAmount, m.Currency),
		TaxAmount:           toMoney(m.TaxAmount, m.Currency),
		Total:               toMoney(m.Total, m.Currency),
		PaidAmount:          toMoney(m.PaidAmount, m.Currency),
		DueAmount:           toMoney(m.DueAmount, m.Currency),
		RefundedAmount:      toMoney(m.RefundedAmount, m.Currency),
		Status:              m.Status,
		StatusHistory:       m.StatusHistory,
		Note:                m.Note,
		TransactionID:       m.TransactionID,
		NetAmount:           toMoneyPtr(m.NetAmount, m.Currency),
		PaymentProcessedAt:  m.ProcessedAt,
	}
}

// FromDomain populates the persistence model from a domain Sale
func (m *SaleModel) FromDomain(s *sale.Sale) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.ReceiptNumber = s.ReceiptNumber
	m.CustomerID = s.CustomerID
	m.CashierID = s.CashierID
	m.Currency = string(s.Total.Currency())
	m.Subtotal = s.Subtotal.Amount()
	m.DiscountAmount = s.DiscountAmount.Amount()
	m.TaxAmount = s.TaxAmount.Amount()
	m.Total = s.Total.Amount()
	m.PaidAmount = s.PaidAmount.Amount()
	m.DueAmount = s.DueAmount.Amount()
	m.RefundedAmount = s.RefundedAmount.Amount()
	m.Status = s.Status
	m.StatusHistory = s.StatusHistory
	m.Note = s.Note
	m.TransactionID = s.TransactionID
	if s.NetAmount != nil {
		net := s.NetAmount.Amount()
		m.NetAmount = &net
	}
	m.ProcessedAt = s.PaymentProcessedAt
	m.Items = make([]SaleItemModel, len(s.Items))
	for i := range s.Items {
		m.Items[i] = *SaleItemModelFromDomain(&s.Items[i])
	}
}

// SaleModelFromDomain creates a persistence model from a domain Sale
func SaleModelFromDomain(s *sale.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// ToDomain converts the persistence model to a domain LineItem
func (m *SaleItemModel) ToDomain() *sale.LineItem {
	return &sale.LineItem{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		SaleID:     m.SaleID,
		ProductID:  m.ProductID,
		Name:       m.Name,
		UnitPrice:  toMoney(m.UnitPrice, m.Currency),
		Quantity:   m.Quantity,
		Discount:   toMoney(m.Discount, m.Currency),
		TotalPrice: toMoney(m.TotalPrice, m.Currency),
	}
}

// SaleItemModelFromDomain creates a persistence model from a domain
// LineItem
func SaleItemModelFromDomain(item *sale.LineItem) *SaleItemModel {
	m := &SaleItemModel{}
	m.FromDomainBaseEntity(item.BaseEntity)
	m.SaleID = item.SaleID
	m.ProductID = item.ProductID
	m.Name = item.Name
	m.Currency = string(item.TotalPrice.Currency())
	m.UnitPrice = item.UnitPrice.Amount()
	m.Quantity = item.Quantity
	m.Discount = item.Discount.Amount()
	m.TotalPrice = item.TotalPrice.Amount()
	return m
}

// SequenceModel is one named per-tenant counter, incremented atomically
// to hand out receipt numbers
type SequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(50);primaryKey"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "sequences"
}
