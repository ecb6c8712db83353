package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpos/backend/internal/domain/customer"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// toMoney rebuilds a Money value from its amount and currency columns
func toMoney(amount decimal.Decimal, currency string) valueobject.Money {
	cur := valueobject.Currency(currency)
	if cur == "" {
		cur = valueobject.DefaultCurrency
	}
	m, err := valueobject.NewMoney(amount, cur)
	if err != nil {
		return valueobject.NewMoneyUSD(amount)
	}
	return m
}

// toMoneyPtr is toMoney for nullable amount columns
func toMoneyPtr(amount *decimal.Decimal, currency string) *valueobject.Money {
	if amount == nil {
		return nil
	}
	m := toMoney(*amount, currency)
	return &m
}

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	TenantAggregateModel
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_customer_tenant_code,priority:2"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Phone          string          `gorm:"type:varchar(50);index"`
	Email          string          `gorm:"type:varchar(200);index"`
	Address        string          `gorm:"type:varchar(500)"`
	Status         customer.Status `gorm:"type:varchar(20);not null;default:'active'"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'USD'"`
	DueAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPaid      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchaseCount  int64           `gorm:"not null;default:0"`
	Notes          string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	return &customer.Customer{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Phone:               m.Phone,
		Email:               m.Email,
		Address:             m.Address,
		Status:              m.Status,
		DueAmount:           toMoney(m.DueAmount, m.Currency),
		TotalPurchases:      toMoney(m.TotalPurchases, m.Currency),
		TotalPaid:           toMoney(m.TotalPaid, m.Currency),
		PurchaseCount:       m.PurchaseCount,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Phone = c.Phone
	m.Email = c.Email
	m.Address = c.Address
	m.Status = c.Status
	m.Currency = string(c.DueAmount.Currency())
	m.DueAmount = c.DueAmount.Amount()
	m.TotalPurchases = c.TotalPurchases.Amount()
	m.TotalPaid = c.TotalPaid.Amount()
	m.PurchaseCount = c.PurchaseCount
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a persistence model from a domain
// Customer
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// LedgerEntryModel is the persistence model for the append-only
// receivable ledger. Rows are inserted and read, never updated.
type LedgerEntryModel struct {
	BaseModel
	TenantID      uuid.UUID          `gorm:"type:uuid;not null;index:idx_ledger_tenant_customer,priority:1"`
	CustomerID    uuid.UUID          `gorm:"type:uuid;not null;index:idx_ledger_tenant_customer,priority:2"`
	EntryType     customer.EntryType `gorm:"type:varchar(20);not null"`
	Currency      string             `gorm:"type:varchar(3);not null;default:'USD'"`
	Amount        decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	SaleID        *uuid.UUID         `gorm:"type:uuid;index"`
	TransactionID *uuid.UUID         `gorm:"type:uuid;index"`
	Note          string             `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *customer.LedgerEntry {
	return &customer.LedgerEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:      m.TenantID,
		CustomerID:    m.CustomerID,
		EntryType:     m.EntryType,
		Amount:        toMoney(m.Amount, m.Currency),
		BalanceAfter:  toMoney(m.BalanceAfter, m.Currency),
		SaleID:        m.SaleID,
		TransactionID: m.TransactionID,
		Note:          m.Note,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain
// LedgerEntry
func LedgerEntryModelFromDomain(e *customer.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.CustomerID = e.CustomerID
	m.EntryType = e.EntryType
	m.Currency = string(e.Amount.Currency())
	m.Amount = e.Amount.Amount()
	m.BalanceAfter = e.BalanceAfter.Amount()
	m.SaleID = e.SaleID
	m.TransactionID = e.TransactionID
	m.Note = e.Note
	return m
}
