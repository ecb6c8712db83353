package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// TransactionModel is the persistence model for the Transaction
// aggregate. NetAmount is stored for querying but always recomputed
// from amount and fee in the domain.
type TransactionModel struct {
	TenantAggregateModel
	SaleID               uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CustomerID           *uuid.UUID                `gorm:"type:uuid;index"`
	OriginalTransaction  *uuid.UUID                `gorm:"type:uuid"`
	Type                 payment.Type              `gorm:"type:varchar(20);not null"`
	Method               payment.Method            `gorm:"type:varchar(30);not null;index"`
	Gateway              payment.Gateway           `gorm:"type:varchar(30);not null;index:idx_tx_gateway_ref,priority:1"`
	GatewayTransactionID string                    `gorm:"type:varchar(200);index:idx_tx_gateway_ref,priority:2"`
	Currency             string                    `gorm:"type:varchar(3);not null;default:'USD'"`
	Amount               decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	FeeAmount            decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	FeeType              payment.FeeType           `gorm:"type:varchar(20);not null;default:'REPORTED'"`
	NetAmount            decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Status               valueobject.PaymentStatus `gorm:"type:varchar(30);not null;index"`
	StatusHistory        shared.StatusChanges      `gorm:"type:jsonb;default:'[]'"`
	ProcessedAt          *time.Time                `gorm:"index"`
	FailureReason        string                    `gorm:"type:text"`
	Note                 string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *payment.Transaction {
	return &payment.Transaction{
		TenantAggregateRoot:  m.ToDomainTenantAggregateRoot(),
		SaleID:               m.SaleID,
		CustomerID:           m.CustomerID,
		OriginalTransaction:  m.OriginalTransaction,
		Type:                 m.Type,
		Method:               m.Method,
		Gateway:              m.Gateway,
		GatewayTransactionID: m.GatewayTransactionID,
		Amount:               toMoney(m.Amount, m.Currency),
		Fee: payment.Fee{
			Amount: toMoney(m.FeeAmount, m.Currency),
			Type:   m.FeeType,
		},
		NetAmount:     toMoney(m.NetAmount, m.Currency),
		Status:        m.Status,
		StatusHistory: m.StatusHistory,
		ProcessedAt:   m.ProcessedAt,
		FailureReason: m.FailureReason,
		Note:          m.Note,
	}
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *payment.Transaction) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.SaleID = t.SaleID
	m.CustomerID = t.CustomerID
	m.OriginalTransaction = t.OriginalTransaction
	m.Type = t.Type
	m.Method = t.Method
	m.Gateway = t.Gateway
	m.GatewayTransactionID = t.GatewayTransactionID
	m.Currency = string(t.Amount.Currency())
	m.Amount = t.Amount.Amount()
	m.FeeAmount = t.Fee.Amount.Amount()
	m.FeeType = t.Fee.Type
	m.NetAmount = t.NetAmount.Amount()
	m.Status = t.Status
	m.StatusHistory = t.StatusHistory
	m.ProcessedAt = t.ProcessedAt
	m.FailureReason = t.FailureReason
	m.Note = t.Note
}

// TransactionModelFromDomain creates a persistence model from a domain
// Transaction
func TransactionModelFromDomain(t *payment.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
