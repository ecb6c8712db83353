package customer

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/customer"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// CreateCustomerRequest is the payload for opening a customer account
type CreateCustomerRequest struct {
	Code    string `json:"code" binding:"required,max=50"`
	Name    string `json:"name" binding:"required,max=200"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"omitempty,max=500"`
	Notes   string `json:"notes"`
}

// UpdateCustomerRequest is the payload for editing a customer profile
type UpdateCustomerRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"omitempty,max=500"`
	Notes   string `json:"notes"`
}

// RecordPaymentRequest settles part of a customer's outstanding due
type RecordPaymentRequest struct {
	Amount        string     `json:"amount" binding:"required"`
	Currency      string     `json:"currency" binding:"omitempty,len=3"`
	TransactionID *uuid.UUID `json:"transaction_id"`
	Note          string     `json:"note" binding:"omitempty,max=500"`
}

// AdjustDueRequest applies a signed manual correction to the due
type AdjustDueRequest struct {
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Reason   string `json:"reason" binding:"required,max=500"`
}

// CustomerResponse is the API shape of a customer account
type CustomerResponse struct {
	ID             uuid.UUID         `json:"id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Phone          string            `json:"phone,omitempty"`
	Email          string            `json:"email,omitempty"`
	Address        string            `json:"address,omitempty"`
	Status         string            `json:"status"`
	DueAmount      valueobject.Money `json:"due_amount"`
	TotalPurchases valueobject.Money `json:"total_purchases"`
	TotalPaid      valueobject.Money `json:"total_paid"`
	PurchaseCount  int64             `json:"purchase_count"`
	Notes          string            `json:"notes,omitempty"`
	Version        int               `json:"version"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// LedgerEntryResponse is the API shape of one ledger line
type LedgerEntryResponse struct {
	ID            uuid.UUID         `json:"id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	EntryType     string            `json:"entry_type"`
	Amount        valueobject.Money `json:"amount"`
	BalanceAfter  valueobject.Money `json:"balance_after"`
	SaleID        *uuid.UUID        `json:"sale_id,omitempty"`
	TransactionID *uuid.UUID        `json:"transaction_id,omitempty"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ToCustomerResponse maps the aggregate to its API shape
func ToCustomerResponse(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:             c.ID,
		Code:           c.Code,
		Name:           c.Name,
		Phone:          c.Phone,
		Email:          c.Email,
		Address:        c.Address,
		Status:         string(c.Status),
		DueAmount:      c.DueAmount,
		TotalPurchases: c.TotalPurchases,
		TotalPaid:      c.TotalPaid,
		PurchaseCount:  c.PurchaseCount,
		Notes:          c.Notes,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToLedgerEntryResponse maps a ledger entry to its API shape
func ToLedgerEntryResponse(e *customer.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:            e.ID,
		CustomerID:    e.CustomerID,
		EntryType:     string(e.EntryType),
		Amount:        e.Amount,
		BalanceAfter:  e.BalanceAfter,
		SaleID:        e.SaleID,
		TransactionID: e.TransactionID,
		Note:          e.Note,
		CreatedAt:     e.CreatedAt,
	}
}
