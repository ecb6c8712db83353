package sale

import (
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// Event types for the sale aggregate
const (
	EventSaleCreated       = "sale.created"
	EventSaleStatusChanged = "sale.status_changed"
	EventSaleCompleted     = "sale.completed"
	EventSaleRefunded      = "sale.refunded"
)

const aggregateType = "Sale"

// SaleCreatedEvent fires when a sale is rung up
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string            `json:"receipt_number"`
	Total         valueobject.Money `json:"total"`
	ItemCount     int64             `json:"item_count"`
}

// NewSaleCreatedEvent creates a sale created event
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSaleCreated, aggregateType, s.ID, s.TenantID),
		ReceiptNumber:   s.ReceiptNumber,
		Total:           s.Total,
		ItemCount:       s.ItemCount(),
	}
}

// SaleStatusChangedEvent fires on every status transition
type SaleStatusChangedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string                    `json:"receipt_number"`
	OldStatus     valueobject.PaymentStatus `json:"old_status"`
	NewStatus     valueobject.PaymentStatus `json:"new_status"`
}

// NewSaleStatusChangedEvent creates a status changed event
func NewSaleStatusChangedEvent(s *Sale, oldStatus, newStatus valueobject.PaymentStatus) *SaleStatusChangedEvent {
	return &SaleStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSaleStatusChanged, aggregateType, s.ID, s.TenantID),
		ReceiptNumber:   s.ReceiptNumber,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// SaleCompletedEvent fires when a sale settles
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string            `json:"receipt_number"`
	Total         valueobject.Money `json:"total"`
	PaidAmount    valueobject.Money `json:"paid_amount"`
	DueAmount     valueobject.Money `json:"due_amount"`
}

// NewSaleCompletedEvent creates a sale completed event
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSaleCompleted, aggregateType, s.ID, s.TenantID),
		ReceiptNumber:   s.ReceiptNumber,
		Total:           s.Total,
		PaidAmount:      s.PaidAmount,
		DueAmount:       s.DueAmount,
	}
}

// SaleRefundedEvent fires when a refund is applied
type SaleRefundedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber  string            `json:"receipt_number"`
	Amount         valueobject.Money `json:"amount"`
	RefundedAmount valueobject.Money `json:"refunded_amount"`
}

// NewSaleRefundedEvent creates a sale refunded event
func NewSaleRefundedEvent(s *Sale, amount valueobject.Money) *SaleRefundedEvent {
	return &SaleRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSaleRefunded, aggregateType, s.ID, s.TenantID),
		ReceiptNumber:   s.ReceiptNumber,
		Amount:          amount,
		RefundedAmount:  s.RefundedAmount,
	}
}
