package payment

import (
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// Event types for the transaction aggregate
const (
	EventTransactionCreated       = "transaction.created"
	EventTransactionStatusChanged = "transaction.status_changed"
	EventTransactionCompleted     = "transaction.completed"
	EventTransactionFailed        = "transaction.failed"
)

const aggregateType = "Transaction"

// TransactionCreatedEvent fires when a transaction is opened
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	TransactionType Type              `json:"transaction_type"`
	Method          Method            `json:"method"`
	GatewayName     Gateway           `json:"gateway"`
	Amount          valueobject.Money `json:"amount"`
}

// NewTransactionCreatedEvent creates a transaction created event
func NewTransactionCreatedEvent(t *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransactionCreated, aggregateType, t.ID, t.TenantID),
		TransactionType: t.Type,
		Method:          t.Method,
		GatewayName:     t.Gateway,
		Amount:          t.Amount,
	}
}

// TransactionStatusChangedEvent fires on every status transition
type TransactionStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus valueobject.PaymentStatus `json:"old_status"`
	NewStatus valueobject.PaymentStatus `json:"new_status"`
}

// NewTransactionStatusChangedEvent creates a status changed event
func NewTransactionStatusChangedEvent(t *Transaction, oldStatus, newStatus valueobject.PaymentStatus) *TransactionStatusChangedEvent {
	return &TransactionStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransactionStatusChanged, aggregateType, t.ID, t.TenantID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// TransactionCompletedEvent fires when money settles
type TransactionCompletedEvent struct {
	shared.BaseDomainEvent
	GatewayName          Gateway           `json:"gateway"`
	GatewayTransactionID string            `json:"gateway_transaction_id"`
	Amount               valueobject.Money `json:"amount"`
	FeeAmount            valueobject.Money `json:"fee_amount"`
	NetAmount            valueobject.Money `json:"net_amount"`
}

// NewTransactionCompletedEvent creates a transaction completed event
func NewTransactionCompletedEvent(t *Transaction) *TransactionCompletedEvent {
	return &TransactionCompletedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTransactionCompleted, aggregateType, t.ID, t.TenantID),
		GatewayName:          t.Gateway,
		GatewayTransactionID: t.GatewayTransactionID,
		Amount:               t.Amount,
		FeeAmount:            t.Fee.Amount,
		NetAmount:            t.NetAmount,
	}
}

// TransactionFailedEvent fires when a charge declines or errors
type TransactionFailedEvent struct {
	shared.BaseDomainEvent
	GatewayName Gateway `json:"gateway"`
	Reason      string  `json:"reason"`
}

// NewTransactionFailedEvent creates a transaction failed event
func NewTransactionFailedEvent(t *Transaction, reason string) *TransactionFailedEvent {
	return &TransactionFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransactionFailed, aggregateType, t.ID, t.TenantID),
		GatewayName:     t.Gateway,
		Reason:          reason,
	}
}
