package customer

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// Event types for the customer aggregate
const (
	EventCustomerCreated       = "customer.created"
	EventCustomerUpdated       = "customer.updated"
	EventCustomerStatusChanged = "customer.status_changed"
	EventPurchaseRecorded      = "customer.purchase_recorded"
	EventPaymentRecorded       = "customer.payment_recorded"
	EventDueAdjusted           = "customer.due_adjusted"
)

const aggregateType = "Customer"

// CustomerCreatedEvent fires when a new customer account is opened
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCustomerCreatedEvent creates a customer created event
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerCreated, aggregateType, c.ID, c.TenantID),
		Code:            c.Code,
		Name:            c.Name,
	}
}

// CustomerUpdatedEvent fires when profile details change
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCustomerUpdatedEvent creates a customer updated event
func NewCustomerUpdatedEvent(c *Customer) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerUpdated, aggregateType, c.ID, c.TenantID),
		Name:            c.Name,
	}
}

// CustomerStatusChangedEvent fires on activate/deactivate
type CustomerStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// NewCustomerStatusChangedEvent creates a status changed event
func NewCustomerStatusChangedEvent(c *Customer, oldStatus, newStatus Status) *CustomerStatusChangedEvent {
	return &CustomerStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerStatusChanged, aggregateType, c.ID, c.TenantID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// PurchaseRecordedEvent fires when a sale is applied to the ledger
type PurchaseRecordedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID         `json:"sale_id"`
	Total      valueobject.Money `json:"total"`
	DuePortion valueobject.Money `json:"due_portion"`
	DueAfter   valueobject.Money `json:"due_after"`
}

// NewPurchaseRecordedEvent creates a purchase recorded event
func NewPurchaseRecordedEvent(c *Customer, total, duePortion valueobject.Money, saleID uuid.UUID) *PurchaseRecordedEvent {
	return &PurchaseRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPurchaseRecorded, aggregateType, c.ID, c.TenantID),
		SaleID:          saleID,
		Total:           total,
		DuePortion:      duePortion,
		DueAfter:        c.DueAmount,
	}
}

// PaymentRecordedEvent fires when a due payment settles
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Amount   valueobject.Money `json:"amount"`
	DueAfter valueobject.Money `json:"due_after"`
}

// NewPaymentRecordedEvent creates a payment recorded event
func NewPaymentRecordedEvent(c *Customer, amount valueobject.Money) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentRecorded, aggregateType, c.ID, c.TenantID),
		Amount:          amount,
		DueAfter:        c.DueAmount,
	}
}

// DueAdjustedEvent fires on a manual due correction
type DueAdjustedEvent struct {
	shared.BaseDomainEvent
	Amount   valueobject.Money `json:"amount"`
	Actor    string            `json:"actor"`
	Reason   string            `json:"reason"`
	DueAfter valueobject.Money `json:"due_after"`
}

// NewDueAdjustedEvent creates a due adjusted event
func NewDueAdjustedEvent(c *Customer, amount valueobject.Money, actor, reason string) *DueAdjustedEvent {
	return &DueAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventDueAdjusted, aggregateType, c.ID, c.TenantID),
		Amount:          amount,
		Actor:           actor,
		Reason:          reason,
		DueAfter:        c.DueAmount,
	}
}
