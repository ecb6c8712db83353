package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// Type distinguishes money moving in from money moving out
type Type string

const (
	TypePayment Type = "PAYMENT"
	TypeRefund  Type = "REFUND"
)

// IsValid reports whether the transaction type is known
func (t Type) IsValid() bool {
	return t == TypePayment || t == TypeRefund
}

// Method is how the customer paid at the register
type Method string

const (
	MethodCash        Method = "CASH"
	MethodCard        Method = "CARD"
	MethodOnline      Method = "ONLINE"
	MethodStoreCredit Method = "STORE_CREDIT"
	MethodOther       Method = "OTHER"
)

// IsValid reports whether the payment method is known
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodOnline, MethodStoreCredit, MethodOther:
		return true
	}
	return false
}

// Gateway identifies the processor a transaction settles through
type Gateway string

const (
	GatewayStripe    Gateway = "stripe"
	GatewayPayPal    Gateway = "paypal"
	GatewayBraintree Gateway = "braintree"
	GatewayManual    Gateway = "manual"
)

// FeeType says whether a fee came from the gateway or a local estimate
type FeeType string

const (
	FeeReported  FeeType = "REPORTED"
	FeeEstimated FeeType = "ESTIMATED"
)

// Fee is the processor's cut of a transaction
type Fee struct {
	Amount valueobject.Money `json:"amount"`
	Type   FeeType           `json:"type"`
}

// ZeroFee returns a zero reported fee in the given currency
func ZeroFee(currency valueobject.Currency) Fee {
	return Fee{Amount: valueobject.Zero(currency), Type: FeeReported}
}

// Transaction is the aggregate root for one movement of money through a
// gateway. NetAmount is always derived as amount minus fee; it is
// recomputed whenever the fee changes and never accepted from outside.
// ProcessedAt is written exactly once, when the transaction first
// completes.
type Transaction struct {
	shared.TenantAggregateRoot
	SaleID               uuid.UUID
	CustomerID           *uuid.UUID
	OriginalTransaction  *uuid.UUID
	Type                 Type
	Method               Method
	Gateway              Gateway
	GatewayTransactionID string
	Amount               valueobject.Money
	Fee                  Fee
	NetAmount            valueobject.Money
	Status               valueobject.PaymentStatus
	StatusHistory        []shared.StatusChange
	ProcessedAt          *time.Time
	FailureReason        string
	Note                 string
}

// NewPaymentTransaction creates a pending payment against a sale
func NewPaymentTransaction(tenantID, saleID uuid.UUID, customerID *uuid.UUID, method Method, gateway Gateway, amount valueobject.Money) (*Transaction, error) {
	return newTransaction(tenantID, saleID, customerID, nil, TypePayment, method, gateway, amount)
}

// NewRefundTransaction creates a pending refund. original is the
// payment transaction being reversed.
func NewRefundTransaction(tenantID, saleID uuid.UUID, customerID *uuid.UUID, original uuid.UUID, method Method, gateway Gateway, amount valueobject.Money) (*Transaction, error) {
	return newTransaction(tenantID, saleID, customerID, &original, TypeRefund, method, gateway, amount)
}

func newTransaction(tenantID, saleID uuid.UUID, customerID, original *uuid.UUID, txType Type, method Method, gateway Gateway, amount valueobject.Money) (*Transaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown transaction type")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown payment method")
	}
	if gateway == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Gateway is required")
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	tx := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleID:              saleID,
		CustomerID:          customerID,
		OriginalTransaction: original,
		Type:                txType,
		Method:              method,
		Gateway:             gateway,
		Amount:              amount,
		Fee:                 Fee{Amount: valueobject.Zero(amount.Currency()), Type: FeeEstimated},
		NetAmount:           amount,
		Status:              valueobject.PaymentStatusPending,
		StatusHistory:       make([]shared.StatusChange, 0),
	}

	tx.AddDomainEvent(NewTransactionCreatedEvent(tx))

	return tx, nil
}

// SetGatewayTransactionID records the processor's reference for this
// transaction. It can only be set once; gateways never reassign it.
func (t *Transaction) SetGatewayTransactionID(id string) error {
	if id == "" {
		return shared.NewDomainError("INVALID_INPUT", "Gateway transaction ID cannot be empty")
	}
	if t.GatewayTransactionID != "" && t.GatewayTransactionID != id {
		return shared.NewDomainErrorf("INVALID_STATE",
			"Transaction already bound to gateway reference %s", t.GatewayTransactionID)
	}
	t.GatewayTransactionID = id
	return nil
}

// SetFee records the processor fee and rederives the net amount
func (t *Transaction) SetFee(fee Fee) error {
	if fee.Amount.IsNegative() {
		return shared.ErrInvalidAmount
	}
	net, err := t.Amount.Subtract(fee.Amount)
	if err != nil {
		return shared.ErrCurrencyMismatch
	}
	if net.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Fee cannot exceed the transaction amount")
	}

	t.Fee = fee
	t.NetAmount = net
	t.UpdatedAt = time.Now()

	return nil
}

// MarkProcessing moves the transaction into PROCESSING
func (t *Transaction) MarkProcessing(actor string) error {
	return t.transition(valueobject.PaymentStatusProcessing, actor, "")
}

// Complete settles the transaction. processedAt is the gateway's
// settlement time when known; it falls back to now, and once written it
// never changes.
func (t *Transaction) Complete(actor string, processedAt *time.Time) error {
	if err := t.transition(valueobject.PaymentStatusCompleted, actor, ""); err != nil {
		return err
	}

	if t.ProcessedAt == nil {
		when := time.Now()
		if processedAt != nil {
			when = *processedAt
		}
		t.ProcessedAt = &when
	}

	t.AddDomainEvent(NewTransactionCompletedEvent(t))

	return nil
}

// Fail marks the transaction as declined or errored
func (t *Transaction) Fail(actor, reason string) error {
	if err := t.transition(valueobject.PaymentStatusFailed, actor, reason); err != nil {
		return err
	}
	t.FailureReason = reason
	t.AddDomainEvent(NewTransactionFailedEvent(t, reason))
	return nil
}

// Cancel voids a transaction that has not settled
func (t *Transaction) Cancel(actor, reason string) error {
	return t.transition(valueobject.PaymentStatusCancelled, actor, reason)
}

// MarkRefunded moves a completed transaction into a refunded state.
// partial keeps it open for further refunds.
func (t *Transaction) MarkRefunded(actor, reason string, partial bool) error {
	target := valueobject.PaymentStatusRefunded
	if partial {
		target = valueobject.PaymentStatusPartiallyRefunded
	}
	return t.transition(target, actor, reason)
}

func (t *Transaction) transition(target valueobject.PaymentStatus, actor, reason string) error {
	if !t.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf("INVALID_TRANSITION",
			"Transaction cannot move from %s to %s", t.Status, target)
	}

	from := t.Status
	t.Status = target
	t.StatusHistory = append(t.StatusHistory, shared.NewStatusChange(from.String(), target.String(), actor, reason))
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransactionStatusChangedEvent(t, from, target))

	return nil
}

// IsSettled reports whether money actually moved
func (t *Transaction) IsSettled() bool {
	return t.Status == valueobject.PaymentStatusCompleted ||
		t.Status == valueobject.PaymentStatusPartiallyRefunded ||
		t.Status == valueobject.PaymentStatusRefunded
}

// IsOpen reports whether the transaction is still in flight
func (t *Transaction) IsOpen() bool {
	return t.Status == valueobject.PaymentStatusPending || t.Status == valueobject.PaymentStatusProcessing
}
