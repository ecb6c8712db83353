package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// Sale is the aggregate root for one register transaction. All amounts
// are derived server-side from the line items; the client-submitted
// total is only checked, never trusted. The due portion of a sale
// requires a known customer so it can land on their ledger.
type Sale struct {
	shared.TenantAggregateRoot
	ReceiptNumber  string
	CustomerID     *uuid.UUID
	CashierID      *uuid.UUID
	Items          []LineItem
	Subtotal       valueobject.Money
	DiscountAmount valueobject.Money
	TaxAmount      valueobject.Money
	Total          valueobject.Money
	PaidAmount     valueobject.Money
	DueAmount      valueobject.Money
	RefundedAmount valueobject.Money
	Status         valueobject.PaymentStatus
	StatusHistory  []shared.StatusChange
	Note           string

	// Settlement linkage, written once when the controlling
	// transaction reaches a terminal state
	TransactionID      *uuid.UUID
	NetAmount          *valueobject.Money
	PaymentProcessedAt *time.Time
}

// NewSale creates a pending sale from validated line items.
// submittedTotal is what the register client computed; it must agree
// with the derived total within tolerance or the sale is rejected with
// AMOUNT_MISMATCH.
func NewSale(
	tenantID uuid.UUID,
	receiptNumber string,
	customerID *uuid.UUID,
	items []*LineItem,
	discount, tax, submittedTotal, paidAmount valueobject.Money,
) (*Sale, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receipt number is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Sale must have at least one line item")
	}
	if discount.IsNegative() || tax.IsNegative() || paidAmount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}

	subtotal := valueobject.Zero(items[0].TotalPrice.Currency())
	for _, item := range items {
		var err error
		subtotal, err = subtotal.Add(item.TotalPrice)
		if err != nil {
			return nil, shared.ErrCurrencyMismatch
		}
	}

	afterDiscount, err := subtotal.Subtract(discount)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}
	if afterDiscount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Discount cannot exceed the subtotal")
	}
	total, err := afterDiscount.Add(tax)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}

	ok, err := total.WithinTolerance(submittedTotal, valueobject.AmountTolerance)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}
	if !ok {
		return nil, shared.NewDomainErrorf("AMOUNT_MISMATCH",
			"Submitted total %s does not match computed total %s", submittedTotal.String(), total.String())
	}

	if gt, err := paidAmount.GreaterThan(total); err != nil {
		return nil, shared.ErrCurrencyMismatch
	} else if gt {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Paid amount cannot exceed the sale total")
	}

	due := total.MustSubtract(paidAmount)
	if due.IsPositive() && customerID == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "A sale with a due portion requires a customer")
	}

	s := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNumber:       receiptNumber,
		CustomerID:          customerID,
		Subtotal:            subtotal,
		DiscountAmount:      discount,
		TaxAmount:           tax,
		Total:               total,
		PaidAmount:          paidAmount,
		DueAmount:           due,
		RefundedAmount:      valueobject.Zero(total.Currency()),
		Status:              valueobject.PaymentStatusPending,
		StatusHistory:       make([]shared.StatusChange, 0),
	}
	for _, item := range items {
		item.SaleID = s.ID
		s.Items = append(s.Items, *item)
	}

	s.AddDomainEvent(NewSaleCreatedEvent(s))

	return s, nil
}

// SetCashier records which register user rang up the sale
func (s *Sale) SetCashier(cashierID uuid.UUID) {
	s.CashierID = &cashierID
	s.SetCreatedBy(cashierID)
}

// SetNote attaches a free-form note to the sale
func (s *Sale) SetNote(note string) {
	s.Note = note
}

// MarkProcessing moves the sale into PROCESSING while a gateway charge
// is in flight
func (s *Sale) MarkProcessing(actor string) error {
	return s.transition(valueobject.PaymentStatusProcessing, actor, "")
}

// Complete marks the sale paid in full or settled to the ledger
func (s *Sale) Complete(actor string) error {
	if err := s.transition(valueobject.PaymentStatusCompleted, actor, ""); err != nil {
		return err
	}
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// Settle completes the sale and freezes its settlement linkage. The
// net amount is the sale total minus the processor fee; it and the
// processed time come from the controlling transaction and are never
// rewritten afterwards.
func (s *Sale) Settle(transactionID uuid.UUID, fee valueobject.Money, processedAt time.Time, actor string) error {
	net, err := s.Total.Subtract(fee)
	if err != nil {
		return shared.ErrCurrencyMismatch
	}
	if err := s.Complete(actor); err != nil {
		return err
	}
	txID := transactionID
	s.TransactionID = &txID
	s.NetAmount = &net
	at := processedAt
	s.PaymentProcessedAt = &at
	return nil
}

// Fail marks the sale as failed, e.g. a declined card
func (s *Sale) Fail(actor, reason string) error {
	return s.transition(valueobject.PaymentStatusFailed, actor, reason)
}

// Cancel voids a sale that has not completed
func (s *Sale) Cancel(actor, reason string) error {
	return s.transition(valueobject.PaymentStatusCancelled, actor, reason)
}

// ApplyRefund refunds part or all of a completed sale. The sale moves to
// PARTIALLY_REFUNDED until the cumulative refund reaches the total, then
// to REFUNDED.
func (s *Sale) ApplyRefund(amount valueobject.Money, actor, reason string) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}

	newRefunded, err := s.RefundedAmount.Add(amount)
	if err != nil {
		return shared.ErrCurrencyMismatch
	}
	if gt, err := newRefunded.GreaterThan(s.Total); err != nil {
		return shared.ErrCurrencyMismatch
	} else if gt {
		return shared.NewDomainErrorf("INVALID_AMOUNT",
			"Refund of %s would exceed sale total %s (already refunded %s)",
			amount.String(), s.Total.String(), s.RefundedAmount.String())
	}

	target := valueobject.PaymentStatusPartiallyRefunded
	if newRefunded.Equals(s.Total) {
		target = valueobject.PaymentStatusRefunded
	}
	if err := s.transition(target, actor, reason); err != nil {
		return err
	}

	s.RefundedAmount = newRefunded
	s.AddDomainEvent(NewSaleRefundedEvent(s, amount))

	return nil
}

func (s *Sale) transition(target valueobject.PaymentStatus, actor, reason string) error {
	if !s.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf("INVALID_TRANSITION",
			"Sale cannot move from %s to %s", s.Status, target)
	}

	from := s.Status
	s.Status = target
	s.StatusHistory = append(s.StatusHistory, shared.NewStatusChange(from.String(), target.String(), actor, reason))
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleStatusChangedEvent(s, from, target))

	return nil
}

// IsCompleted reports whether the sale reached COMPLETED at some point
// and has not been fully refunded
func (s *Sale) IsCompleted() bool {
	return s.Status == valueobject.PaymentStatusCompleted
}

// IsOpen reports whether the sale is still awaiting settlement
func (s *Sale) IsOpen() bool {
	return s.Status == valueobject.PaymentStatusPending || s.Status == valueobject.PaymentStatusProcessing
}

// HasDue reports whether part of the sale went on the customer ledger
func (s *Sale) HasDue() bool {
	return s.DueAmount.IsPositive()
}

// ItemCount returns the number of units across all lines
func (s *Sale) ItemCount() int64 {
	var n int64
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}
