package customer

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// Status represents the status of a customer account
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Customer is the aggregate root for a store customer and their
// receivable ledger. DueAmount is the outstanding balance the customer
// owes; it never goes negative. TotalPurchases and PurchaseCount are
// lifetime counters and only ever grow.
type Customer struct {
	shared.TenantAggregateRoot
	Code           string
	Name           string
	Phone          string
	Email          string
	Address        string
	Status         Status
	DueAmount      valueobject.Money
	TotalPurchases valueobject.Money
	TotalPaid      valueobject.Money
	PurchaseCount  int64
	Notes          string
}

// NewCustomer creates a new active customer with a zero ledger
func NewCustomer(tenantID uuid.UUID, code, name string) (*Customer, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		Status:              StatusActive,
		DueAmount:           valueobject.ZeroUSD(),
		TotalPurchases:      valueobject.ZeroUSD(),
		TotalPaid:           valueobject.ZeroUSD(),
	}

	c.AddDomainEvent(NewCustomerCreatedEvent(c))

	return c, nil
}

// UpdateProfile updates the customer's contact details
func (c *Customer) UpdateProfile(name, phone, email, address string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	c.Name = name
	c.Phone = phone
	c.Email = strings.ToLower(email)
	c.Address = address
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerUpdatedEvent(c))

	return nil
}

// SetNotes replaces the free-form notes on the customer
func (c *Customer) SetNotes(notes string) {
	c.Notes = notes
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// RecordPurchase applies a completed sale to the ledger. The full sale
// total grows the lifetime counters; duePortion is the part left unpaid
// at the register and is added to the outstanding due.
// Returns the append-only ledger entry describing the change.
func (c *Customer) RecordPurchase(total, duePortion valueobject.Money, saleID uuid.UUID) (*LedgerEntry, error) {
	if !total.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if duePortion.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	if gt, err := duePortion.GreaterThan(total); err != nil {
		return nil, shared.ErrCurrencyMismatch
	} else if gt {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Due portion cannot exceed the sale total")
	}

	newTotal, err := c.TotalPurchases.Add(total)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}
	newDue, err := c.DueAmount.Add(duePortion)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}
	paidPortion := total.MustSubtract(duePortion)
	newPaid, err := c.TotalPaid.Add(paidPortion)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}

	c.TotalPurchases = newTotal
	c.TotalPaid = newPaid
	c.DueAmount = newDue
	c.PurchaseCount++
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	entry := newLedgerEntry(c, EntryTypePurchase, total, &saleID, nil, "")
	c.AddDomainEvent(NewPurchaseRecordedEvent(c, total, duePortion, saleID))

	return entry, nil
}

// RecordPayment settles part or all of the outstanding due. A payment
// larger than the due is rejected outright rather than clamped, so an
// operator typo never silently creates store credit.
func (c *Customer) RecordPayment(amount valueobject.Money, transactionID *uuid.UUID, note string) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	exceeds, err := amount.GreaterThan(c.DueAmount)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}
	if exceeds {
		return nil, shared.NewDomainErrorf("EXCEEDS_DUE",
			"Payment of %s exceeds outstanding due of %s", amount.String(), c.DueAmount.String())
	}

	c.DueAmount = c.DueAmount.MustSubtract(amount)
	c.TotalPaid = c.TotalPaid.MustAdd(amount)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	entry := newLedgerEntry(c, EntryTypePayment, amount, nil, transactionID, note)
	c.AddDomainEvent(NewPaymentRecordedEvent(c, amount))

	return entry, nil
}

// AdjustDue applies a manual correction to the outstanding due. A
// positive amount extends credit, a negative amount writes it down.
// The due can never be adjusted below zero.
func (c *Customer) AdjustDue(amount valueobject.Money, actor, reason string) (*LedgerEntry, error) {
	if amount.IsZero() {
		return nil, shared.ErrInvalidAmount
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Adjustment reason is required")
	}

	newDue, err := c.DueAmount.Add(amount)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}
	if newDue.IsNegative() {
		return nil, shared.NewDomainErrorf("EXCEEDS_DUE",
			"Adjustment of %s would take due below zero (current %s)", amount.String(), c.DueAmount.String())
	}

	c.DueAmount = newDue
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	entry := newLedgerEntry(c, EntryTypeAdjustment, amount, nil, nil, reason)
	c.AddDomainEvent(NewDueAdjustedEvent(c, amount, actor, reason))

	return entry, nil
}

// Activate re-enables an inactive customer
func (c *Customer) Activate() error {
	if c.Status == StatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Customer is already active")
	}

	c.Status = StatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, StatusInactive, StatusActive))

	return nil
}

// Deactivate disables a customer. A customer with outstanding due
// cannot be deactivated until the due is settled.
func (c *Customer) Deactivate() error {
	if c.Status == StatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Customer is already inactive")
	}
	if c.DueAmount.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Customer has outstanding due and cannot be deactivated")
	}

	c.Status = StatusInactive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, StatusActive, StatusInactive))

	return nil
}

// IsActive reports whether the customer can transact
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

// HasDue reports whether the customer owes anything
func (c *Customer) HasDue() bool {
	return c.DueAmount.IsPositive()
}

func validateCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
