package customer

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// EntryType classifies a ledger entry
type EntryType string

const (
	EntryTypePurchase   EntryType = "PURCHASE"
	EntryTypePayment    EntryType = "PAYMENT"
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
)

// IsValid reports whether the entry type is known
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypePurchase, EntryTypePayment, EntryTypeAdjustment:
		return true
	}
	return false
}

// LedgerEntry is one immutable line in a customer's receivable ledger.
// Entries are append-only; corrections are new ADJUSTMENT entries, never
// edits to existing rows. BalanceAfter snapshots the due right after the
// entry applied, so history can be read without replaying it.
type LedgerEntry struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	CustomerID    uuid.UUID
	EntryType     EntryType
	Amount        valueobject.Money
	BalanceAfter  valueobject.Money
	SaleID        *uuid.UUID
	TransactionID *uuid.UUID
	Note          string
}

func newLedgerEntry(c *Customer, entryType EntryType, amount valueobject.Money, saleID, transactionID *uuid.UUID, note string) *LedgerEntry {
	return &LedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      c.TenantID,
		CustomerID:    c.ID,
		EntryType:     entryType,
		Amount:        amount,
		BalanceAfter:  c.DueAmount,
		SaleID:        saleID,
		TransactionID: transactionID,
		Note:          note,
	}
}
