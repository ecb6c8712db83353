package sale

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// LineItem is one product line on a sale. TotalPrice is always derived
// as unitPrice * quantity - discount; a submitted total that disagrees
// beyond tolerance is rejected rather than silently recomputed.
type LineItem struct {
	shared.BaseEntity
	SaleID     uuid.UUID
	ProductID  *uuid.UUID
	Name       string
	UnitPrice  valueobject.Money
	Quantity   int64
	Discount   valueobject.Money
	TotalPrice valueobject.Money
}

// NewLineItem creates a validated line item
func NewLineItem(name string, unitPrice valueobject.Money, quantity int64, discount valueobject.Money, productID *uuid.UUID) (*LineItem, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Line item name cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	if discount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}

	gross := unitPrice.MultiplyByInt(quantity)
	total, err := gross.Subtract(discount)
	if err != nil {
		return nil, shared.ErrCurrencyMismatch
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Discount cannot exceed the line total")
	}

	return &LineItem{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Name:       name,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		Discount:   discount,
		TotalPrice: total,
	}, nil
}

// VerifyTotal checks a client-submitted line total against the derived
// one, within tolerance
func (li *LineItem) VerifyTotal(submitted valueobject.Money) error {
	ok, err := li.TotalPrice.WithinTolerance(submitted, valueobject.AmountTolerance)
	if err != nil {
		return shared.ErrCurrencyMismatch
	}
	if !ok {
		return shared.NewDomainErrorf("AMOUNT_MISMATCH",
			"Line %q total %s does not match submitted %s", li.Name, li.TotalPrice.String(), submitted.String())
	}
	return nil
}
