package common

import (
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// ParseMoney turns an API amount string and optional currency code into
// Money. An empty currency falls back to the store default. Bad decimal
// strings surface as INVALID_AMOUNT so handlers map them to 400.
func ParseMoney(amount, currency string) (valueobject.Money, error) {
	cur := valueobject.Currency(currency)
	if cur == "" {
		cur = valueobject.DefaultCurrency
	}
	m, err := valueobject.NewMoneyFromString(amount, cur)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainErrorf("INVALID_AMOUNT", "Invalid amount %q", amount)
	}
	return m, nil
}
