package valueobject

import "github.com/shopspring/decimal"

// AmountTolerance is the maximum difference, in major units, under which
// two monetary amounts are considered equal. Rounding differences
// between clients, gateways and this service stay within one cent.
var AmountTolerance = decimal.New(1, -2)
