package domain

import "github.com/shopspring/decimal"

// Quantities are stored as NUMERIC(18,6): at most six fractional digits, and
// a per-entry cap that keeps any ledger sum inside the column's range.
const QuantityScale = 6

var maxQuantity = decimal.New(1, 9)

func init() {
	// Quantities travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

func validateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return Errorf(KindInvalidArgument, "quantity must be a positive number")
	}
	if !q.Equal(q.Truncate(QuantityScale)) {
		return Errorf(KindInvalidArgument, "quantity %s has more than %d decimal places", q, QuantityScale)
	}
	if q.GreaterThanOrEqual(maxQuantity) {
		return Errorf(KindInvalidArgument, "quantity %s is too large", q)
	}
	return nil
}
