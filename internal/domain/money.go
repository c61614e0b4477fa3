package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places every stored amount carries.
const MoneyScale = 2

// MaxAmount is the largest balance, price or total the ledgers can hold.
// The postgres columns are NUMERIC(14,2).
var MaxAmount = decimal.RequireFromString("999999999999.99")

// CheckAmount rejects amounts a ledger column would round or overflow, so
// the value a caller sees is exactly the value that is stored.
func CheckAmount(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return NewValidationError(field, "must have at most 2 decimal places", nil)
	}
	if amount.Abs().GreaterThan(MaxAmount) {
		return NewValidationError(field, "exceeds the maximum amount", nil)
	}
	return nil
}
