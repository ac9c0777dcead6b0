package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(20,4): at most 4 decimal places and 16
// integer digits.
const (
	AmountScale     = 4
	amountIntDigits = 16
)

var amountLimit = decimal.New(1, amountIntDigits)

// checkAmount rejects values a store could not hold exactly.
func checkAmount(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(AmountScale)) {
		return NewValidationError(field, fmt.Sprintf("%s allows at most %d decimal places", field, AmountScale))
	}
	if v.Abs().GreaterThanOrEqual(amountLimit) {
		return NewValidationError(field, fmt.Sprintf("%s must have at most %d integer digits", field, amountIntDigits))
	}
	return nil
}
