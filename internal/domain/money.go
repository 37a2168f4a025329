package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places of the ledger currency.
// The gateway exchanges amounts in minor units (kobo), the ledger in major units (naira).
const MinorUnitExponent = 2

var minorUnitFactor = decimal.New(1, MinorUnitExponent)

// ToMinorUnits converts a major-unit amount into an integer count of minor units.
// Amounts with more precision than the currency supports are rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(minorUnitFactor)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MinorUnitExponent)
	}

	return minor.IntPart(), nil
}

// FromMinorUnits converts an integer count of minor units into a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorUnitExponent)
}
