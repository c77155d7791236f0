// Package types provides common monetary types and utilities.
//
// All currency arithmetic in the settlement engine is performed on
// integer minor units (cents). This makes payment-vs-total comparison
// exact and removes any need for an epsilon tolerance.
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnits represents a monetary value in minor currency units (cents).
// Storage: int64 - sufficient for ±92 quadrillion minor units.
// Example: 123.45 → 12345.
type MinorUnits int64

// CurrencyDecimalPlaces is the number of fractional digits of the
// operating currency. Flat rate; multi-currency is out of scope.
const CurrencyDecimalPlaces = 2

// NewMinorUnitsFromMajor creates MinorUnits from a major-unit amount,
// rounding half away from zero.
func NewMinorUnitsFromMajor(major float64) MinorUnits {
	return MinorUnits(math.Round(major * math.Pow10(CurrencyDecimalPlaces)))
}

// NewMinorUnitsFromDecimal converts a decimal major-unit amount,
// rounding half away from zero to cents.
func NewMinorUnitsFromDecimal(d decimal.Decimal) MinorUnits {
	return MinorUnits(d.Shift(CurrencyDecimalPlaces).Round(0).IntPart())
}

// ToMajor converts minor units back to major units for display.
func (m MinorUnits) ToMajor() float64 {
	return float64(m) / math.Pow10(CurrencyDecimalPlaces)
}

// Decimal returns the value as a decimal major-unit amount.
func (m MinorUnits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -CurrencyDecimalPlaces)
}

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Neg() MinorUnits  { return -m }

func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// Percent applies a percentage to the amount, rounding half away from
// zero to cents. Used for percentage discounts.
func (m MinorUnits) Percent(pct decimal.Decimal) MinorUnits {
	v := decimal.New(int64(m), 0).Mul(pct).Div(decimal.NewFromInt(100))
	return MinorUnits(v.Round(0).IntPart())
}
