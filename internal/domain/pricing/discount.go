// Package pricing provides the discount calculator for sale settlement.
// It is a pure computation: cart lines plus item and bill level discounts
// in, net payable amount out. No side effects.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/types"
)

// DiscountType defines how a discount value is interpreted.
type DiscountType string

const (
	// DiscountNone means no discount.
	DiscountNone DiscountType = ""
	// DiscountPercentage interprets the value as a percentage of the
	// gross amount, valid range [0, 100].
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountAmount subtracts the value directly, clamped at zero.
	DiscountAmount DiscountType = "AMOUNT"
)

// Discount is an item or bill level discount.
type Discount struct {
	Type DiscountType
	// Percent is the percentage for DiscountPercentage.
	Percent decimal.Decimal
	// Amount is the flat reduction for DiscountAmount, in minor units.
	Amount types.MinorUnits
}

// NewPercentDiscount builds a percentage discount.
func NewPercentDiscount(value float64) Discount {
	return Discount{Type: DiscountPercentage, Percent: decimal.NewFromFloat(value)}
}

// NewAmountDiscount builds a flat-amount discount from major units.
func NewAmountDiscount(value float64) Discount {
	return Discount{Type: DiscountAmount, Amount: types.NewMinorUnitsFromMajor(value)}
}

// validate checks the discount against its type's constraints.
func (d Discount) validate() error {
	switch d.Type {
	case DiscountNone:
		return nil
	case DiscountPercentage:
		if d.Percent.IsNegative() || d.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return apperror.NewValidation("percentage discount must be within [0, 100]").
				WithDetail("value", d.Percent.String())
		}
		return nil
	case DiscountAmount:
		if d.Amount.IsNegative() {
			return apperror.NewValidation("amount discount must not be negative").
				WithDetail("value", d.Amount)
		}
		return nil
	default:
		return apperror.NewValidation("unknown discount type").
			WithDetail("type", string(d.Type))
	}
}

// applyTo returns the discount amount for a gross value. The result is
// clamped to [0, gross] so a discount can never drive a line or bill
// negative.
func (d Discount) applyTo(gross types.MinorUnits) types.MinorUnits {
	var cut types.MinorUnits
	switch d.Type {
	case DiscountPercentage:
		cut = gross.Percent(d.Percent)
	case DiscountAmount:
		cut = d.Amount
	default:
		return 0
	}
	if cut > gross {
		return gross
	}
	if cut < 0 {
		return 0
	}
	return cut
}

// Line is one cart position as priced at sale time.
type Line struct {
	UnitPrice types.MinorUnits
	Quantity  int64
	Discount  Discount
}

// LineResult carries per-line computed amounts.
type LineResult struct {
	Gross    types.MinorUnits
	Discount types.MinorUnits
	Net      types.MinorUnits
}

// Result is the calculator output.
type Result struct {
	Subtotal            types.MinorUnits
	ItemDiscountTotal   types.MinorUnits
	BillDiscountApplied types.MinorUnits
	PayableBeforeTax    types.MinorUnits
	Lines               []LineResult
}

// Calculate computes the net payable amount for a cart.
// Item discounts apply per line against the line gross; the bill
// discount then applies against the subtotal of line nets. Every
// discount is clamped so no intermediate amount goes negative.
func Calculate(lines []Line, billDiscount Discount) (Result, error) {
	if err := billDiscount.validate(); err != nil {
		return Result{}, err
	}

	res := Result{Lines: make([]LineResult, 0, len(lines))}

	for i, line := range lines {
		if line.Quantity <= 0 {
			return Result{}, apperror.NewValidation(fmt.Sprintf("line %d: quantity must be positive", i+1)).
				WithDetail("quantity", line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return Result{}, apperror.NewValidation(fmt.Sprintf("line %d: unit price must not be negative", i+1)).
				WithDetail("unitPrice", line.UnitPrice)
		}
		if err := line.Discount.validate(); err != nil {
			return Result{}, err
		}

		gross := line.UnitPrice * types.MinorUnits(line.Quantity)
		cut := line.Discount.applyTo(gross)

		lr := LineResult{Gross: gross, Discount: cut, Net: gross - cut}
		res.Lines = append(res.Lines, lr)
		res.Subtotal += lr.Net
		res.ItemDiscountTotal += cut
	}

	res.BillDiscountApplied = billDiscount.applyTo(res.Subtotal)
	res.PayableBeforeTax = res.Subtotal - res.BillDiscountApplied

	return res, nil
}
