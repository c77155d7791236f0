package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/types"
)

func cents(v int64) types.MinorUnits { return types.MinorUnits(v) }

func TestCalculate_NoDiscounts(t *testing.T) {
	res, err := Calculate([]Line{
		{UnitPrice: cents(10000), Quantity: 2},
		{UnitPrice: cents(2550), Quantity: 1},
	}, Discount{})
	require.NoError(t, err)

	assert.Equal(t, cents(22550), res.Subtotal)
	assert.Equal(t, cents(0), res.ItemDiscountTotal)
	assert.Equal(t, cents(0), res.BillDiscountApplied)
	assert.Equal(t, cents(22550), res.PayableBeforeTax)
}

func TestCalculate_BillPercentage(t *testing.T) {
	// cart = [{price:100, qty:2}], billDiscount 10% -> subtotal 200, applied 20, payable 180
	res, err := Calculate([]Line{
		{UnitPrice: cents(10000), Quantity: 2},
	}, NewPercentDiscount(10))
	require.NoError(t, err)

	assert.Equal(t, cents(20000), res.Subtotal)
	assert.Equal(t, cents(2000), res.BillDiscountApplied)
	assert.Equal(t, cents(18000), res.PayableBeforeTax)
}

func TestCalculate_ItemDiscounts(t *testing.T) {
	res, err := Calculate([]Line{
		{UnitPrice: cents(5000), Quantity: 2, Discount: NewPercentDiscount(50)}, // gross 100, net 50
		{UnitPrice: cents(3000), Quantity: 1, Discount: NewAmountDiscount(10)},  // gross 30, net 20
	}, Discount{})
	require.NoError(t, err)

	assert.Equal(t, cents(7000), res.Subtotal)
	assert.Equal(t, cents(6000), res.ItemDiscountTotal)
	assert.Equal(t, cents(5000), res.Lines[0].Discount)
	assert.Equal(t, cents(1000), res.Lines[1].Discount)
}

func TestCalculate_AmountDiscountClampedAtZero(t *testing.T) {
	// Flat discount larger than the line gross clamps to the gross.
	res, err := Calculate([]Line{
		{UnitPrice: cents(500), Quantity: 1, Discount: NewAmountDiscount(99)},
	}, Discount{})
	require.NoError(t, err)

	assert.Equal(t, cents(0), res.Subtotal)
	assert.Equal(t, cents(500), res.ItemDiscountTotal)
}

func TestCalculate_BillDiscountNeverNegative(t *testing.T) {
	res, err := Calculate([]Line{
		{UnitPrice: cents(1000), Quantity: 1},
	}, NewAmountDiscount(50)) // 5000 cents > subtotal
	require.NoError(t, err)

	assert.Equal(t, cents(1000), res.BillDiscountApplied)
	assert.Equal(t, cents(0), res.PayableBeforeTax)
}

func TestCalculate_FractionalPercentageRounding(t *testing.T) {
	// 12.5% of 999 cents = 124.875 -> rounds to 125
	res, err := Calculate([]Line{
		{UnitPrice: cents(999), Quantity: 1},
	}, NewPercentDiscount(12.5))
	require.NoError(t, err)

	assert.Equal(t, cents(125), res.BillDiscountApplied)
	assert.Equal(t, cents(874), res.PayableBeforeTax)
}

func TestCalculate_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		lines []Line
		bill  Discount
	}{
		{
			name:  "zero quantity",
			lines: []Line{{UnitPrice: cents(100), Quantity: 0}},
		},
		{
			name:  "negative quantity",
			lines: []Line{{UnitPrice: cents(100), Quantity: -1}},
		},
		{
			name:  "negative price",
			lines: []Line{{UnitPrice: cents(-100), Quantity: 1}},
		},
		{
			name:  "percentage above 100",
			lines: []Line{{UnitPrice: cents(100), Quantity: 1, Discount: NewPercentDiscount(101)}},
		},
		{
			name:  "negative percentage",
			lines: []Line{{UnitPrice: cents(100), Quantity: 1, Discount: NewPercentDiscount(-5)}},
		},
		{
			name:  "negative bill percentage",
			lines: []Line{{UnitPrice: cents(100), Quantity: 1}},
			bill:  Discount{Type: DiscountPercentage, Percent: decimal.NewFromInt(-1)},
		},
		{
			name:  "unknown discount type",
			lines: []Line{{UnitPrice: cents(100), Quantity: 1, Discount: Discount{Type: "BOGUS"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.lines, tt.bill)
			assert.Error(t, err)
		})
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	lines := []Line{
		{UnitPrice: cents(1999), Quantity: 3, Discount: NewPercentDiscount(7.5)},
		{UnitPrice: cents(450), Quantity: 2, Discount: NewAmountDiscount(1)},
	}
	first, err := Calculate(lines, NewPercentDiscount(5))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Calculate(lines, NewPercentDiscount(5))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
