package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/types"
)

func TestAllocate_Exact(t *testing.T) {
	alloc, err := Allocate(18000, []Payment{{Method: MethodCash, Amount: 18000}}, false)
	require.NoError(t, err)

	assert.Equal(t, OutcomeExact, alloc.Outcome)
	assert.Equal(t, types.MinorUnits(18000), alloc.Collected)
	assert.True(t, alloc.BalanceAmount.IsZero())
}

func TestAllocate_SplitPayments(t *testing.T) {
	alloc, err := Allocate(10000, []Payment{
		{Method: MethodCash, Amount: 4000},
		{Method: MethodCard, Amount: 5000},
		{Method: MethodMobile, Amount: 1000},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, OutcomeExact, alloc.Outcome)
	assert.Equal(t, types.MinorUnits(10000), alloc.Collected)
}

func TestAllocate_UnderpaidWithCustomer(t *testing.T) {
	// total 180, paid 150 -> balance +30 owed by the customer
	alloc, err := Allocate(18000, []Payment{{Method: MethodCash, Amount: 15000}}, true)
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnderpaid, alloc.Outcome)
	assert.Equal(t, types.MinorUnits(3000), alloc.BalanceAmount)
	assert.Equal(t, types.MinorUnits(18000), alloc.Collected+alloc.BalanceAmount)
}

func TestAllocate_UnderpaidWithoutCustomerRejected(t *testing.T) {
	_, err := Allocate(18000, []Payment{{Method: MethodCash, Amount: 15000}}, false)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPaymentSet))
}

func TestAllocate_OverpaidWithCustomer(t *testing.T) {
	alloc, err := Allocate(18000, []Payment{{Method: MethodCash, Amount: 20000}}, true)
	require.NoError(t, err)

	assert.Equal(t, OutcomeOverpaid, alloc.Outcome)
	assert.Equal(t, types.MinorUnits(-2000), alloc.BalanceAmount)
}

func TestAllocate_OverpaidWithoutCustomerRejected(t *testing.T) {
	_, err := Allocate(18000, []Payment{{Method: MethodCard, Amount: 20000}}, false)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPaymentSet))
}

func TestAllocate_InvalidPayments(t *testing.T) {
	tests := []struct {
		name     string
		target   types.MinorUnits
		tendered []Payment
	}{
		{
			name:   "empty set with positive target",
			target: 100,
		},
		{
			name:     "zero amount",
			target:   100,
			tendered: []Payment{{Method: MethodCash, Amount: 0}},
		},
		{
			name:     "negative amount",
			target:   100,
			tendered: []Payment{{Method: MethodCash, Amount: -50}},
		},
		{
			name:     "unknown method",
			target:   100,
			tendered: []Payment{{Method: "cheque", Amount: 100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(tt.target, tt.tendered, true)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPaymentSet))
		})
	}
}

func TestAllocate_ZeroTargetNoPayments(t *testing.T) {
	// A fully discounted bill may legitimately have nothing tendered.
	alloc, err := Allocate(0, nil, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExact, alloc.Outcome)
}

func TestMethodValid(t *testing.T) {
	for _, m := range []Method{MethodCash, MethodCard, MethodMobile, MethodBankTransfer, MethodStoreCredit} {
		assert.True(t, m.Valid(), "method %s should be valid", m)
	}
	assert.False(t, Method("bitcoin").Valid())
	assert.False(t, Method("").Valid())
}
