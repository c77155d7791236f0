// Package payments validates a set of tendered payments against a
// settlement target and classifies the outcome.
package payments

import (
	"fmt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/types"
)

// Method is a payment method from the fixed enumerated set.
type Method string

const (
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodMobile       Method = "mobile"
	MethodBankTransfer Method = "bank_transfer"
	MethodStoreCredit  Method = "store_credit"
)

// Valid reports whether m is a known payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodMobile, MethodBankTransfer, MethodStoreCredit:
		return true
	}
	return false
}

// Payment is one tendered payment.
type Payment struct {
	Method    Method
	Amount    types.MinorUnits
	Reference string
}

// Outcome classifies an allocation result.
type Outcome string

const (
	// OutcomeExact - collected equals the target.
	OutcomeExact Outcome = "exact"
	// OutcomeUnderpaid - shortfall recorded as customer debt.
	OutcomeUnderpaid Outcome = "underpaid"
	// OutcomeOverpaid - surplus recorded as customer advance.
	OutcomeOverpaid Outcome = "overpaid"
)

// Allocation is the result of applying a payment set to a target amount.
type Allocation struct {
	Collected types.MinorUnits
	// BalanceAmount is signed: positive when the customer owes the
	// shortfall, negative when the surplus is held as an advance.
	// Collected + BalanceAmount == Target always holds.
	BalanceAmount types.MinorUnits
	Outcome       Outcome
}

// Allocate validates tendered payments against the target amount.
// Amounts are integer minor units, so the comparison is exact.
//
// A shortfall or surplus can only be carried by an attached customer;
// without one, an unbalanced payment set is rejected outright.
func Allocate(target types.MinorUnits, tendered []Payment, hasCustomer bool) (Allocation, error) {
	if target.IsNegative() {
		return Allocation{}, apperror.NewInternal(fmt.Errorf("negative settlement target %d", target))
	}

	if len(tendered) == 0 && target.IsPositive() {
		return Allocation{}, apperror.NewInvalidPaymentSet("no payments tendered for a non-zero total")
	}

	var collected types.MinorUnits
	for i, p := range tendered {
		if !p.Method.Valid() {
			return Allocation{}, apperror.NewInvalidPaymentSet(fmt.Sprintf("payment %d: unknown method", i+1)).
				WithDetail("method", string(p.Method))
		}
		if !p.Amount.IsPositive() {
			return Allocation{}, apperror.NewInvalidPaymentSet(fmt.Sprintf("payment %d: amount must be positive", i+1)).
				WithDetail("amount", p.Amount)
		}
		collected += p.Amount
	}

	alloc := Allocation{Collected: collected, BalanceAmount: target - collected}

	switch {
	case alloc.BalanceAmount.IsZero():
		alloc.Outcome = OutcomeExact
	case alloc.BalanceAmount.IsPositive():
		if !hasCustomer {
			return Allocation{}, apperror.NewInvalidPaymentSet("payments fall short of total and no customer is attached").
				WithDetail("target", target).
				WithDetail("collected", collected)
		}
		alloc.Outcome = OutcomeUnderpaid
	default:
		if !hasCustomer {
			return Allocation{}, apperror.NewInvalidPaymentSet("payments exceed total and no customer is attached").
				WithDetail("target", target).
				WithDetail("collected", collected)
		}
		alloc.Outcome = OutcomeOverpaid
	}

	return alloc, nil
}
