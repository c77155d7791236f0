// Package balance provides the customer debt/advance ledger.
//
// Positive deltas are debt, negative deltas are advance. The ledger
// nets an incoming delta against the opposite aggregate before adding
// the remainder, which keeps the invariant that a customer never has
// debt and advance simultaneously positive.
package balance

import (
	"context"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/pkg/logger"
)

// Balance holds a customer's running aggregates. Both are non-negative;
// at most one is positive.
type Balance struct {
	TotalDebt    types.MinorUnits `db:"total_debt" json:"totalDebt"`
	TotalAdvance types.MinorUnits `db:"total_advance" json:"totalAdvance"`
}

// Repository defines balance persistence. Adjust must perform an atomic
// read-modify-write per customer key: implementations read the current
// balance under a per-customer lock (or row lock), apply fn, and store
// the result. Lock acquisition is bounded and surfaces
// SETTLEMENT_TIMEOUT on expiry.
type Repository interface {
	Adjust(ctx context.Context, customerID id.ID, fn func(Balance) Balance) (Balance, error)
	Get(ctx context.Context, customerID id.ID) (Balance, error)
}

// Ledger provides ledger operations over a balance repository.
type Ledger struct {
	repo Repository
}

// NewLedger creates a new customer balance ledger.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// ApplyDelta applies a settlement balance amount to the customer.
// Positive delta raises debt, negative delta raises advance, each after
// netting against the opposite aggregate.
func (l *Ledger) ApplyDelta(ctx context.Context, customerID id.ID, delta types.MinorUnits) (Balance, error) {
	if id.IsNil(customerID) {
		return Balance{}, apperror.NewValidation("customer is required for a balance delta")
	}

	updated, err := l.repo.Adjust(ctx, customerID, func(b Balance) Balance {
		return apply(b, delta)
	})
	if err != nil {
		return Balance{}, err
	}

	logger.Info(ctx, "customer balance adjusted",
		"customer_id", customerID,
		"delta", delta,
		"total_debt", updated.TotalDebt,
		"total_advance", updated.TotalAdvance,
	)
	return updated, nil
}

// Reverse undoes a previously applied delta. Used for compensation when
// a settlement fails after the balance step.
func (l *Ledger) Reverse(ctx context.Context, customerID id.ID, delta types.MinorUnits) (Balance, error) {
	return l.ApplyDelta(ctx, customerID, delta.Neg())
}

// Get returns the customer's current balance.
func (l *Ledger) Get(ctx context.Context, customerID id.ID) (Balance, error) {
	return l.repo.Get(ctx, customerID)
}

// apply nets the delta into the balance. An incoming debt is first
// satisfied out of any existing advance, and symmetrically for an
// incoming advance against existing debt.
func apply(b Balance, delta types.MinorUnits) Balance {
	switch {
	case delta.IsPositive():
		debt := delta
		if b.TotalAdvance.IsPositive() {
			if b.TotalAdvance >= debt {
				b.TotalAdvance -= debt
				return b
			}
			debt -= b.TotalAdvance
			b.TotalAdvance = 0
		}
		b.TotalDebt += debt
	case delta.IsNegative():
		advance := delta.Abs()
		if b.TotalDebt.IsPositive() {
			if b.TotalDebt >= advance {
				b.TotalDebt -= advance
				return b
			}
			advance -= b.TotalDebt
			b.TotalDebt = 0
		}
		b.TotalAdvance += advance
	}
	return b
}
