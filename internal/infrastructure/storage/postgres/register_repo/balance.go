package register_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/registers/balance"
	"tillpoint/internal/infrastructure/storage/postgres"
)

// BalanceRepo implements balance.Repository over the debt and advance
// columns of the customer row. Adjust locks the row so concurrent
// settlements against one customer serialize.
type BalanceRepo struct {
	txManager *postgres.TxManager
}

// NewBalanceRepo creates a new customer balance repository.
func NewBalanceRepo(txManager *postgres.TxManager) *BalanceRepo {
	return &BalanceRepo{txManager: txManager}
}

// Adjust applies fn to the customer's balance under a row lock.
func (r *BalanceRepo) Adjust(ctx context.Context, customerID id.ID, fn func(balance.Balance) balance.Balance) (balance.Balance, error) {
	var updated balance.Balance

	// A settlement already runs inside a transaction; this wrapper
	// covers direct administrative calls.
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		var current balance.Balance
		err := querier.QueryRow(ctx, `
			SELECT total_debt, total_advance FROM cat_customers
			WHERE id = $1
			FOR UPDATE
		`, customerID).Scan(&current.TotalDebt, &current.TotalAdvance)
		if err != nil {
			if pgxscan.NotFound(err) {
				return apperror.NewNotFound("customer", customerID)
			}
			if isTimeout(err) {
				return apperror.NewSettlementTimeout(customerID.String())
			}
			return fmt.Errorf("lock customer balance: %w", err)
		}

		updated = fn(current)

		_, err = querier.Exec(ctx, `
			UPDATE cat_customers
			SET total_debt = $2, total_advance = $3, updated_at = NOW()
			WHERE id = $1
		`, customerID, updated.TotalDebt, updated.TotalAdvance)
		if err != nil {
			return fmt.Errorf("update customer balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return balance.Balance{}, err
	}
	return updated, nil
}

// Get returns the customer's current balance.
func (r *BalanceRepo) Get(ctx context.Context, customerID id.ID) (balance.Balance, error) {
	var b balance.Balance
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT total_debt, total_advance FROM cat_customers
		WHERE id = $1
	`, customerID).Scan(&b.TotalDebt, &b.TotalAdvance)
	if err != nil {
		if pgxscan.NotFound(err) {
			return b, apperror.NewNotFound("customer", customerID)
		}
		return b, fmt.Errorf("get customer balance: %w", err)
	}
	return b, nil
}
