// Package register_repo provides PostgreSQL implementations for
// register repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/registers/inventory"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const stockLevelsTable = "reg_stock_levels"

// InventoryRepo implements inventory.Repository on a per-key stock
// levels table. Atomicity comes from conditional row updates; lock
// waits are bounded by the transaction's statement_timeout.
type InventoryRepo struct {
	txManager *postgres.TxManager
}

// NewInventoryRepo creates a new stock level repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{txManager: txManager}
}

// DecrementIfAvailable atomically checks and decrements one stock key.
func (r *InventoryRepo) DecrementIfAvailable(ctx context.Context, productID id.ID, sizeKey string, qty int64) (int64, error) {
	querier := r.txManager.GetQuerier(ctx)

	var remaining int64
	err := querier.QueryRow(ctx, `
		UPDATE reg_stock_levels
		SET quantity = quantity - $3, updated_at = NOW()
		WHERE product_id = $1 AND size_key = $2 AND quantity >= $3
		RETURNING quantity
	`, productID, sizeKey, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if isTimeout(err) {
		return 0, apperror.NewSettlementTimeout(stockKey(productID, sizeKey))
	}
	if !pgxscan.NotFound(err) {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	// The conditional update matched no row: either the key does not
	// exist or the quantity fell short. Classify for the caller.
	var available int64
	err = querier.QueryRow(ctx, `
		SELECT quantity FROM reg_stock_levels
		WHERE product_id = $1 AND size_key = $2
	`, productID, sizeKey).Scan(&available)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewUnknownSize(productID.String(), sizeKey)
		}
		return 0, fmt.Errorf("check stock: %w", err)
	}
	return 0, apperror.NewInsufficientStock(productID.String(), sizeKey, qty, available)
}

// Increment adds qty back to an existing key.
func (r *InventoryRepo) Increment(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE reg_stock_levels
		SET quantity = quantity + $3, updated_at = NOW()
		WHERE product_id = $1 AND size_key = $2
	`, productID, sizeKey, qty)
	if err != nil {
		if isTimeout(err) {
			return apperror.NewSettlementTimeout(stockKey(productID, sizeKey))
		}
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewUnknownSize(productID.String(), sizeKey)
	}
	return nil
}

// GetLevel returns the current quantity for a key.
func (r *InventoryRepo) GetLevel(ctx context.Context, productID id.ID, sizeKey string) (inventory.Level, error) {
	var level inventory.Level
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &level, `
		SELECT product_id, size_key, quantity FROM reg_stock_levels
		WHERE product_id = $1 AND size_key = $2
	`, productID, sizeKey)
	if err != nil {
		if pgxscan.NotFound(err) {
			return level, apperror.NewUnknownSize(productID.String(), sizeKey)
		}
		return level, fmt.Errorf("get stock level: %w", err)
	}
	return level, nil
}

// GetLevelsByProduct returns all size levels of a product.
func (r *InventoryRepo) GetLevelsByProduct(ctx context.Context, productID id.ID) ([]inventory.Level, error) {
	var levels []inventory.Level
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &levels, `
		SELECT product_id, size_key, quantity FROM reg_stock_levels
		WHERE product_id = $1
		ORDER BY size_key
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("select stock levels: %w", err)
	}
	return levels, nil
}

// SetLevel creates or replaces a stock key.
func (r *InventoryRepo) SetLevel(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO reg_stock_levels (product_id, size_key, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, size_key) DO UPDATE
		SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`, productID, sizeKey, qty)
	if err != nil {
		return fmt.Errorf("set stock level: %w", err)
	}
	return nil
}

func stockKey(productID id.ID, sizeKey string) string {
	return productID.String() + "/" + sizeKey
}

// isTimeout reports whether err is a cancelled statement or an
// unavailable lock, both surfaced to callers as a retryable timeout.
func isTimeout(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "57014" || pgErr.Code == "55P03"
}
