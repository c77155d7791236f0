// Package inventory provides the per-(product, size) stock ledger.
//
// The ledger's one hard invariant: quantity never goes negative. All
// decrements are check-and-decrement under per-key serialization, so
// two concurrent settlements against the same stock row cannot both
// succeed when their combined demand exceeds what is on hand.
package inventory

import (
	"context"
	"fmt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/pkg/logger"
)

// Level is a stock reading for one (product, size) key.
type Level struct {
	ProductID id.ID  `db:"product_id" json:"productId"`
	SizeKey   string `db:"size_key" json:"sizeKey"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

// Repository defines stock persistence operations. Implementations must
// make DecrementIfAvailable atomic per (product, size) key and return
// apperror codes: INSUFFICIENT_STOCK when quantity falls short,
// UNKNOWN_SIZE when the key does not exist, SETTLEMENT_TIMEOUT when the
// key lock cannot be acquired in time.
type Repository interface {
	// DecrementIfAvailable atomically checks quantity >= qty and
	// decrements. Returns the remaining quantity on success.
	DecrementIfAvailable(ctx context.Context, productID id.ID, sizeKey string, qty int64) (int64, error)

	// Increment adds qty back to the key. Used for compensation; the
	// key must exist.
	Increment(ctx context.Context, productID id.ID, sizeKey string, qty int64) error

	// GetLevel returns the current quantity for a key.
	GetLevel(ctx context.Context, productID id.ID, sizeKey string) (Level, error)

	// GetLevelsByProduct returns all size levels of a product.
	GetLevelsByProduct(ctx context.Context, productID id.ID) ([]Level, error)

	// SetLevel creates or replaces a stock key. Administrative path.
	SetLevel(ctx context.Context, productID id.ID, sizeKey string, qty int64) error
}

// Ledger provides ledger operations over a stock repository.
type Ledger struct {
	repo Repository
}

// NewLedger creates a new inventory ledger.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// ReserveAndDecrement atomically takes qty units from (product, size).
// On shortage it fails with INSUFFICIENT_STOCK carrying the available
// quantity and performs no mutation.
func (l *Ledger) ReserveAndDecrement(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty)
	}

	remaining, err := l.repo.DecrementIfAvailable(ctx, productID, sizeKey, qty)
	if err != nil {
		return err
	}

	logger.Debug(ctx, "stock decremented",
		"product_id", productID,
		"size", sizeKey,
		"quantity", qty,
		"remaining", remaining,
	)
	return nil
}

// Restore returns qty units to (product, size). It compensates a
// decrement made earlier in a settlement attempt that later failed.
func (l *Ledger) Restore(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty)
	}

	if err := l.repo.Increment(ctx, productID, sizeKey, qty); err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	logger.Debug(ctx, "stock restored",
		"product_id", productID,
		"size", sizeKey,
		"quantity", qty,
	)
	return nil
}

// GetLevel returns the current quantity for a key.
func (l *Ledger) GetLevel(ctx context.Context, productID id.ID, sizeKey string) (Level, error) {
	return l.repo.GetLevel(ctx, productID, sizeKey)
}

// GetLevelsByProduct returns all size levels of a product.
func (l *Ledger) GetLevelsByProduct(ctx context.Context, productID id.ID) ([]Level, error) {
	return l.repo.GetLevelsByProduct(ctx, productID)
}

// SetLevel creates or replaces a stock key. Administrative path, not
// part of settlement.
func (l *Ledger) SetLevel(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	if qty < 0 {
		return apperror.NewValidation("quantity must not be negative").
			WithDetail("quantity", qty)
	}
	return l.repo.SetLevel(ctx, productID, sizeKey, qty)
}
