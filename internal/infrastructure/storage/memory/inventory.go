// Package memory provides in-process repository implementations. They
// back single-node deployments and tests; the postgres package is the
// production counterpart.
package memory

import (
	"context"
	"sync"
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/registers/inventory"
	"tillpoint/pkg/keylock"
)

// DefaultLockTimeout bounds the wait for a contended stock key.
const DefaultLockTimeout = 3 * time.Second

// InventoryRepo implements inventory.Repository with per-key locking.
// Concurrent settlements over one (product, size) key serialize; the
// wait is bounded and surfaces as SETTLEMENT_TIMEOUT.
type InventoryRepo struct {
	locks       *keylock.KeyLock
	lockTimeout time.Duration

	mu     sync.RWMutex
	levels map[string]int64
}

// NewInventoryRepo creates an in-memory stock repository.
func NewInventoryRepo(lockTimeout time.Duration) *InventoryRepo {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &InventoryRepo{
		locks:       keylock.New(),
		lockTimeout: lockTimeout,
		levels:      make(map[string]int64),
	}
}

func stockKey(productID id.ID, sizeKey string) string {
	return productID.String() + "/" + sizeKey
}

func (r *InventoryRepo) acquire(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	release, err := r.locks.Acquire(lockCtx, key)
	if err != nil {
		return nil, apperror.NewSettlementTimeout(key)
	}
	return release, nil
}

// DecrementIfAvailable atomically checks and decrements one stock key.
func (r *InventoryRepo) DecrementIfAvailable(ctx context.Context, productID id.ID, sizeKey string, qty int64) (int64, error) {
	key := stockKey(productID, sizeKey)
	release, err := r.acquire(ctx, key)
	if err != nil {
		return 0, err
	}
	defer release()

	r.mu.Lock()
	defer r.mu.Unlock()

	available, ok := r.levels[key]
	if !ok {
		return 0, apperror.NewUnknownSize(productID.String(), sizeKey)
	}
	if available < qty {
		return 0, apperror.NewInsufficientStock(productID.String(), sizeKey, qty, available)
	}
	r.levels[key] = available - qty
	return r.levels[key], nil
}

// Increment adds qty back to an existing key.
func (r *InventoryRepo) Increment(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	key := stockKey(productID, sizeKey)
	release, err := r.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.levels[key]; !ok {
		return apperror.NewUnknownSize(productID.String(), sizeKey)
	}
	r.levels[key] += qty
	return nil
}

// GetLevel returns the current quantity for a key.
func (r *InventoryRepo) GetLevel(ctx context.Context, productID id.ID, sizeKey string) (inventory.Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	qty, ok := r.levels[stockKey(productID, sizeKey)]
	if !ok {
		return inventory.Level{}, apperror.NewUnknownSize(productID.String(), sizeKey)
	}
	return inventory.Level{ProductID: productID, SizeKey: sizeKey, Quantity: qty}, nil
}

// GetLevelsByProduct returns all size levels of a product.
func (r *InventoryRepo) GetLevelsByProduct(ctx context.Context, productID id.ID) ([]inventory.Level, error) {
	prefix := productID.String() + "/"

	r.mu.RLock()
	defer r.mu.RUnlock()

	var levels []inventory.Level
	for key, qty := range r.levels {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			levels = append(levels, inventory.Level{
				ProductID: productID,
				SizeKey:   key[len(prefix):],
				Quantity:  qty,
			})
		}
	}
	return levels, nil
}

// SetLevel creates or replaces a stock key.
func (r *InventoryRepo) SetLevel(ctx context.Context, productID id.ID, sizeKey string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[stockKey(productID, sizeKey)] = qty
	return nil
}
