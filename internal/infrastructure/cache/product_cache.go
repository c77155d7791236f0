// Package cache provides Redis-backed read-through caches.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tillpoint/internal/domain/catalogs/product"
)

const productBarcodePrefix = "product:barcode:"

// ProductCache caches barcode lookups, the hottest read path at the
// till. Implements product.Cache.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a Redis product cache.
func NewProductCache(addr, password string, db int, ttl time.Duration) *ProductCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProductCache{client: client, ttl: ttl}
}

// Ping verifies the Redis connection.
func (c *ProductCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *ProductCache) Close() error {
	return c.client.Close()
}

// GetByBarcode returns the cached product for a barcode, or nil on a
// miss.
func (c *ProductCache) GetByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	val, err := c.client.Get(ctx, productBarcodePrefix+barcode).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p product.Product
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetByBarcode caches a product under its barcode.
func (c *ProductCache) SetByBarcode(ctx context.Context, barcode string, p *product.Product) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productBarcodePrefix+barcode, payload, c.ttl).Err()
}

// Invalidate drops the cached entry for a barcode, called after
// product updates.
func (c *ProductCache) Invalidate(ctx context.Context, barcode string) error {
	return c.client.Del(ctx, productBarcodePrefix+barcode).Err()
}
