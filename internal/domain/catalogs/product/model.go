// Package product provides the product catalog.
package product

import (
	"context"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/types"
)

// FreeSizeKey is the synthetic stock key under which free-size products
// are tracked. Sized products use their size label instead.
const FreeSizeKey = "FREE"

// Product represents a catalog item sold at the till.
type Product struct {
	entity.Base

	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category,omitempty"`

	// FreeSize marks products without a size dimension; their stock
	// lives under FreeSizeKey.
	FreeSize bool `db:"free_size" json:"freeSize"`

	CostPrice    types.MinorUnits `db:"cost_price" json:"costPrice"`
	SellingPrice types.MinorUnits `db:"selling_price" json:"sellingPrice"`

	// Barcode is optional but unique across the catalog when set.
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Sizes is the list of size labels the product is stocked in.
	// Empty for free-size products.
	Sizes []string `db:"sizes" json:"sizes,omitempty"`
}

// New creates a new Product.
func New(name, category string, freeSize bool) *Product {
	return &Product{
		Base:     entity.NewBase(),
		Name:     name,
		Category: category,
		FreeSize: freeSize,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.SellingPrice.IsNegative() || p.CostPrice.IsNegative() {
		return apperror.NewValidation("prices must not be negative")
	}
	if p.FreeSize && len(p.Sizes) > 0 {
		return apperror.NewValidation("free-size product cannot carry a size list")
	}
	return nil
}

// ResolveSizeKey maps a requested size to the product's stock key.
// Free-size products always resolve to FreeSizeKey regardless of the
// requested size; sized products require the size to be listed.
func (p *Product) ResolveSizeKey(size string) (string, error) {
	if p.FreeSize {
		return FreeSizeKey, nil
	}
	if size == "" {
		return "", apperror.NewUnknownSize(p.ID.String(), size)
	}
	for _, s := range p.Sizes {
		if s == size {
			return size, nil
		}
	}
	return "", apperror.NewUnknownSize(p.ID.String(), size)
}
