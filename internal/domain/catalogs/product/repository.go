package product

import (
	"context"

	"tillpoint/internal/core/id"
)

// ListFilter narrows product listings.
type ListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// Repository defines product persistence operations.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByIDs(ctx context.Context, productIDs []id.ID) ([]*Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
}
