package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalogs/product"
)

// ProductRepo implements product.Repository in memory.
type ProductRepo struct {
	mu        sync.RWMutex
	items     map[id.ID]*product.Product
	byBarcode map[string]id.ID
}

// NewProductRepo creates an in-memory product repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{
		items:     make(map[id.ID]*product.Product),
		byBarcode: make(map[string]id.ID),
	}
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Barcode != nil && *p.Barcode != "" {
		if _, exists := r.byBarcode[*p.Barcode]; exists {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
		r.byBarcode[*p.Barcode] = p.ID
	}
	clone := *p
	r.items[p.ID] = &clone
	return nil
}

// Update saves an existing product.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.items[p.ID]
	if !ok {
		return apperror.NewNotFound("product", p.ID)
	}

	if p.Barcode != nil && *p.Barcode != "" {
		if ownerID, exists := r.byBarcode[*p.Barcode]; exists && ownerID != p.ID {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
	}
	if prev.Barcode != nil {
		delete(r.byBarcode, *prev.Barcode)
	}
	if p.Barcode != nil && *p.Barcode != "" {
		r.byBarcode[*p.Barcode] = p.ID
	}

	clone := *p
	r.items[p.ID] = &clone
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	clone := *p
	return &clone, nil
}

// GetByIDs retrieves products by IDs. Missing IDs are simply absent
// from the result.
func (r *ProductRepo) GetByIDs(ctx context.Context, productIDs []id.ID) ([]*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*product.Product, 0, len(productIDs))
	for _, pid := range productIDs {
		if p, ok := r.items[pid]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

// GetByBarcode retrieves a product by barcode.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pid, ok := r.byBarcode[barcode]
	if !ok {
		return nil, apperror.NewNotFound("product", barcode)
	}
	clone := *r.items[pid]
	return &clone, nil
}

// List retrieves products matching the filter, ordered by name.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*product.Product
	for _, p := range r.items {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// paginate applies limit and offset to a sorted slice.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
