package memory

import (
	"context"
	"sort"
	"sync"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/sale"
)

// SaleRepo implements sale.Repository in memory.
type SaleRepo struct {
	mu    sync.RWMutex
	items map[id.ID]*sale.Sale
}

// NewSaleRepo creates an in-memory sale repository.
func NewSaleRepo() *SaleRepo {
	return &SaleRepo{items: make(map[id.ID]*sale.Sale)}
}

// Create stores the sale aggregate.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[s.ID]; exists {
		return apperror.NewConflict("sale already exists")
	}

	clone := *s
	clone.Items = append([]sale.Item(nil), s.Items...)
	clone.Payments = append([]sale.Payment(nil), s.Payments...)
	r.items[s.ID] = &clone
	return nil
}

// GetByID retrieves a sale with its items and payments.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}

	clone := *s
	clone.Items = append([]sale.Item(nil), s.Items...)
	clone.Payments = append([]sale.Payment(nil), s.Payments...)
	return &clone, nil
}

// List retrieves sales matching the filter, newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) ([]*sale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*sale.Sale
	for _, s := range r.items {
		if filter.CustomerID != nil {
			if s.CustomerID == nil || *s.CustomerID != *filter.CustomerID {
				continue
			}
		}
		clone := *s
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}
