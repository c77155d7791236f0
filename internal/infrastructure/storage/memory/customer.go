package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/domain/registers/balance"
)

// CustomerRepo implements customer.Repository and balance.Repository in
// memory. As in the database schema, the balance lives on the customer
// record.
type CustomerRepo struct {
	mu    sync.RWMutex
	items map[id.ID]*customer.Customer
}

// NewCustomerRepo creates an in-memory customer repository.
func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{items: make(map[id.ID]*customer.Customer)}
}

// Create inserts a new customer.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *c
	r.items[c.ID] = &clone
	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID)
	}
	clone := *c
	return &clone, nil
}

// List retrieves customers matching the filter, ordered by name.
func (r *CustomerRepo) List(ctx context.Context, filter customer.ListFilter) ([]*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*customer.Customer
	for _, c := range r.items {
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(c.Name), needle) &&
				!strings.Contains(c.Phone, filter.Search) {
				continue
			}
		}
		clone := *c
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// Adjust applies fn to the customer's balance under the store lock.
// Implements balance.Repository.
func (r *CustomerRepo) Adjust(ctx context.Context, customerID id.ID, fn func(balance.Balance) balance.Balance) (balance.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[customerID]
	if !ok {
		return balance.Balance{}, apperror.NewNotFound("customer", customerID)
	}

	updated := fn(balance.Balance{TotalDebt: c.TotalDebt, TotalAdvance: c.TotalAdvance})
	c.TotalDebt = updated.TotalDebt
	c.TotalAdvance = updated.TotalAdvance
	return updated, nil
}

// Get returns the customer's current balance. Implements
// balance.Repository.
func (r *CustomerRepo) Get(ctx context.Context, customerID id.ID) (balance.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[customerID]
	if !ok {
		return balance.Balance{}, apperror.NewNotFound("customer", customerID)
	}
	return balance.Balance{TotalDebt: c.TotalDebt, TotalAdvance: c.TotalAdvance}, nil
}
