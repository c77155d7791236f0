// Package customer provides the customer catalog.
//
// A customer carries two running aggregates, TotalDebt and TotalAdvance.
// Both are non-negative and at most one is positive at any time; they
// are mutated only by the customer balance ledger during settlement.
package customer

import (
	"context"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// Customer represents a known buyer.
type Customer struct {
	entity.Base

	Name  string `db:"name" json:"name"`
	Phone string `db:"phone" json:"phone,omitempty"`

	// TotalDebt is what the customer owes the shop.
	TotalDebt types.MinorUnits `db:"total_debt" json:"totalDebt"`
	// TotalAdvance is what the shop holds for the customer.
	TotalAdvance types.MinorUnits `db:"total_advance" json:"totalAdvance"`
}

// New creates a new Customer.
func New(name, phone string) *Customer {
	return &Customer{
		Base:  entity.NewBase(),
		Name:  name,
		Phone: phone,
	}
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if c.TotalDebt.IsNegative() || c.TotalAdvance.IsNegative() {
		return apperror.NewValidation("balances must not be negative")
	}
	if c.TotalDebt.IsPositive() && c.TotalAdvance.IsPositive() {
		return apperror.NewValidation("debt and advance cannot both be positive")
	}
	return nil
}

// ListFilter narrows customer listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Repository defines customer persistence operations.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	List(ctx context.Context, filter ListFilter) ([]*Customer, error)
}
