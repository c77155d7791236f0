package customer

import (
	"context"
	"fmt"

	"tillpoint/internal/core/id"
	"tillpoint/pkg/logger"
)

// Service provides business logic for the customer catalog.
// Balance aggregates are read-only here; the balance ledger owns them.
type Service struct {
	repo Repository
}

// NewService creates a new customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}

	logger.Info(ctx, "customer created", "id", c.ID, "name", c.Name)
	return nil
}

// GetByID retrieves a customer with current balances.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// List retrieves customers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Customer, error) {
	return s.repo.List(ctx, filter)
}
