package product

import (
	"context"
	"fmt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/pkg/logger"
)

// Cache is a read-through cache for barcode lookups. Implementations
// must treat misses as (nil, nil).
type Cache interface {
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	SetByBarcode(ctx context.Context, barcode string, p *Product) error
	Invalidate(ctx context.Context, barcode string) error
}

// Service provides business logic for the product catalog.
type Service struct {
	repo  Repository
	cache Cache // optional
}

// NewService creates a new product service. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.Barcode != nil && *p.Barcode != "" {
		existing, err := s.repo.GetByBarcode(ctx, *p.Barcode)
		if err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("check barcode: %w", err)
		}
		if existing != nil {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "id", p.ID, "name", p.Name)
	return nil
}

// Update validates and stores an administrative edit.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.Barcode != nil && *p.Barcode != "" {
		existing, err := s.repo.GetByBarcode(ctx, *p.Barcode)
		if err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("check barcode: %w", err)
		}
		if existing != nil && existing.ID != p.ID {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if s.cache != nil && p.Barcode != nil {
		if err := s.cache.Invalidate(ctx, *p.Barcode); err != nil {
			logger.Warn(ctx, "barcode cache invalidation failed", "barcode", *p.Barcode, "error", err)
		}
	}

	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// FindByBarcode resolves a barcode to a product, consulting the cache
// first. Cache failures fall through to the repository.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	if barcode == "" {
		return nil, apperror.NewValidation("barcode is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetByBarcode(ctx, barcode)
		if err != nil {
			logger.Warn(ctx, "barcode cache read failed", "barcode", barcode, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	p, err := s.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetByBarcode(ctx, barcode, p); err != nil {
			logger.Warn(ctx, "barcode cache write failed", "barcode", barcode, "error", err)
		}
	}

	return p, nil
}

// List retrieves products matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}
