package reports

import (
	"context"
	"fmt"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetSalesSummary generates the sales summary for a period.
func (s *Service) GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummary, error) {
	if err := validatePeriod(filter); err != nil {
		return nil, err
	}

	report, err := s.repo.GetSalesSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get sales summary: %w", err)
	}
	return report, nil
}

// GetPaymentBreakdown splits collected amounts by payment method.
func (s *Service) GetPaymentBreakdown(ctx context.Context, filter SalesSummaryFilter) (*PaymentBreakdown, error) {
	if err := validatePeriod(filter); err != nil {
		return nil, err
	}

	report, err := s.repo.GetPaymentBreakdown(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get payment breakdown: %w", err)
	}
	return report, nil
}

// GetTopProducts ranks products by revenue over a period.
func (s *Service) GetTopProducts(ctx context.Context, filter TopProductsFilter) ([]TopProductItem, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, fmt.Errorf("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, fmt.Errorf("fromDate must be before toDate")
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}

	items, err := s.repo.GetTopProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get top products: %w", err)
	}
	return items, nil
}

// GetDebtors lists customers with outstanding debt, largest first.
func (s *Service) GetDebtors(ctx context.Context, limit, offset int) ([]DebtorItem, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	items, err := s.repo.GetDebtors(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get debtors: %w", err)
	}
	return items, nil
}

func validatePeriod(filter SalesSummaryFilter) error {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return fmt.Errorf("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return fmt.Errorf("fromDate must be before toDate")
	}
	return nil
}
