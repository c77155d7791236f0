package reports

import (
	"context"
)

// Repository defines report data access.
type Repository interface {
	GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummary, error)
	GetPaymentBreakdown(ctx context.Context, filter SalesSummaryFilter) (*PaymentBreakdown, error)
	GetTopProducts(ctx context.Context, filter TopProductsFilter) ([]TopProductItem, error)
	GetDebtors(ctx context.Context, limit, offset int) ([]DebtorItem, error)
}
