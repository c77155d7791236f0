package memory

import (
	"context"
	"sort"

	"tillpoint/internal/domain/reports"
	"tillpoint/internal/domain/sale"
)

// ReportRepo implements reports.Repository by scanning the in-memory
// sale and customer stores. Fine at the scale a memory deployment
// serves.
type ReportRepo struct {
	sales     *SaleRepo
	customers *CustomerRepo
	products  *ProductRepo
}

// NewReportRepo creates an in-memory report repository.
func NewReportRepo(sales *SaleRepo, customers *CustomerRepo, products *ProductRepo) *ReportRepo {
	return &ReportRepo{sales: sales, customers: customers, products: products}
}

func (r *ReportRepo) salesInPeriod(filter reports.SalesSummaryFilter) []*sale.Sale {
	r.sales.mu.RLock()
	defer r.sales.mu.RUnlock()

	var out []*sale.Sale
	for _, s := range r.sales.items {
		if s.CreatedAt.Before(filter.FromDate) || !s.CreatedAt.Before(filter.ToDate) {
			continue
		}
		if filter.CustomerID != nil {
			if s.CustomerID == nil || *s.CustomerID != *filter.CustomerID {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// GetSalesSummary aggregates committed sales over a period.
func (r *ReportRepo) GetSalesSummary(ctx context.Context, filter reports.SalesSummaryFilter) (*reports.SalesSummary, error) {
	summary := &reports.SalesSummary{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}

	for _, s := range r.salesInPeriod(filter) {
		summary.SaleCount++
		summary.GrossSales += s.Subtotal + s.ItemDiscountTotal
		summary.TotalDiscount += s.ItemDiscountTotal + s.BillDiscountApplied
		summary.TotalTax += s.Tax
		summary.NetSales += s.Total
		summary.Collected += s.AmountCollected
		if s.BalanceAmount > 0 {
			summary.Outstanding += s.BalanceAmount
		}
	}
	return summary, nil
}

// GetPaymentBreakdown splits collected amounts by payment method.
func (r *ReportRepo) GetPaymentBreakdown(ctx context.Context, filter reports.SalesSummaryFilter) (*reports.PaymentBreakdown, error) {
	breakdown := &reports.PaymentBreakdown{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}

	byMethod := make(map[string]*reports.PaymentBreakdownItem)
	for _, s := range r.salesInPeriod(filter) {
		for _, p := range s.Payments {
			item, ok := byMethod[string(p.Method)]
			if !ok {
				item = &reports.PaymentBreakdownItem{Method: string(p.Method)}
				byMethod[string(p.Method)] = item
			}
			item.PaymentCount++
			item.Amount += p.Amount
			breakdown.Total += p.Amount
		}
	}

	for _, item := range byMethod {
		breakdown.Items = append(breakdown.Items, *item)
	}
	sort.Slice(breakdown.Items, func(i, j int) bool {
		return breakdown.Items[i].Amount > breakdown.Items[j].Amount
	})
	return breakdown, nil
}

// GetTopProducts ranks products by revenue over a period.
func (r *ReportRepo) GetTopProducts(ctx context.Context, filter reports.TopProductsFilter) ([]reports.TopProductItem, error) {
	period := reports.SalesSummaryFilter{FromDate: filter.FromDate, ToDate: filter.ToDate}

	byProduct := make(map[string]*reports.TopProductItem)
	for _, s := range r.salesInPeriod(period) {
		for _, item := range s.Items {
			row, ok := byProduct[item.ProductID.String()]
			if !ok {
				row = &reports.TopProductItem{ProductID: item.ProductID}
				if p, err := r.products.GetByID(ctx, item.ProductID); err == nil {
					row.ProductName = p.Name
				}
				byProduct[item.ProductID.String()] = row
			}
			row.QuantitySold += item.Quantity
			row.Revenue += item.Subtotal
		}
	}

	items := make([]reports.TopProductItem, 0, len(byProduct))
	for _, row := range byProduct {
		items = append(items, *row)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Revenue > items[j].Revenue })
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

// GetDebtors lists customers with outstanding debt, largest first.
func (r *ReportRepo) GetDebtors(ctx context.Context, limit, offset int) ([]reports.DebtorItem, error) {
	r.customers.mu.RLock()
	defer r.customers.mu.RUnlock()

	var items []reports.DebtorItem
	for _, c := range r.customers.items {
		if c.TotalDebt <= 0 {
			continue
		}
		items = append(items, reports.DebtorItem{
			CustomerID:   c.ID,
			CustomerName: c.Name,
			Phone:        c.Phone,
			TotalDebt:    c.TotalDebt,
			TotalAdvance: c.TotalAdvance,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TotalDebt > items[j].TotalDebt })
	return paginate(items, limit, offset), nil
}
