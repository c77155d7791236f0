// Package report_repo provides PostgreSQL implementations for report
// data access.
package report_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/domain/reports"
	"tillpoint/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository with SQL aggregations over
// committed sales.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// GetSalesSummary aggregates committed sales over a period.
func (r *ReportRepo) GetSalesSummary(ctx context.Context, filter reports.SalesSummaryFilter) (*reports.SalesSummary, error) {
	summary := &reports.SalesSummary{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}

	sql := `
		SELECT COUNT(*) AS sale_count,
		       COALESCE(SUM(subtotal + item_discount_total), 0) AS gross_sales,
		       COALESCE(SUM(item_discount_total + bill_discount_applied), 0) AS total_discount,
		       COALESCE(SUM(tax), 0) AS total_tax,
		       COALESCE(SUM(total), 0) AS net_sales,
		       COALESCE(SUM(amount_collected), 0) AS collected,
		       COALESCE(SUM(CASE WHEN balance_amount > 0 THEN balance_amount ELSE 0 END), 0) AS outstanding
		FROM doc_sales
		WHERE created_at >= $1 AND created_at < $2
	`
	args := []any{filter.FromDate, filter.ToDate}
	if filter.CustomerID != nil {
		sql += " AND customer_id = $3"
		args = append(args, *filter.CustomerID)
	}

	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(
		&summary.SaleCount, &summary.GrossSales, &summary.TotalDiscount,
		&summary.TotalTax, &summary.NetSales, &summary.Collected, &summary.Outstanding,
	)
	if err != nil {
		return nil, fmt.Errorf("query sales summary: %w", err)
	}
	return summary, nil
}

// GetPaymentBreakdown splits collected amounts by payment method.
func (r *ReportRepo) GetPaymentBreakdown(ctx context.Context, filter reports.SalesSummaryFilter) (*reports.PaymentBreakdown, error) {
	breakdown := &reports.PaymentBreakdown{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}

	sql := `
		SELECT p.method AS method,
		       COUNT(*) AS payment_count,
		       COALESCE(SUM(p.amount), 0) AS amount
		FROM doc_sale_payments p
		JOIN doc_sales s ON s.id = p.sale_id
		WHERE s.created_at >= $1 AND s.created_at < $2
	`
	args := []any{filter.FromDate, filter.ToDate}
	if filter.CustomerID != nil {
		sql += " AND s.customer_id = $3"
		args = append(args, *filter.CustomerID)
	}
	sql += " GROUP BY p.method ORDER BY amount DESC"

	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &breakdown.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("query payment breakdown: %w", err)
	}

	for _, item := range breakdown.Items {
		breakdown.Total += item.Amount
	}
	return breakdown, nil
}

// GetTopProducts ranks products by revenue over a period.
func (r *ReportRepo) GetTopProducts(ctx context.Context, filter reports.TopProductsFilter) ([]reports.TopProductItem, error) {
	var items []reports.TopProductItem
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, `
		SELECT i.product_id AS product_id,
		       COALESCE(MAX(pr.name), '') AS product_name,
		       COALESCE(SUM(i.quantity), 0) AS quantity_sold,
		       COALESCE(SUM(i.subtotal), 0) AS revenue
		FROM doc_sale_items i
		JOIN doc_sales s ON s.id = i.sale_id
		LEFT JOIN cat_products pr ON pr.id = i.product_id
		WHERE s.created_at >= $1 AND s.created_at < $2
		GROUP BY i.product_id
		ORDER BY revenue DESC
		LIMIT $3
	`, filter.FromDate, filter.ToDate, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	return items, nil
}

// GetDebtors lists customers with outstanding debt, largest first.
func (r *ReportRepo) GetDebtors(ctx context.Context, limit, offset int) ([]reports.DebtorItem, error) {
	var items []reports.DebtorItem
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, `
		SELECT id AS customer_id, name AS customer_name, phone,
		       total_debt, total_advance
		FROM cat_customers
		WHERE total_debt > 0
		ORDER BY total_debt DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query debtors: %w", err)
	}
	return items, nil
}
