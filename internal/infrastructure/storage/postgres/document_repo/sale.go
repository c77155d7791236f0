// Package document_repo provides PostgreSQL implementations for
// document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/sale"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const (
	saleTable        = "doc_sales"
	saleItemTable    = "doc_sale_items"
	salePaymentTable = "doc_sale_payments"
)

var saleColumns = []string{
	"id", "version", "created_at", "updated_at",
	"number", "status",
	"customer_id", "customer_name", "customer_phone",
	"subtotal", "item_discount_total", "bill_discount_type", "bill_discount_applied",
	"tax", "total", "amount_collected", "balance_amount", "notes",
}

// SaleRepo implements sale.Repository. The aggregate is stored across
// three tables; Create runs inside the settlement transaction so the
// header, items and payments land together or not at all.
type SaleRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create stores the sale with its items and payments.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		q := r.builder.Insert(saleTable).
			Columns(saleColumns...).
			Values(
				s.ID, s.Version, s.CreatedAt, s.UpdatedAt,
				s.Number, s.Status,
				s.CustomerID, s.CustomerName, s.CustomerPhone,
				s.Subtotal, s.ItemDiscountTotal, s.BillDiscountType, s.BillDiscountApplied,
				s.Tax, s.Total, s.AmountCollected, s.BalanceAmount, s.Notes,
			)
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		if len(s.Items) > 0 {
			itemQ := r.builder.Insert(saleItemTable).Columns(
				"line_id", "line_no", "sale_id", "product_id", "size_key", "quantity",
				"unit_price", "discount_type", "discount_value", "discount", "subtotal",
			)
			for _, item := range s.Items {
				itemQ = itemQ.Values(
					item.LineID, item.LineNo, s.ID, item.ProductID, item.SizeKey, item.Quantity,
					item.UnitPrice, item.DiscountType, item.DiscountValue, item.Discount, item.Subtotal,
				)
			}
			sql, args, err := itemQ.ToSql()
			if err != nil {
				return fmt.Errorf("build items insert: %w", err)
			}
			if _, err := querier.Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("insert sale items: %w", err)
			}
		}

		if len(s.Payments) > 0 {
			payQ := r.builder.Insert(salePaymentTable).Columns(
				"payment_id", "sale_id", "method", "amount", "reference",
			)
			for _, p := range s.Payments {
				payQ = payQ.Values(p.PaymentID, s.ID, p.Method, p.Amount, p.Reference)
			}
			sql, args, err := payQ.ToSql()
			if err != nil {
				return fmt.Errorf("build payments insert: %w", err)
			}
			if _, err := querier.Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("insert sale payments: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a sale with its items and payments.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	querier := r.txManager.GetQuerier(ctx)

	q := r.builder.Select(saleColumns...).From(saleTable).
		Where(squirrel.Eq{"id": saleID}).Limit(1)
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	if err := r.loadChildren(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List retrieves sales matching the filter, newest first, without
// child rows.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) ([]*sale.Sale, error) {
	q := r.builder.Select(saleColumns...).From(saleTable).
		OrderBy("created_at DESC")

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sales []*sale.Sale
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &sales, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	return sales, nil
}

func (r *SaleRepo) loadChildren(ctx context.Context, s *sale.Sale) error {
	querier := r.txManager.GetQuerier(ctx)

	err := pgxscan.Select(ctx, querier, &s.Items, `
		SELECT line_id, line_no, sale_id, product_id, size_key, quantity,
		       unit_price, discount_type, discount_value, discount, subtotal
		FROM doc_sale_items
		WHERE sale_id = $1
		ORDER BY line_no
	`, s.ID)
	if err != nil {
		return fmt.Errorf("select sale items: %w", err)
	}

	err = pgxscan.Select(ctx, querier, &s.Payments, `
		SELECT payment_id, sale_id, method, amount, reference
		FROM doc_sale_payments
		WHERE sale_id = $1
		ORDER BY payment_id
	`, s.ID)
	if err != nil {
		return fmt.Errorf("select sale payments: %w", err)
	}
	return nil
}
