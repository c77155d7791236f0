// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

var productColumns = []string{
	"id", "version", "created_at", "updated_at",
	"name", "category", "free_size", "cost_price", "selling_price",
	"barcode", "sizes",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(productColumns...).From(productTable)
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productTable).
		Columns(productColumns...).
		Values(
			p.ID, p.Version, p.CreatedAt, p.UpdatedAt,
			p.Name, p.Category, p.FreeSize, p.CostPrice, p.SellingPrice,
			p.Barcode, p.Sizes,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "barcode", deref(p.Barcode))
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update saves an existing product with optimistic locking.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productTable).
		Set("version", p.Version+1).
		Set("updated_at", p.UpdatedAt).
		Set("name", p.Name).
		Set("category", p.Category).
		Set("free_size", p.FreeSize).
		Set("cost_price", p.CostPrice).
		Set("selling_price", p.SellingPrice).
		Set("barcode", p.Barcode).
		Set("sizes", p.Sizes).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "barcode", deref(p.Barcode))
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("product was modified by another request")
	}
	p.Version++
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": productID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetByIDs retrieves products by IDs. Missing IDs are simply absent
// from the result.
func (r *ProductRepo) GetByIDs(ctx context.Context, productIDs []id.ID) ([]*product.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	q := r.baseSelect().Where(squirrel.Eq{"id": productIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return items, nil
}

// GetByBarcode retrieves a product by barcode.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	q := r.baseSelect().Where(squirrel.Eq{"barcode": barcode}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, fmt.Errorf("get product by barcode: %w", err)
	}
	return &p, nil
}

// List retrieves products matching the filter, ordered by name.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	q := r.baseSelect().OrderBy("name ASC")

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
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

	var items []*product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return items, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
