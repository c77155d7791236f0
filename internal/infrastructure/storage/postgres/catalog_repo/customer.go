package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

var customerColumns = []string{
	"id", "version", "created_at", "updated_at",
	"name", "phone", "total_debt", "total_advance",
}

// CustomerRepo implements customer.Repository. The debt and advance
// columns are owned by the balance register repo; this repo only reads
// them.
type CustomerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new customer.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	q := r.builder.Insert(customerTable).
		Columns(customerColumns...).
		Values(
			c.ID, c.Version, c.CreatedAt, c.UpdatedAt,
			c.Name, c.Phone, c.TotalDebt, c.TotalAdvance,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	q := r.builder.Select(customerColumns...).From(customerTable).
		Where(squirrel.Eq{"id": customerID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customer.Customer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", customerID)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// List retrieves customers matching the filter, ordered by name.
func (r *CustomerRepo) List(ctx context.Context, filter customer.ListFilter) ([]*customer.Customer, error) {
	q := r.builder.Select(customerColumns...).From(customerTable).
		OrderBy("name ASC")

	if filter.Search != "" {
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": "%" + filter.Search + "%"},
			squirrel.ILike{"phone": "%" + filter.Search + "%"},
		})
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

	var items []*customer.Customer
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	return items, nil
}
