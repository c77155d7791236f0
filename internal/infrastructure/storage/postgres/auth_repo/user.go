// Package auth_repo provides the PostgreSQL user repository.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/auth"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const userTable = "sys_users"

var userColumns = []string{
	"id", "username", "password_hash", "full_name", "role",
	"is_active", "last_login_at", "failed_login_attempts", "locked_until",
	"created_at", "updated_at", "version",
}

// UserRepo implements auth.Repository.
type UserRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	q := r.builder.Insert(userTable).
		Columns(userColumns...).
		Values(
			u.ID, u.Username, u.PasswordHash, u.FullName, u.Role,
			u.IsActive, u.LastLoginAt, u.FailedLoginAttempts, u.LockedUntil,
			u.CreatedAt, u.UpdatedAt, u.Version,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update saves user state, including login counters.
func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	q := r.builder.Update(userTable).
		Set("password_hash", u.PasswordHash).
		Set("full_name", u.FullName).
		Set("role", u.Role).
		Set("is_active", u.IsActive).
		Set("last_login_at", u.LastLoginAt).
		Set("failed_login_attempts", u.FailedLoginAttempts).
		Set("locked_until", u.LockedUntil).
		Set("updated_at", u.UpdatedAt).
		Set("version", u.Version).
		Where(squirrel.Eq{"id": u.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", u.ID)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID)
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username}, username)
}

func (r *UserRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*auth.User, error) {
	q := r.builder.Select(userColumns...).From(userTable).Where(where).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// List retrieves all users ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]*auth.User, error) {
	q := r.builder.Select(userColumns...).From(userTable).OrderBy("username ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var users []*auth.User
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &users, sql, args...); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}
