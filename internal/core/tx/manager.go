// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces instead of a concrete
// database implementation.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// None is a no-op Manager for stores whose operations are individually
// atomic (the in-memory ledgers). Settlement compensation logic does not
// depend on a surrounding transaction, so fn runs directly.
type None struct{}

// RunInTransaction runs fn without any transaction.
func (None) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ Manager = None{}
