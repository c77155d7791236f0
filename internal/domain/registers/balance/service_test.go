package balance

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// fakeRepo is an in-process Repository for ledger unit tests.
type fakeRepo struct {
	mu       sync.Mutex
	balances map[id.ID]Balance
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: make(map[id.ID]Balance)}
}

func (r *fakeRepo) Adjust(ctx context.Context, customerID id.ID, fn func(Balance) Balance) (Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := fn(r.balances[customerID])
	r.balances[customerID] = updated
	return updated, nil
}

func (r *fakeRepo) Get(ctx context.Context, customerID id.ID) (Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[customerID], nil
}

func TestApplyDelta_DebtAndAdvance(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newFakeRepo())
	c1 := id.New()

	// +30 debt
	b, err := ledger.ApplyDelta(ctx, c1, 3000)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(3000), b.TotalDebt)
	assert.Equal(t, types.MinorUnits(0), b.TotalAdvance)

	// -50: nets 30 against the debt, remainder 20 becomes advance
	b, err = ledger.ApplyDelta(ctx, c1, -5000)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), b.TotalDebt)
	assert.Equal(t, types.MinorUnits(2000), b.TotalAdvance)

	// +10: consumed entirely by the advance
	b, err = ledger.ApplyDelta(ctx, c1, 1000)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), b.TotalDebt)
	assert.Equal(t, types.MinorUnits(1000), b.TotalAdvance)

	// +25: drains the advance, remainder 15 becomes debt
	b, err = ledger.ApplyDelta(ctx, c1, 2500)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(1500), b.TotalDebt)
	assert.Equal(t, types.MinorUnits(0), b.TotalAdvance)
}

func TestApplyDelta_NeverBothPositive(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newFakeRepo())
	c1 := id.New()

	deltas := []types.MinorUnits{500, -300, 1200, -2500, 80, -80, 10000, -9999}
	for _, d := range deltas {
		b, err := ledger.ApplyDelta(ctx, c1, d)
		require.NoError(t, err)
		assert.False(t, b.TotalDebt.IsPositive() && b.TotalAdvance.IsPositive(),
			"debt %d and advance %d simultaneously positive after delta %d", b.TotalDebt, b.TotalAdvance, d)
		assert.False(t, b.TotalDebt.IsNegative() || b.TotalAdvance.IsNegative())
	}
}

func TestReverse_RestoresPriorBalance(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newFakeRepo())
	c1 := id.New()

	seedStates := []types.MinorUnits{0, 3000, -4500}
	for _, seed := range seedStates {
		repo := newFakeRepo()
		ledger = NewLedger(repo)
		if seed != 0 {
			_, err := ledger.ApplyDelta(ctx, c1, seed)
			require.NoError(t, err)
		}
		before, err := ledger.Get(ctx, c1)
		require.NoError(t, err)

		for _, delta := range []types.MinorUnits{2500, -2500, 9000, -9000} {
			_, err := ledger.ApplyDelta(ctx, c1, delta)
			require.NoError(t, err)
			after, err := ledger.Reverse(ctx, c1, delta)
			require.NoError(t, err)
			assert.Equal(t, before, after, "seed %d delta %d", seed, delta)
		}
	}
}

func TestApplyDelta_ZeroDeltaIsNoop(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newFakeRepo())
	c1 := id.New()

	b, err := ledger.ApplyDelta(ctx, c1, 0)
	require.NoError(t, err)
	assert.Equal(t, Balance{}, b)
}

func TestApplyDelta_RequiresCustomer(t *testing.T) {
	ledger := NewLedger(newFakeRepo())
	_, err := ledger.ApplyDelta(context.Background(), id.Nil(), 100)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
