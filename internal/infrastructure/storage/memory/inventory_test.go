package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
)

func TestInventoryRepo_DecrementIfAvailable(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepo(time.Second)
	pid := id.New()

	require.NoError(t, repo.SetLevel(ctx, pid, "M", 10))

	remaining, err := repo.DecrementIfAvailable(ctx, pid, "M", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), remaining)

	// Shortage leaves the level untouched.
	_, err = repo.DecrementIfAvailable(ctx, pid, "M", 7)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	lvl, err := repo.GetLevel(ctx, pid, "M")
	require.NoError(t, err)
	assert.Equal(t, int64(6), lvl.Quantity)

	// Unknown key is its own error.
	_, err = repo.DecrementIfAvailable(ctx, pid, "XL", 1)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownSize))
}

func TestInventoryRepo_IncrementRequiresKey(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepo(time.Second)
	pid := id.New()

	err := repo.Increment(ctx, pid, "M", 1)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownSize))

	require.NoError(t, repo.SetLevel(ctx, pid, "M", 2))
	require.NoError(t, repo.Increment(ctx, pid, "M", 3))

	lvl, err := repo.GetLevel(ctx, pid, "M")
	require.NoError(t, err)
	assert.Equal(t, int64(5), lvl.Quantity)
}

func TestInventoryRepo_GetLevelsByProduct(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepo(time.Second)
	pid, other := id.New(), id.New()

	require.NoError(t, repo.SetLevel(ctx, pid, "M", 1))
	require.NoError(t, repo.SetLevel(ctx, pid, "L", 2))
	require.NoError(t, repo.SetLevel(ctx, other, "M", 9))

	levels, err := repo.GetLevelsByProduct(ctx, pid)
	require.NoError(t, err)
	assert.Len(t, levels, 2)
	for _, lvl := range levels {
		assert.Equal(t, pid, lvl.ProductID)
	}
}

// Concurrent decrements over one key must never drive stock negative
// and must succeed exactly as many times as stock allows.
func TestInventoryRepo_ConcurrentDecrements(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepo(5 * time.Second)
	pid := id.New()

	const available = 20
	const attempts = 50
	require.NoError(t, repo.SetLevel(ctx, pid, "FREE", available))

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DecrementIfAvailable(ctx, pid, "FREE", 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.IsInsufficientStock(err))
		}
	}
	assert.Equal(t, available, succeeded)

	lvl, err := repo.GetLevel(ctx, pid, "FREE")
	require.NoError(t, err)
	assert.Equal(t, int64(0), lvl.Quantity)
}
