package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/types"
)

func TestResolveSizeKey_FreeSize(t *testing.T) {
	p := New("Scarf", "accessories", true)

	key, err := p.ResolveSizeKey("")
	require.NoError(t, err)
	assert.Equal(t, FreeSizeKey, key)

	// A free-size product ignores whatever size the till sends.
	key, err = p.ResolveSizeKey("XL")
	require.NoError(t, err)
	assert.Equal(t, FreeSizeKey, key)
}

func TestResolveSizeKey_Sized(t *testing.T) {
	p := New("T-Shirt", "apparel", false)
	p.Sizes = []string{"S", "M", "L"}

	key, err := p.ResolveSizeKey("M")
	require.NoError(t, err)
	assert.Equal(t, "M", key)

	_, err = p.ResolveSizeKey("XXL")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownSize))

	_, err = p.ResolveSizeKey("")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownSize))
}

func TestProductValidate(t *testing.T) {
	ctx := context.Background()

	p := New("T-Shirt", "apparel", false)
	p.Sizes = []string{"S", "M"}
	p.SellingPrice = types.MinorUnits(5000)
	require.NoError(t, p.Validate(ctx))

	nameless := New("", "apparel", false)
	assert.Error(t, nameless.Validate(ctx))

	conflicted := New("Scarf", "accessories", true)
	conflicted.Sizes = []string{"S"}
	assert.Error(t, conflicted.Validate(ctx))
}
