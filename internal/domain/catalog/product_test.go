package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates active product with uppercase SKU", func(t *testing.T) {
		p, err := NewProduct("sku-001", "Wireless Mouse", decimal.NewFromFloat(29.99))
		require.NoError(t, err)

		assert.Equal(t, "SKU-001", p.SKU)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.Equal(t, "{}", p.Attributes)
		assert.Equal(t, "[]", p.ImageURLs)
	})

	t.Run("rejects empty SKU", func(t *testing.T) {
		_, err := NewProduct("", "Wireless Mouse", decimal.NewFromInt(10))
		assert.Error(t, err)
	})

	t.Run("rejects SKU with invalid characters", func(t *testing.T) {
		_, err := NewProduct("sku 001", "Wireless Mouse", decimal.NewFromInt(10))
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct("SKU-001", "Wireless Mouse", decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}

func TestProduct_StatusTransitions(t *testing.T) {
	newProduct := func(t *testing.T) *Product {
		p, err := NewProduct("SKU-001", "Wireless Mouse", decimal.NewFromInt(30))
		require.NoError(t, err)
		return p
	}

	t.Run("deactivate and reactivate", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.Deactivate())
		assert.Equal(t, ProductStatusInactive, p.Status)
		require.NoError(t, p.Activate())
		assert.True(t, p.IsActive())
	})

	t.Run("archived product cannot be activated", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.Archive())
		assert.Error(t, p.Activate())
		assert.Error(t, p.Deactivate())
	})

	t.Run("double archive fails", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.Archive())
		assert.Error(t, p.Archive())
	})
}

func TestProduct_Stock(t *testing.T) {
	p, err := NewProduct("SKU-001", "Wireless Mouse", decimal.NewFromInt(30))
	require.NoError(t, err)

	require.NoError(t, p.AdjustStock(10))
	assert.Equal(t, 10, p.StockQuantity)

	require.NoError(t, p.AdjustStock(-4))
	assert.Equal(t, 6, p.StockQuantity)

	// Cannot go negative
	assert.Error(t, p.AdjustStock(-7))
	assert.Equal(t, 6, p.StockQuantity)
}

func TestProduct_LowStock(t *testing.T) {
	p, err := NewProduct("SKU-001", "Wireless Mouse", decimal.NewFromInt(30))
	require.NoError(t, err)

	// No threshold configured: never low
	require.NoError(t, p.AdjustStock(1))
	assert.False(t, p.IsLowStock())

	require.NoError(t, p.SetLowStockThreshold(5))
	assert.True(t, p.IsLowStock())

	require.NoError(t, p.AdjustStock(10))
	assert.False(t, p.IsLowStock())
}

func TestProduct_Pricing(t *testing.T) {
	p, err := NewProduct("SKU-001", "Wireless Mouse", decimal.NewFromInt(30))
	require.NoError(t, err)

	t.Run("compare-at must exceed price", func(t *testing.T) {
		assert.Error(t, p.SetCompareAtPrice(decimal.NewFromInt(25)))
		require.NoError(t, p.SetCompareAtPrice(decimal.NewFromInt(40)))
		// Zero clears the promotion
		require.NoError(t, p.SetCompareAtPrice(decimal.Zero))
	})

	t.Run("margin", func(t *testing.T) {
		require.NoError(t, p.SetCost(decimal.NewFromInt(20)))
		assert.True(t, p.Margin().Equal(decimal.NewFromInt(50)))

		require.NoError(t, p.SetCost(decimal.Zero))
		assert.True(t, p.Margin().IsZero())
	})
}
