package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountApportioner_ApportionDiscountToItems(t *testing.T) {
	apportioner := NewDiscountApportioner(nil)

	t.Run("weights by line total", func(t *testing.T) {
		got, err := apportioner.ApportionDiscountToItems(d("5.00"), weightsOf("physical", "75.00", "electronic", "25.00"))
		require.NoError(t, err)
		assertShares(t, got, "physical", "3.75", "electronic", "1.25")
	})

	t.Run("discount equal to total", func(t *testing.T) {
		got, err := apportioner.ApportionDiscountToItems(d("30.00"), weightsOf("a", "10.00", "b", "20.00"))
		require.NoError(t, err)
		assertShares(t, got, "a", "10.00", "b", "20.00")
	})

	t.Run("rejects discount larger than total", func(t *testing.T) {
		_, err := apportioner.ApportionDiscountToItems(d("30.01"), weightsOf("a", "10.00", "b", "20.00"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDiscountExceedsTotal)
	})

	t.Run("rejects negative discount", func(t *testing.T) {
		_, err := apportioner.ApportionDiscountToItems(d("-1"), weightsOf("a", "10.00"))
		assert.Error(t, err)
	})

	t.Run("zero discount", func(t *testing.T) {
		got, err := apportioner.ApportionDiscountToItems(decimal.Zero, weightsOf("a", "10.00"))
		require.NoError(t, err)
		assertShares(t, got, "a", "0")
	})
}

func TestItemPricing(t *testing.T) {
	p := NewItemPricing(d("1.0"), d("0.50"), 2)

	assert.True(t, p.Equal(NewItemPricing(d("1.00"), d("0.5"), 2)))
	assert.False(t, p.Equal(NewItemPricing(d("1.00"), d("0.5"), 3)))
	assert.True(t, p.WithDiscount(d("0.1")).Discount().Equal(d("0.1")))
	assert.True(t, p.WithPrice(d("7")).Price().Equal(d("7")))
	assert.True(t, p.Price().Equal(d("1")), "original is untouched")
}

func TestOrderedMapSetGetHas(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("c"))
	assert.Equal(t, 2, m.Len())
}
