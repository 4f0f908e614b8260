package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderedMap(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		m := NewOrderedMap[int]()
		m.Set("c", 3)
		m.Set("a", 1)
		m.Set("b", 2)

		assert.Equal(t, []string{"c", "a", "b"}, m.Keys())
		assert.Equal(t, 3, m.Len())
	})

	t.Run("replacing a value keeps its position", func(t *testing.T) {
		m := NewOrderedMap[int]()
		m.Set("x", 1)
		m.Set("y", 2)
		m.Set("x", 10)

		assert.Equal(t, []string{"x", "y"}, m.Keys())
		v, ok := m.Get("x")
		assert.True(t, ok)
		assert.Equal(t, 10, v)
		assert.False(t, m.Has("z"))
	})

	t.Run("nil map is empty", func(t *testing.T) {
		var m *OrderedMap[decimal.Decimal]
		assert.Zero(t, m.Len())
		assert.True(t, Sum(m).IsZero())
	})

	t.Run("sum adds every amount", func(t *testing.T) {
		m := NewOrderedMap[decimal.Decimal]()
		m.Set("a", decimal.RequireFromString("1.25"))
		m.Set("b", decimal.RequireFromString("2.75"))
		assert.True(t, Sum(m).Equal(decimal.NewFromInt(4)))
	})
}
