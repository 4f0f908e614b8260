package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricingsOf(entries ...ItemPricing) *OrderedMap[ItemPricing] {
	m := NewOrderedMap[ItemPricing]()
	for i, p := range entries {
		m.Set(string(rune('X'+i)), p)
	}
	return m
}

func TestBundleApportioningCalculator_Apportion(t *testing.T) {
	bundle := NewBundleApportioningCalculator(nil)

	t.Run("price and discount follow constituent prices", func(t *testing.T) {
		constituents := pricingsOf(
			NewItemPricing(d("60"), decimal.Zero, 1),
			NewItemPricing(d("40"), decimal.Zero, 1),
		)
		got := bundle.Apportion(NewItemPricing(d("100.00"), d("10.00"), 1), constituents)

		x, ok := got.Get("X")
		require.True(t, ok)
		y, ok := got.Get("Y")
		require.True(t, ok)
		assert.True(t, x.Equal(NewItemPricing(d("60.00"), d("6.00"), 1)), x.String())
		assert.True(t, y.Equal(NewItemPricing(d("40.00"), d("4.00"), 1)), y.String())
		assert.True(t, x.Discount().Add(y.Discount()).Equal(d("10.00")))
	})

	t.Run("constituent quantity is kept", func(t *testing.T) {
		constituents := pricingsOf(
			NewItemPricing(d("30"), d("5"), 3),
			NewItemPricing(d("10"), decimal.Zero, 2),
		)
		got := bundle.Apportion(NewItemPricing(d("20.00"), d("1.00"), 1), constituents)

		x, _ := got.Get("X")
		y, _ := got.Get("Y")
		assert.Equal(t, 3, x.Quantity())
		assert.Equal(t, 2, y.Quantity())
		assert.True(t, x.Price().Equal(d("15.00")))
		assert.True(t, y.Price().Equal(d("5.00")))
		assert.True(t, x.Discount().Equal(d("0.75")))
		assert.True(t, y.Discount().Equal(d("0.25")))
	})

	t.Run("free constituent gets explicit zero share", func(t *testing.T) {
		constituents := pricingsOf(
			NewItemPricing(d("25"), decimal.Zero, 1),
			NewItemPricing(decimal.Zero, decimal.Zero, 1),
		)
		got := bundle.Apportion(NewItemPricing(d("19.99"), d("2.00"), 1), constituents)

		free, ok := got.Get("Y")
		require.True(t, ok)
		assert.True(t, free.Price().IsZero())
		assert.True(t, free.Discount().IsZero())
		paid, _ := got.Get("X")
		assert.True(t, paid.Price().Equal(d("19.99")))
	})

	t.Run("empty constituents", func(t *testing.T) {
		got := bundle.Apportion(NewItemPricing(d("10"), decimal.Zero, 1), NewOrderedMap[ItemPricing]())
		assert.Equal(t, 0, got.Len())
	})
}

func TestBundleApportioningCalculator_MultiplicityIndependence(t *testing.T) {
	bundle := NewBundleApportioningCalculator(nil)
	constituents := pricingsOf(
		NewItemPricing(d("12.99"), decimal.Zero, 1),
		NewItemPricing(d("7.49"), decimal.Zero, 1),
		NewItemPricing(d("3.10"), decimal.Zero, 1),
	)
	unitPrice := d("19.99")
	tolerance := d("0.02")

	for _, n := range []int64{1, 2, 3, 7} {
		qty := decimal.NewFromInt(n)
		single := bundle.Apportion(NewItemPricing(unitPrice, decimal.Zero, 1), constituents)
		direct := bundle.Apportion(NewItemPricing(unitPrice.Mul(qty), decimal.Zero, int(n)), constituents)

		single.Each(func(key string, p ItemPricing) {
			scaled := p.Price().Mul(qty)
			other, _ := direct.Get(key)
			diff := scaled.Sub(other.Price()).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance.Mul(qty.Add(decimal.NewFromInt(1)))),
				"n=%d key=%s single*n=%s direct=%s", n, key, scaled, other.Price())
		})
	}
}
