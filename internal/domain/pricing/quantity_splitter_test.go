package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantitySplitter_Split(t *testing.T) {
	splitter := NewQuantitySplitter(nil)

	t.Run("evenly divisible line stays one entry", func(t *testing.T) {
		got := splitter.Split(NewItemPricing(d("9.00"), d("1.00"), 3))
		require.Len(t, got, 1)
		assert.True(t, got[0].Equal(NewItemPricing(d("3.00"), d("1.00"), 3)), got[0].String())
	})

	t.Run("uneven line is split in two", func(t *testing.T) {
		got := splitter.Split(NewItemPricing(d("10.00"), d("1.00"), 3))
		require.Len(t, got, 2)
		assert.True(t, got[0].Equal(NewItemPricing(d("3.34"), d("0.33"), 1)), got[0].String())
		assert.True(t, got[1].Equal(NewItemPricing(d("3.33"), d("0.67"), 2)), got[1].String())
	})

	t.Run("single unit", func(t *testing.T) {
		got := splitter.Split(NewItemPricing(d("4.99"), decimal.Zero, 1))
		require.Len(t, got, 1)
		assert.True(t, got[0].Price().Equal(d("4.99")))
	})

	t.Run("non-positive quantity is returned unchanged", func(t *testing.T) {
		in := NewItemPricing(d("4.99"), d("1"), 0)
		got := splitter.Split(in)
		require.Len(t, got, 1)
		assert.True(t, got[0].Equal(in))
	})

	t.Run("negative line total", func(t *testing.T) {
		got := splitter.Split(NewItemPricing(d("-10.00"), decimal.Zero, 3))
		require.Len(t, got, 2)
		total := decimal.Zero
		for _, p := range got {
			total = total.Add(p.Price().Mul(decimal.NewFromInt(int64(p.Quantity()))))
		}
		assert.True(t, total.Equal(d("-10.00")), total.String())
	})
}

func TestQuantitySplitter_TotalPreservation(t *testing.T) {
	splitter := NewQuantitySplitter(nil)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		lineTotal := decimal.New(rng.Int63n(1000000), -2)
		discount := decimal.New(rng.Int63n(lineTotal.Mul(decimal.NewFromInt(100)).IntPart()+1), -2)
		qty := 1 + rng.Intn(25)

		got := splitter.Split(NewItemPricing(lineTotal, discount, qty))

		sumQty := 0
		sumPrice := decimal.Zero
		sumDiscount := decimal.Zero
		for _, p := range got {
			require.Positive(t, p.Quantity())
			sumQty += p.Quantity()
			sumPrice = sumPrice.Add(p.Price().Mul(decimal.NewFromInt(int64(p.Quantity()))))
			sumDiscount = sumDiscount.Add(p.Discount())
		}
		assert.Equal(t, qty, sumQty, "case %d", i)
		assert.True(t, sumPrice.Equal(lineTotal), "case %d: %s != %s", i, sumPrice, lineTotal)
		assert.True(t, sumDiscount.Equal(discount), "case %d: %s != %s", i, sumDiscount, discount)
	}
}
