package pricing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func weightsOf(pairs ...any) *OrderedMap[decimal.Decimal] {
	m := NewOrderedMap[decimal.Decimal]()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), d(pairs[i+1].(string)))
	}
	return m
}

func assertShares(t *testing.T, got *OrderedMap[decimal.Decimal], want ...string) {
	t.Helper()
	require.Equal(t, len(want)/2, got.Len())
	for i := 0; i+1 < len(want); i += 2 {
		share, ok := got.Get(want[i])
		require.True(t, ok, "missing key %s", want[i])
		assert.True(t, share.Equal(d(want[i+1])), "key %s: got %s want %s", want[i], share, want[i+1])
	}
}

func TestApportioningCalculator_EqualWeights(t *testing.T) {
	calc := NewApportioningCalculator()

	t.Run("remainder goes to the first key on ties", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("10.00"), weightsOf("A", "1", "B", "1", "C", "1"))
		assertShares(t, got, "A", "3.34", "B", "3.33", "C", "3.33")
		assert.True(t, Sum(got).Equal(d("10.00")))
	})

	t.Run("keeps insertion order of keys", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("10.00"), weightsOf("C", "1", "A", "1", "B", "1"))
		assert.Equal(t, []string{"C", "A", "B"}, got.Keys())
		assertShares(t, got, "C", "3.34", "A", "3.33", "B", "3.33")
	})
}

func TestApportioningCalculator_ResidualOrder(t *testing.T) {
	calc := NewApportioningCalculator()

	t.Run("positive residual goes to the heaviest key", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("2.00"), weightsOf("A", "1", "B", "1", "C", "1", "D", "3"))
		assertShares(t, got, "A", "0.33", "B", "0.33", "C", "0.33", "D", "1.01")
	})

	t.Run("negative residual is taken from the heaviest key", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("1.00"), weightsOf("A", "1", "B", "1", "C", "1", "D", "3"))
		assertShares(t, got, "A", "0.17", "B", "0.17", "C", "0.17", "D", "0.49")
	})

	t.Run("negative residual never drives a share below zero", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("0.02"), weightsOf("A", "1", "B", "1", "C", "1", "D", "1"))
		assertShares(t, got, "A", "0.00", "B", "0.00", "C", "0.01", "D", "0.01")
	})
}

func TestApportioningCalculator_Degenerate(t *testing.T) {
	calc := NewApportioningCalculator()

	t.Run("zero total yields zero shares for every key", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(decimal.Zero, weightsOf("A", "5", "B", "7"))
		assertShares(t, got, "A", "0", "B", "0")
	})

	t.Run("empty weights yield an empty map", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("10"), NewOrderedMap[decimal.Decimal]())
		assert.Equal(t, 0, got.Len())
	})

	t.Run("nil weights yield an empty map", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("10"), nil)
		assert.Equal(t, 0, got.Len())
	})

	t.Run("all zero weights yield zero shares", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("10"), weightsOf("A", "0", "B", "0"))
		assertShares(t, got, "A", "0", "B", "0")
	})

	t.Run("zero weight key gets nothing even with a residual", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("1.00"), weightsOf("A", "0", "B", "1", "C", "1", "D", "1"))
		assertShares(t, got, "A", "0", "B", "0.34", "C", "0.33", "D", "0.33")
	})

	t.Run("unset weight counts as zero", func(t *testing.T) {
		w := weightsOf("B", "1")
		w.Set("A", decimal.Decimal{})
		got := calc.CalculateApportionedAmounts(d("5.00"), w)
		assertShares(t, got, "B", "5.00", "A", "0")
	})

	t.Run("negative weight counts as zero", func(t *testing.T) {
		got := calc.CalculateApportionedAmounts(d("5.00"), weightsOf("A", "-3", "B", "1"))
		assertShares(t, got, "A", "0", "B", "5.00")
	})
}

func TestApportioningCalculator_NegativeTotal(t *testing.T) {
	calc := NewApportioningCalculator()
	got := calc.CalculateApportionedAmounts(d("-10.00"), weightsOf("A", "1", "B", "1", "C", "1"))
	assert.True(t, Sum(got).Equal(d("-10.00")))
	got.Each(func(_ string, v decimal.Decimal) {
		assert.False(t, v.IsPositive())
	})
}

func TestApportioningCalculator_WithScale(t *testing.T) {
	calc := NewApportioningCalculator(WithScale(0))
	got := calc.CalculateApportionedAmounts(d("10"), weightsOf("A", "1", "B", "1", "C", "1"))
	assertShares(t, got, "A", "4", "B", "3", "C", "3")
}

func TestApportioningCalculator_Properties(t *testing.T) {
	calc := NewApportioningCalculator()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		total := decimal.New(rng.Int63n(100000), -2)
		weights := NewOrderedMap[decimal.Decimal]()
		n := 1 + rng.Intn(8)
		zeroKeys := map[string]bool{}
		for k := 0; k < n; k++ {
			key := fmt.Sprintf("k%d", k)
			w := decimal.New(rng.Int63n(5000), -2)
			if rng.Intn(5) == 0 {
				w = decimal.Zero
			}
			if w.IsZero() {
				zeroKeys[key] = true
			}
			weights.Set(key, w)
		}

		got := calc.CalculateApportionedAmounts(total, weights)
		require.Equal(t, weights.Keys(), got.Keys())

		allZero := len(zeroKeys) == n
		if !allZero {
			assert.True(t, Sum(got).Equal(total), "case %d: sum %s total %s", i, Sum(got), total)
		}
		got.Each(func(key string, v decimal.Decimal) {
			assert.False(t, v.IsNegative(), "case %d key %s negative share %s", i, key, v)
			if zeroKeys[key] {
				assert.True(t, v.IsZero(), "case %d zero-weight key %s got %s", i, key, v)
			}
		})
	}
}
