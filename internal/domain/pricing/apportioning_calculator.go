package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ApportioningCalculator distributes a total across weighted keys so that the
// shares add up to the total exactly at the currency scale.
//
// Shares are computed as total*weight/sum(weights) at IntermediateScale and
// rounded half-up. Whatever the rounding leaves over is handed out one minimum
// currency unit at a time, largest weight first, ties in input order.
type ApportioningCalculator struct {
	scale int32
}

// ApportioningCalculatorOption configures an ApportioningCalculator
type ApportioningCalculatorOption func(*ApportioningCalculator)

// WithScale overrides the number of fractional digits of the produced shares
func WithScale(scale int32) ApportioningCalculatorOption {
	return func(c *ApportioningCalculator) {
		if scale >= 0 && scale < IntermediateScale {
			c.scale = scale
		}
	}
}

// NewApportioningCalculator creates a calculator working at CurrencyScale by default
func NewApportioningCalculator(opts ...ApportioningCalculatorOption) *ApportioningCalculator {
	c := &ApportioningCalculator{scale: CurrencyScale}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scale returns the number of fractional digits of the produced shares
func (c *ApportioningCalculator) Scale() int32 {
	return c.scale
}

// CalculateApportionedAmounts returns one share per key of weights, in the same
// key order. A zero total, an empty map or weights that add up to nothing yield
// zero shares. Non-positive weights count as zero and always get a zero share.
func (c *ApportioningCalculator) CalculateApportionedAmounts(
	total decimal.Decimal,
	weights *OrderedMap[decimal.Decimal],
) *OrderedMap[decimal.Decimal] {
	result := NewOrderedMap[decimal.Decimal]()
	zero := decimal.Zero.Round(c.scale)
	if weights.Len() == 0 {
		return result
	}

	target := total.Round(c.scale)
	weightSum := decimal.Zero
	weights.Each(func(_ string, w decimal.Decimal) {
		weightSum = weightSum.Add(effectiveWeight(w))
	})

	if target.IsZero() || !weightSum.IsPositive() {
		weights.Each(func(key string, _ decimal.Decimal) {
			result.Set(key, zero)
		})
		return result
	}

	weights.Each(func(key string, w decimal.Decimal) {
		w = effectiveWeight(w)
		if w.IsZero() {
			result.Set(key, zero)
			return
		}
		share := target.Mul(w).DivRound(weightSum, IntermediateScale).Round(c.scale)
		result.Set(key, share)
	})

	c.correctResidual(target, result, orderByWeight(weights))
	return result
}

// CorrectResidual adjusts shares in place so that they add up to total rounded to
// the calculator scale. The residual goes to keys in the given order.
func (c *ApportioningCalculator) CorrectResidual(total decimal.Decimal, shares *OrderedMap[decimal.Decimal], order []string) {
	c.correctResidual(total.Round(c.scale), shares, order)
}

func (c *ApportioningCalculator) correctResidual(target decimal.Decimal, shares *OrderedMap[decimal.Decimal], order []string) {
	unit := decimal.New(1, -c.scale)
	residual := target.Sub(Sum(shares))

	for !residual.IsZero() {
		step := unit
		if residual.IsNegative() {
			step = unit.Neg()
		}

		adjusted := false
		for _, key := range order {
			if residual.IsZero() {
				break
			}
			share, ok := shares.Get(key)
			if !ok {
				continue
			}
			next := share.Add(step)
			// a share never crosses zero against the sign of the total
			if next.Sign() != 0 && next.Sign() != target.Sign() {
				continue
			}
			shares.Set(key, next)
			residual = residual.Sub(step)
			adjusted = true
		}
		if !adjusted {
			return
		}
	}
}

// orderByWeight lists the keys with a positive weight, heaviest first, ties in
// insertion order.
func orderByWeight(weights *OrderedMap[decimal.Decimal]) []string {
	keys := make([]string, 0, weights.Len())
	weights.Each(func(key string, w decimal.Decimal) {
		if effectiveWeight(w).IsPositive() {
			keys = append(keys, key)
		}
	})
	sort.SliceStable(keys, func(i, j int) bool {
		wi, _ := weights.Get(keys[i])
		wj, _ := weights.Get(keys[j])
		return wi.GreaterThan(wj)
	})
	return keys
}

func effectiveWeight(w decimal.Decimal) decimal.Decimal {
	if w.IsPositive() {
		return w
	}
	return decimal.Zero
}
