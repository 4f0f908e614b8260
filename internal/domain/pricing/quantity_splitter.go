package pricing

import "github.com/shopspring/decimal"

// QuantitySplitter turns a line total into unit prices that reproduce the total
// exactly. When the total is not a multiple of the quantity at the currency scale
// the line is split in two: the first entries carry one extra minimum unit.
//
// Example: 10.00 for 3 units becomes 3.34 x 1 and 3.33 x 2.
type QuantitySplitter struct {
	calculator *ApportioningCalculator
}

// NewQuantitySplitter creates a splitter; a nil calculator falls back to CurrencyScale
func NewQuantitySplitter(calculator *ApportioningCalculator) *QuantitySplitter {
	if calculator == nil {
		calculator = NewApportioningCalculator()
	}
	return &QuantitySplitter{calculator: calculator}
}

// Split takes an ItemPricing whose price is a line total and returns entries whose
// price is a unit price. Sub-quantities add up to the original quantity and
// unit price times sub-quantity adds up to the line total. The discount is spread
// over the entries proportionally to their line amounts.
// A non-positive quantity is returned unchanged.
func (s *QuantitySplitter) Split(pricing ItemPricing) []ItemPricing {
	qty := pricing.Quantity()
	if qty <= 0 {
		return []ItemPricing{pricing}
	}

	scale := s.calculator.Scale()
	unit := decimal.New(1, -scale)
	lineTotal := pricing.Price().Round(scale)
	quantity := decimal.NewFromInt(int64(qty))

	base := lineTotal.DivRound(quantity, IntermediateScale).RoundFloor(scale)
	remainder := lineTotal.Sub(base.Mul(quantity)).Div(unit).IntPart()

	if remainder == 0 {
		return []ItemPricing{NewItemPricing(base, pricing.Discount(), qty)}
	}

	upper := NewItemPricing(base.Add(unit), decimal.Zero, int(remainder))
	lower := NewItemPricing(base, decimal.Zero, qty-int(remainder))

	weights := NewOrderedMap[decimal.Decimal]()
	weights.Set("0", upper.Price().Mul(decimal.NewFromInt(int64(upper.Quantity()))))
	weights.Set("1", lower.Price().Mul(decimal.NewFromInt(int64(lower.Quantity()))))
	discounts := s.calculator.CalculateApportionedAmounts(pricing.Discount(), weights)

	upperDiscount, _ := discounts.Get("0")
	lowerDiscount, _ := discounts.Get("1")
	return []ItemPricing{
		upper.WithDiscount(upperDiscount),
		lower.WithDiscount(lowerDiscount),
	}
}
