package pricing

import "github.com/shopspring/decimal"

// BundleApportioningCalculator spreads a bundle's price and discount over its
// constituents, weighted by the constituents' own prices.
type BundleApportioningCalculator struct {
	calculator *ApportioningCalculator
}

// NewBundleApportioningCalculator creates a bundle calculator on top of calculator.
// A nil calculator falls back to one at CurrencyScale.
func NewBundleApportioningCalculator(calculator *ApportioningCalculator) *BundleApportioningCalculator {
	if calculator == nil {
		calculator = NewApportioningCalculator()
	}
	return &BundleApportioningCalculator{calculator: calculator}
}

// Apportion returns one ItemPricing per constituent, in constituent order, holding
// the apportioned price, the apportioned discount and the constituent's own quantity.
func (b *BundleApportioningCalculator) Apportion(
	pricingToApportion ItemPricing,
	constituents *OrderedMap[ItemPricing],
) *OrderedMap[ItemPricing] {
	result := NewOrderedMap[ItemPricing]()
	if constituents.Len() == 0 {
		return result
	}

	weights := NewOrderedMap[decimal.Decimal]()
	constituents.Each(func(key string, p ItemPricing) {
		weights.Set(key, p.Price())
	})

	prices := b.calculator.CalculateApportionedAmounts(pricingToApportion.Price(), weights)
	discounts := b.calculator.CalculateApportionedAmounts(pricingToApportion.Discount(), weights)

	constituents.Each(func(key string, p ItemPricing) {
		price, _ := prices.Get(key)
		discount, _ := discounts.Get(key)
		result.Set(key, NewItemPricing(price, discount, p.Quantity()))
	})
	return result
}
