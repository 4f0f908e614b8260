package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// ErrDiscountExceedsTotal is returned when a discount is larger than the amount it applies to
var ErrDiscountExceedsTotal = shared.NewDomainError("DISCOUNT_EXCEEDS_TOTAL", "Discount exceeds the discountable total")

// DiscountApportioner spreads a cart level discount over line totals
type DiscountApportioner struct {
	calculator *ApportioningCalculator
}

// NewDiscountApportioner creates a DiscountApportioner; a nil calculator falls back to CurrencyScale
func NewDiscountApportioner(calculator *ApportioningCalculator) *DiscountApportioner {
	if calculator == nil {
		calculator = NewApportioningCalculator()
	}
	return &DiscountApportioner{calculator: calculator}
}

// ApportionDiscountToItems distributes discount over items, keyed by item GUID and
// weighted by line total. The returned shares add up to discount.
func (a *DiscountApportioner) ApportionDiscountToItems(
	discount decimal.Decimal,
	lineTotals *OrderedMap[decimal.Decimal],
) (*OrderedMap[decimal.Decimal], error) {
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", fmt.Sprintf("Discount must not be negative: %s", discount))
	}
	total := Sum(lineTotals)
	if discount.GreaterThan(total) {
		return nil, fmt.Errorf("discount %s over total %s: %w", discount.StringFixed(CurrencyScale),
			total.StringFixed(CurrencyScale), ErrDiscountExceedsTotal)
	}
	return a.calculator.CalculateApportionedAmounts(discount, lineTotals), nil
}
