// Package pricing holds the price apportionment engine used during checkout:
// proportional distribution of bundle and promotion totals across line items
// with exact-sum rounding correction, plus quantity splitting.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyScale is the number of fractional digits of every apportioned amount
const CurrencyScale int32 = 2

// IntermediateScale is the precision used for divisions before rounding to CurrencyScale
const IntermediateScale int32 = 10

// ItemPricing is an immutable (price, discount, quantity) triple for one line item.
// Depending on where it travels, price is either a line total or a unit price;
// the producing function documents which.
type ItemPricing struct {
	price    decimal.Decimal
	discount decimal.Decimal
	quantity int
}

// NewItemPricing creates an ItemPricing
func NewItemPricing(price, discount decimal.Decimal, quantity int) ItemPricing {
	return ItemPricing{price: price, discount: discount, quantity: quantity}
}

// Price returns the price
func (p ItemPricing) Price() decimal.Decimal {
	return p.price
}

// Discount returns the discount
func (p ItemPricing) Discount() decimal.Decimal {
	return p.discount
}

// Quantity returns the quantity
func (p ItemPricing) Quantity() int {
	return p.quantity
}

// WithPrice returns a copy carrying a different price
func (p ItemPricing) WithPrice(price decimal.Decimal) ItemPricing {
	return ItemPricing{price: price, discount: p.discount, quantity: p.quantity}
}

// WithDiscount returns a copy carrying a different discount
func (p ItemPricing) WithDiscount(discount decimal.Decimal) ItemPricing {
	return ItemPricing{price: p.price, discount: discount, quantity: p.quantity}
}

// Equal compares by value. Decimals are compared numerically, so 1.0 equals 1.00.
func (p ItemPricing) Equal(other ItemPricing) bool {
	return p.quantity == other.quantity &&
		p.price.Equal(other.price) &&
		p.discount.Equal(other.discount)
}

func (p ItemPricing) String() string {
	return fmt.Sprintf("ItemPricing{price=%s, discount=%s, quantity=%d}", p.price, p.discount, p.quantity)
}
