// Package cart holds the shopping cart read model consumed by checkout.
package cart

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Customer is the shopper placing the order
type Customer struct {
	GUID        string `json:"guid" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Anonymous   bool   `json:"anonymous"`
}

// ShippingServiceLevel is a carrier service the cart can ship with
type ShippingServiceLevel struct {
	GUID         string         `json:"guid" validate:"required"`
	Code         string         `json:"code"`
	Carrier      string         `json:"carrier"`
	Name         string         `json:"name"`
	DisplayNames LocalizedNames `json:"displayNames,omitempty"`
}

// DisplayName returns the service level name for locale
func (l *ShippingServiceLevel) DisplayName(locale language.Tag) string {
	return l.DisplayNames.Resolve(locale, l.Name)
}

// ShoppingCart is the checkout input. Prices, taxes and discounts on it are
// already calculated by the time checkout runs.
type ShoppingCart struct {
	GUID       string               `json:"guid" validate:"required"`
	StoreCode  string               `json:"storeCode" validate:"required"`
	Currency   valueobject.Currency `json:"currency" validate:"required,iso4217"`
	Locale     language.Tag         `json:"locale"`
	Customer   *Customer            `json:"customer" validate:"required"`
	Items      []*ShoppingItem      `json:"items" validate:"dive,required"`
	IPAddress  string               `json:"ipAddress,omitempty" validate:"omitempty,ip"`
	CMUserGUID string               `json:"cmUserGuid,omitempty"`

	BillingAddress  *valueobject.Address `json:"billingAddress,omitempty"`
	ShippingAddress *valueobject.Address `json:"shippingAddress,omitempty"`

	SelectedShippingLevel *ShippingServiceLevel   `json:"selectedShippingLevel,omitempty"`
	ShippingLevels        []*ShippingServiceLevel `json:"shippingLevels,omitempty"`
	ShippingCost          decimal.Decimal         `json:"shippingCost" validate:"gte=0"`
	BeforeTaxShippingCost decimal.Decimal         `json:"beforeTaxShippingCost" validate:"gte=0"`

	AppliedRuleIDs   []int64         `json:"appliedRuleIds,omitempty"`
	SubtotalDiscount decimal.Decimal `json:"subtotalDiscount" validate:"gte=0"`
	InclusiveTax     bool            `json:"inclusiveTax"`

	ExchangeOrder        bool   `json:"exchangeOrder"`
	CompletedOrderNumber string `json:"completedOrderNumber,omitempty"`
}

// RootItems returns the top-level cart items
func (c *ShoppingCart) RootItems() []*ShoppingItem {
	return c.Items
}

// LeafItems returns every non-bundle item of the cart, depth first
func (c *ShoppingCart) LeafItems() []*ShoppingItem {
	var leaves []*ShoppingItem
	for _, item := range c.Items {
		leaves = append(leaves, item.Leaves()...)
	}
	return leaves
}

// NumItems returns the total quantity of root items
func (c *ShoppingCart) NumItems() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// RequiresShipping reports whether any leaf item is shippable
func (c *ShoppingCart) RequiresShipping() bool {
	for _, leaf := range c.LeafItems() {
		if leaf.Sku != nil && leaf.Sku.Shippable {
			return true
		}
	}
	return false
}

// Subtotal returns the sum of root line totals
func (c *ShoppingCart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Total())
	}
	return total
}

// ClearSelectedShippingLevel drops the selected shipping service level
func (c *ShoppingCart) ClearSelectedShippingLevel() {
	c.SelectedShippingLevel = nil
}

// SelectShippingLevel selects the level with the given GUID from ShippingLevels
func (c *ShoppingCart) SelectShippingLevel(guid string) bool {
	for _, level := range c.ShippingLevels {
		if level.GUID == guid {
			c.SelectedShippingLevel = level
			return true
		}
	}
	return false
}
