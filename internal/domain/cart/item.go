package cart

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/pricing"
)

// Item data field names used during checkout
const (
	FieldGiftCertificateCode        = "giftCertificateCode"
	FieldGiftCertificateSenderEmail = "giftCertificateSenderEmail"
	FieldGiftCertificateRecipient   = "giftCertificateRecipientEmail"
)

// ShoppingItem is a cart line. A bundle line owns its constituents in BundleItems;
// constituents may be bundles themselves. A constituent's quantity counts all
// units ordered through its root, not the units inside one bundle.
type ShoppingItem struct {
	GUID            string            `json:"guid" validate:"required"`
	Sku             *ProductSku       `json:"sku" validate:"required"`
	Quantity        int               `json:"quantity" validate:"gte=1"`
	UnitPrice       decimal.Decimal   `json:"unitPrice" validate:"gte=0"`
	LowestUnitPrice *decimal.Decimal  `json:"lowestUnitPrice,omitempty"`
	Discount        decimal.Decimal   `json:"discount" validate:"gte=0"`
	Tax             *decimal.Decimal  `json:"tax,omitempty"`
	Ordering        int               `json:"ordering"`
	Fields          map[string]string `json:"fields,omitempty"`
	BundleItems     []*ShoppingItem   `json:"bundleItems,omitempty" validate:"dive,required"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
}

// IsBundle reports whether the item has constituents
func (i *ShoppingItem) IsBundle() bool {
	return len(i.BundleItems) > 0
}

// Total returns unit price times quantity rounded to the currency scale
func (i *ShoppingItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(pricing.CurrencyScale)
}

// LinePricing returns the line total, discount and quantity of this item
func (i *ShoppingItem) LinePricing() pricing.ItemPricing {
	return pricing.NewItemPricing(i.Total(), i.Discount, i.Quantity)
}

// Leaves returns the non-bundle items below this item in depth-first order.
// A non-bundle item is its own single leaf.
func (i *ShoppingItem) Leaves() []*ShoppingItem {
	if !i.IsBundle() {
		return []*ShoppingItem{i}
	}
	var leaves []*ShoppingItem
	for _, child := range i.BundleItems {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}

// Field returns the item data value stored under key
func (i *ShoppingItem) Field(key string) string {
	return i.Fields[key]
}

// AppendErrorMessage appends a message key to the item's error message
func (i *ShoppingItem) AppendErrorMessage(message string) {
	i.ErrorMessage += message
}
