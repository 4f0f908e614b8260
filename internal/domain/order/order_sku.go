package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/pricing"
)

// OrderSku is one order line. Root skus of a bundle own their constituents in Children.
type OrderSku struct {
	GUID              string
	ShoppingItemGUID  string
	SkuCode           string
	ProductCode       string
	ProductTypeName   string
	DisplayName       string
	DisplaySkuOptions string
	TaxCode           string
	Image             string
	DigitalAsset      bool
	Shippable         bool
	Ordering          int
	CreatedDate       time.Time

	Quantity          int
	UnitPrice         decimal.Decimal
	Discount          decimal.Decimal
	Tax               decimal.Decimal
	AllocatedQuantity int

	Fields   map[string]string
	Children []*OrderSku
}

// IsBundle reports whether the sku owns constituents
func (s *OrderSku) IsBundle() bool {
	return len(s.Children) > 0
}

// Total returns unit price times quantity at the currency scale
func (s *OrderSku) Total() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity))).Round(pricing.CurrencyScale)
}

// Leaves returns the non-bundle skus below s, depth first
func (s *OrderSku) Leaves() []*OrderSku {
	if !s.IsBundle() {
		return []*OrderSku{s}
	}
	var leaves []*OrderSku
	for _, c := range s.Children {
		leaves = append(leaves, c.Leaves()...)
	}
	return leaves
}

// IsAllocated reports whether inventory was allocated for the whole quantity.
// A bundle is allocated when every constituent is.
func (s *OrderSku) IsAllocated() bool {
	if s.IsBundle() {
		for _, c := range s.Children {
			if !c.IsAllocated() {
				return false
			}
		}
		return true
	}
	return s.AllocatedQuantity >= s.Quantity
}

// IsGiftCertificate reports whether the sku sells a gift certificate
func (s *OrderSku) IsGiftCertificate() bool {
	return s.ProductTypeName == cart.ProductTypeGiftCertificate
}

// Field returns the item data value stored under key
func (s *OrderSku) Field(key string) string {
	return s.Fields[key]
}

// SetField stores an item data value; an empty value removes the key
func (s *OrderSku) SetField(key, value string) {
	if value == "" {
		delete(s.Fields, key)
		return
	}
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}
	s.Fields[key] = value
}
