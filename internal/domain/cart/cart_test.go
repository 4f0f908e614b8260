package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/domain/shared"
)

func sku(code string, shippable bool) *ProductSku {
	return &ProductSku{
		SkuCode:   code,
		Shippable: shippable,
		Product:   &Product{Code: "P-" + code, Name: code},
	}
}

func item(guid, code string, price string, qty int) *ShoppingItem {
	return &ShoppingItem{
		GUID:      guid,
		Sku:       sku(code, true),
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func validCart() *ShoppingCart {
	return &ShoppingCart{
		GUID:      "cart-1",
		StoreCode: "SNAPITUP",
		Currency:  "CAD",
		Locale:    language.MustParse("en-CA"),
		Customer:  &Customer{GUID: "cust-1", Email: "ada@example.com"},
		Items:     []*ShoppingItem{item("i1", "SKU-1", "10.00", 2)},
	}
}

func TestShoppingItem_Pricing(t *testing.T) {
	it := item("i1", "SKU-1", "3.335", 3)
	it.Discount = decimal.RequireFromString("1.00")

	lp := it.LinePricing()
	assert.True(t, lp.Price().Equal(decimal.RequireFromString("10.01")), lp.String())
	assert.True(t, lp.Discount().Equal(decimal.RequireFromString("1")))
	assert.Equal(t, 3, lp.Quantity())
}

func TestShoppingItem_Leaves(t *testing.T) {
	inner := &ShoppingItem{GUID: "inner", Sku: sku("B2", false), Quantity: 1,
		BundleItems: []*ShoppingItem{item("c", "C", "1", 1), item("d", "D", "1", 1)}}
	root := &ShoppingItem{GUID: "root", Sku: sku("B1", false), Quantity: 1,
		BundleItems: []*ShoppingItem{item("a", "A", "1", 1), inner}}

	var guids []string
	for _, leaf := range root.Leaves() {
		guids = append(guids, leaf.GUID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, guids)
	assert.True(t, root.IsBundle())
	assert.False(t, root.BundleItems[0].IsBundle())
}

func TestShoppingCart_Queries(t *testing.T) {
	c := validCart()
	c.Items = append(c.Items, &ShoppingItem{GUID: "i2", Sku: &ProductSku{SkuCode: "E", DigitalAsset: true,
		Product: &Product{Code: "E"}}, Quantity: 1, UnitPrice: decimal.NewFromInt(5)})

	assert.Equal(t, 3, c.NumItems())
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(25)))
	assert.True(t, c.RequiresShipping())
	assert.Len(t, c.LeafItems(), 2)

	c.Items = c.Items[1:]
	assert.False(t, c.RequiresShipping())
}

func TestShoppingCart_SelectShippingLevel(t *testing.T) {
	c := validCart()
	c.ShippingLevels = []*ShippingServiceLevel{{GUID: "ground"}, {GUID: "express"}}

	assert.True(t, c.SelectShippingLevel("express"))
	assert.Equal(t, "express", c.SelectedShippingLevel.GUID)
	assert.False(t, c.SelectShippingLevel("teleport"))

	c.ClearSelectedShippingLevel()
	assert.Nil(t, c.SelectedShippingLevel)
}

func TestShoppingCart_Validate(t *testing.T) {
	t.Run("valid cart", func(t *testing.T) {
		assert.NoError(t, validCart().Validate())
	})

	t.Run("nil cart", func(t *testing.T) {
		var c *ShoppingCart
		err := c.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidCart)
	})

	tests := []struct {
		name   string
		mutate func(c *ShoppingCart)
		want   string
	}{
		{"missing guid", func(c *ShoppingCart) { c.GUID = "" }, "guid: is required"},
		{"bad currency", func(c *ShoppingCart) { c.Currency = "XXQ" }, "currency: invalid ISO 4217"},
		{"missing customer", func(c *ShoppingCart) { c.Customer = nil }, "customer: is required"},
		{"bad email", func(c *ShoppingCart) { c.Customer.Email = "nope" }, "customer.email: invalid email"},
		{"bad ip", func(c *ShoppingCart) { c.IPAddress = "999.1.1.1" }, "ipAddress: invalid IP"},
		{"negative discount", func(c *ShoppingCart) { c.SubtotalDiscount = decimal.NewFromInt(-1) }, "subtotalDiscount: must be greater than or equal to 0"},
		{"zero quantity", func(c *ShoppingCart) { c.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"missing sku", func(c *ShoppingCart) { c.Items[0].Sku = nil }, "items[0].sku: is required"},
		{"nil item", func(c *ShoppingCart) { c.Items = append(c.Items, nil) }, "items[1]: is required"},
		{"nested bundle item", func(c *ShoppingCart) {
			c.Items[0].BundleItems = []*ShoppingItem{{GUID: "", Sku: sku("X", true), Quantity: 1}}
		}, "items[0].bundleItems[0].guid: is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCart()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrInvalidCart)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLocalizedNames(t *testing.T) {
	names := LocalizedNames{"en": "Widget", "fr": "Bidule", "not a tag!": "x"}

	assert.Equal(t, "Widget", names.Resolve(language.MustParse("en-CA"), "fallback"))
	assert.Equal(t, "Bidule", names.Resolve(language.MustParse("fr-CA"), "fallback"))
	assert.Equal(t, "fallback", names.Resolve(language.Japanese, "fallback"))
	assert.Equal(t, "fallback", LocalizedNames(nil).Resolve(language.English, "fallback"))

	p := &Product{Name: "Gadget", DisplayNames: names}
	assert.Equal(t, "Bidule", p.DisplayName(language.French))
}

func TestProductSku(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	s := sku("A", true)
	assert.True(t, s.IsWithinDateRange(now))

	s.StartDate = &after
	assert.False(t, s.IsWithinDateRange(now))

	s.StartDate = &before
	s.EndDate = &now
	assert.False(t, s.IsWithinDateRange(now))

	s.EndDate = &after
	assert.True(t, s.IsWithinDateRange(now))

	assert.False(t, s.IsGiftCertificate())
	s.Product.TypeName = ProductTypeGiftCertificate
	assert.True(t, s.IsGiftCertificate())
}
