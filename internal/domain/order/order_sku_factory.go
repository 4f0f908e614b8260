package order

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/pricing"
)

// OrderSkuFactory turns cart items into order skus, spreading each bundle's
// price and discount over its leaf constituents.
//
// The walk, per root item:
//  1. take the root line pricing and divide the price by the root quantity
//  2. apportion that single-bundle pricing over the leaves, ordered by
//     descending line price then sku code
//  3. multiply the apportioned prices back by the root quantity and correct
//     the rounding residual against the root line total
//  4. split each leaf line total into unit prices
//  5. apportion the root discount again over the split entries
//
// Items without apportioned pricing (plain roots and nested bundle nodes)
// keep the prices of their cart item.
type OrderSkuFactory struct {
	calculator *pricing.ApportioningCalculator
	bundle     *pricing.BundleApportioningCalculator
	splitter   *pricing.QuantitySplitter
	now        func() time.Time
}

// OrderSkuFactoryOption is a functional option for configuring OrderSkuFactory
type OrderSkuFactoryOption func(*OrderSkuFactory)

// WithApportioningCalculator sets the calculator used by every apportioning step
func WithApportioningCalculator(c *pricing.ApportioningCalculator) OrderSkuFactoryOption {
	return func(f *OrderSkuFactory) {
		if c != nil {
			f.calculator = c
		}
	}
}

// WithSkuClock sets the clock used for sku creation dates
func WithSkuClock(now func() time.Time) OrderSkuFactoryOption {
	return func(f *OrderSkuFactory) {
		if now != nil {
			f.now = now
		}
	}
}

// NewOrderSkuFactory creates a new OrderSkuFactory
func NewOrderSkuFactory(opts ...OrderSkuFactoryOption) *OrderSkuFactory {
	f := &OrderSkuFactory{
		calculator: pricing.NewApportioningCalculator(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.bundle = pricing.NewBundleApportioningCalculator(f.calculator)
	f.splitter = pricing.NewQuantitySplitter(f.calculator)
	return f
}

// CreateOrderSkus builds one order sku tree per root item, in root order
func (f *OrderSkuFactory) CreateOrderSkus(roots []*cart.ShoppingItem, locale language.Tag) []*OrderSku {
	rootPricing := extractRootPricing(roots)
	apportioned := f.bundleApportionedPrices(roots, rootPricing)
	split := f.splitByQuantity(apportioned)
	f.applyApportionedDiscount(split, rootPricing)

	leafPricing := make(map[string][]pricing.ItemPricing)
	for _, leaves := range split {
		leaves.Each(func(guid string, entries []pricing.ItemPricing) {
			leafPricing[guid] = entries
		})
	}

	return f.createOrderSkus(roots, leafPricing, locale)
}

func extractRootPricing(roots []*cart.ShoppingItem) *pricing.OrderedMap[pricing.ItemPricing] {
	out := pricing.NewOrderedMap[pricing.ItemPricing]()
	for _, root := range roots {
		out.Set(root.GUID, root.LinePricing())
	}
	return out
}

// sortedConstituents returns the leaves of a bundle root, most expensive line
// first, ties by sku code. Plain roots have no constituents.
func sortedConstituents(root *cart.ShoppingItem) []*cart.ShoppingItem {
	if !root.IsBundle() {
		return nil
	}
	leaves := root.Leaves()
	sort.SliceStable(leaves, func(i, j int) bool {
		pi := leaves[i].LinePricing().Price()
		pj := leaves[j].LinePricing().Price()
		if c := pi.Cmp(pj); c != 0 {
			return c > 0
		}
		return leaves[i].Sku.SkuCode < leaves[j].Sku.SkuCode
	})
	return leaves
}

func (f *OrderSkuFactory) bundleApportionedPrices(
	roots []*cart.ShoppingItem,
	rootPricing *pricing.OrderedMap[pricing.ItemPricing],
) map[string]*pricing.OrderedMap[pricing.ItemPricing] {
	result := make(map[string]*pricing.OrderedMap[pricing.ItemPricing], len(roots))

	for _, root := range roots {
		rp, _ := rootPricing.Get(root.GUID)

		constituents := pricing.NewOrderedMap[pricing.ItemPricing]()
		for _, leaf := range sortedConstituents(root) {
			constituents.Set(leaf.GUID, leaf.LinePricing())
		}

		// apportion one bundle, then scale back up by the root quantity
		single := rp
		qty := decimal.NewFromInt(int64(rp.Quantity()))
		if rp.Quantity() > 0 {
			single = rp.WithPrice(rp.Price().DivRound(qty, pricing.IntermediateScale))
		}
		apportioned := f.bundle.Apportion(single, constituents)
		if rp.Quantity() > 1 {
			apportioned = f.scaleToRootQuantity(apportioned, constituents, rp.Price(), qty)
		}

		result[root.GUID] = apportioned
	}
	return result
}

// scaleToRootQuantity multiplies single-bundle prices by qty and hands the
// rounding residual to the heaviest constituents so prices add up to rootTotal.
func (f *OrderSkuFactory) scaleToRootQuantity(
	apportioned, constituents *pricing.OrderedMap[pricing.ItemPricing],
	rootTotal, qty decimal.Decimal,
) *pricing.OrderedMap[pricing.ItemPricing] {
	prices := pricing.NewOrderedMap[decimal.Decimal]()
	var order []string
	apportioned.Each(func(guid string, p pricing.ItemPricing) {
		prices.Set(guid, p.Price().Mul(qty))
		if c, ok := constituents.Get(guid); ok && c.Price().IsPositive() {
			order = append(order, guid)
		}
	})
	if len(order) > 0 {
		f.calculator.CorrectResidual(rootTotal, prices, order)
	}

	scaled := pricing.NewOrderedMap[pricing.ItemPricing]()
	apportioned.Each(func(guid string, p pricing.ItemPricing) {
		price, _ := prices.Get(guid)
		scaled.Set(guid, p.WithPrice(price))
	})
	return scaled
}

func (f *OrderSkuFactory) splitByQuantity(
	apportioned map[string]*pricing.OrderedMap[pricing.ItemPricing],
) map[string]*pricing.OrderedMap[[]pricing.ItemPricing] {
	result := make(map[string]*pricing.OrderedMap[[]pricing.ItemPricing], len(apportioned))
	for rootGUID, leaves := range apportioned {
		split := pricing.NewOrderedMap[[]pricing.ItemPricing]()
		leaves.Each(func(guid string, p pricing.ItemPricing) {
			split.Set(guid, f.splitter.Split(p))
		})
		result[rootGUID] = split
	}
	return result
}

type splitRef struct {
	guid  string
	index int
}

// applyApportionedDiscount spreads each root discount over the split entries of
// its leaves, largest entry amount first.
func (f *OrderSkuFactory) applyApportionedDiscount(
	split map[string]*pricing.OrderedMap[[]pricing.ItemPricing],
	rootPricing *pricing.OrderedMap[pricing.ItemPricing],
) {
	for rootGUID, leaves := range split {
		if leaves.Len() == 0 {
			continue
		}
		rp, _ := rootPricing.Get(rootGUID)

		type entry struct {
			key    string
			amount decimal.Decimal
		}
		var entries []entry
		refs := make(map[string]splitRef)
		leaves.Each(func(guid string, list []pricing.ItemPricing) {
			for i, p := range list {
				key := guid + "#" + strconv.Itoa(i)
				refs[key] = splitRef{guid: guid, index: i}
				entries = append(entries, entry{
					key:    key,
					amount: p.Price().Mul(decimal.NewFromInt(int64(p.Quantity()))),
				})
			}
		})
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].amount.GreaterThan(entries[j].amount)
		})

		weights := pricing.NewOrderedMap[decimal.Decimal]()
		for _, e := range entries {
			weights.Set(e.key, e.amount)
		}
		discounts := f.calculator.CalculateApportionedAmounts(rp.Discount(), weights)

		discounts.Each(func(key string, discount decimal.Decimal) {
			ref := refs[key]
			list, _ := leaves.Get(ref.guid)
			list[ref.index] = list[ref.index].WithDiscount(discount)
		})
	}
}

func (f *OrderSkuFactory) createOrderSkus(
	items []*cart.ShoppingItem,
	leafPricing map[string][]pricing.ItemPricing,
	locale language.Tag,
) []*OrderSku {
	skus := make([]*OrderSku, 0, len(items))
	for _, item := range items {
		entries, ok := leafPricing[item.GUID]
		if ok {
			for _, p := range entries {
				skus = append(skus, f.createOrderSku(item, &p, locale))
			}
			continue
		}

		parent := f.createOrderSku(item, nil, locale)
		if item.IsBundle() {
			parent.Children = f.createOrderSkus(item.BundleItems, leafPricing, locale)
		}
		skus = append(skus, parent)
	}
	return skus
}

func (f *OrderSkuFactory) createOrderSku(item *cart.ShoppingItem, apportioned *pricing.ItemPricing, locale language.Tag) *OrderSku {
	sku := &OrderSku{GUID: uuid.NewString()}
	f.copyFields(item, sku, locale)
	copyData(item, sku)
	copyPrices(item, sku)
	if apportioned != nil {
		sku.Quantity = apportioned.Quantity()
		sku.UnitPrice = apportioned.Price()
		sku.Discount = apportioned.Discount()
	}
	return sku
}

func (f *OrderSkuFactory) copyFields(item *cart.ShoppingItem, sku *OrderSku, locale language.Tag) {
	sku.CreatedDate = f.now()
	sku.ShoppingItemGUID = item.GUID
	sku.Ordering = item.Ordering

	ps := item.Sku
	if ps == nil {
		return
	}
	sku.SkuCode = ps.SkuCode
	sku.DigitalAsset = ps.DigitalAsset
	sku.Shippable = ps.Shippable
	sku.Image = ps.Image
	sku.DisplaySkuOptions = skuOptionsDisplayString(ps, locale)
	if ps.Product != nil {
		sku.ProductCode = ps.Product.Code
		sku.ProductTypeName = ps.Product.TypeName
		sku.TaxCode = ps.Product.TaxCode
		sku.DisplayName = ps.Product.DisplayName(locale)
	}
}

func copyData(item *cart.ShoppingItem, sku *OrderSku) {
	if len(item.Fields) == 0 {
		return
	}
	sku.Fields = make(map[string]string, len(item.Fields))
	for k, v := range item.Fields {
		sku.Fields[k] = v
	}
}

// copyPrices takes the cart item's own prices; nested bundles need not be
// priced, so zero values are left as they are.
func copyPrices(item *cart.ShoppingItem, sku *OrderSku) {
	sku.Quantity = item.Quantity
	sku.UnitPrice = item.UnitPrice
	if item.LowestUnitPrice != nil {
		sku.UnitPrice = *item.LowestUnitPrice
	}
	if item.Tax != nil {
		sku.Tax = *item.Tax
	}
	sku.Discount = item.Discount
}

func skuOptionsDisplayString(ps *cart.ProductSku, locale language.Tag) string {
	names := make([]string, 0, len(ps.OptionValues))
	for _, ov := range ps.OptionValues {
		names = append(names, ov.DisplayName(locale))
	}
	return strings.Join(names, ", ")
}
