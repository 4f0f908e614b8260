package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

type fakeRepository struct {
	mu        sync.Mutex
	next      int
	created   []*Order
	saved     []*Order
	createErr error
}

func (r *fakeRepository) CreateEmptyOrder(_ context.Context, o *Order) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.next++
	o.OrderNumber = fmt.Sprintf("%05d", r.next)
	r.created = append(r.created, o)
	return o, nil
}

func (r *fakeRepository) Save(_ context.Context, o *Order) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, o)
	return o, nil
}

func (r *fakeRepository) FindByOrderNumber(_ context.Context, number string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.created {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeRules struct {
	rules map[int64]*Rule
	err   error
}

func (f *fakeRules) FindRule(_ context.Context, id int64) (*Rule, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.rules[id]; ok {
		return r, nil
	}
	return nil, shared.ErrNotFound
}

type fakeCartOrders struct {
	guids map[string]string
}

func (f *fakeCartOrders) FindCartOrderGUID(_ context.Context, cartGUID string) (string, error) {
	return f.guids[cartGUID], nil
}

type fakeCustomers struct {
	stored  map[string]*cart.Customer
	updated []*cart.Customer
}

func (f *fakeCustomers) FindByGUID(_ context.Context, guid string) (*cart.Customer, error) {
	if c, ok := f.stored[guid]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeCustomers) Update(_ context.Context, c *cart.Customer) (*cart.Customer, error) {
	f.updated = append(f.updated, c)
	return c, nil
}

type fakeAllocator struct {
	available map[string]int
}

func (f *fakeAllocator) Allocate(_ context.Context, sku *OrderSku) (int, error) {
	have := f.available[sku.SkuCode]
	if have >= sku.Quantity {
		f.available[sku.SkuCode] = have - sku.Quantity
		return sku.Quantity, nil
	}
	f.available[sku.SkuCode] = 0
	return have, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func physicalSku(code string) *cart.ProductSku {
	return &cart.ProductSku{SkuCode: code, Shippable: true, Product: &cart.Product{Code: "P-" + code, Name: code}}
}

func digitalSku(code string) *cart.ProductSku {
	return &cart.ProductSku{SkuCode: code, DigitalAsset: true, Product: &cart.Product{Code: "P-" + code, Name: code}}
}

func serviceSku(code string) *cart.ProductSku {
	return &cart.ProductSku{SkuCode: code, Product: &cart.Product{Code: "P-" + code, Name: code}}
}

func lineItem(guid string, sku *cart.ProductSku, unitPrice string, qty int) *cart.ShoppingItem {
	return &cart.ShoppingItem{GUID: guid, Sku: sku, UnitPrice: dec(unitPrice), Quantity: qty}
}

func bundleItem(guid, code, unitPrice, discount string, qty int, children ...*cart.ShoppingItem) *cart.ShoppingItem {
	it := lineItem(guid, serviceSku(code), unitPrice, qty)
	it.Discount = dec(discount)
	it.BundleItems = children
	return it
}
