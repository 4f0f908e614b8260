package order

import (
	"context"

	"github.com/storefront/backend/internal/domain/cart"
)

// Repository persists orders
type Repository interface {
	// CreateEmptyOrder stores the order shell and assigns its order number
	CreateEmptyOrder(ctx context.Context, order *Order) (*Order, error)

	// Save stores the order with its shipments and skus
	Save(ctx context.Context, order *Order) (*Order, error)

	// FindByOrderNumber returns shared.ErrNotFound when no order has that number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
}

// NumberGenerator hands out order numbers. Numbers are never reused.
type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

// RuleService resolves promotion rules. A deleted rule yields shared.ErrNotFound.
type RuleService interface {
	FindRule(ctx context.Context, ruleID int64) (*Rule, error)
}

// CartOrderService looks up the cart order linked to a shopping cart.
// An empty GUID without error means there is none.
type CartOrderService interface {
	FindCartOrderGUID(ctx context.Context, cartGUID string) (string, error)
}

// CustomerService loads and updates customers
type CustomerService interface {
	FindByGUID(ctx context.Context, guid string) (*cart.Customer, error)
	Update(ctx context.Context, customer *cart.Customer) (*cart.Customer, error)
}

// InventoryAllocator allocates stock for a leaf sku and returns the allocated quantity
type InventoryAllocator interface {
	Allocate(ctx context.Context, sku *OrderSku) (int, error)
}
