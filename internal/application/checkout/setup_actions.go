package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// StockCheckerAction rejects carts that are empty, hold skus outside their
// sale window, want more stock than is available, or order less than a
// product's minimum quantity. Failing items get a message key appended.
type StockCheckerAction struct {
	inventory InventoryChecker
	now       func() time.Time
}

// StockCheckerOption is a functional option for configuring StockCheckerAction
type StockCheckerOption func(*StockCheckerAction)

// WithStockClock sets the clock used for sku sale windows
func WithStockClock(now func() time.Time) StockCheckerOption {
	return func(a *StockCheckerAction) {
		if now != nil {
			a.now = now
		}
	}
}

// NewStockCheckerAction creates a StockCheckerAction. Without an inventory
// checker only availability and minimum quantities are checked.
func NewStockCheckerAction(inventory InventoryChecker, opts ...StockCheckerOption) *StockCheckerAction {
	a := &StockCheckerAction{inventory: inventory, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute implements SetupAction
func (a *StockCheckerAction) Execute(ctx context.Context, ac *ActionContext) error {
	sc := ac.Cart
	if sc.NumItems() <= 0 {
		return ErrShoppingCartEmpty
	}

	now := a.now()
	// stock left per sku code once earlier items took their share
	remaining := make(map[string]int)

	for _, leaf := range sc.LeafItems() {
		if err := a.verifyAvailability(leaf, now); err != nil {
			return err
		}
		if err := a.verifyInventory(ctx, leaf, remaining); err != nil {
			return err
		}
	}

	for _, root := range sc.RootItems() {
		if root.IsBundle() || root.Sku == nil || root.Sku.Product == nil {
			continue
		}
		if root.Quantity < root.Sku.Product.MinOrderQty {
			return shared.NewDomainError(ErrMinOrderQuantity.Code,
				fmt.Sprintf("SKU: %s requires at least %d", root.Sku.SkuCode, root.Sku.Product.MinOrderQty))
		}
	}
	return nil
}

func (a *StockCheckerAction) verifyAvailability(item *cart.ShoppingItem, now time.Time) error {
	if item.Sku == nil || item.Sku.IsWithinDateRange(now) {
		return nil
	}
	item.AppendErrorMessage(MessageUnavailable)
	return shared.NewDomainError(ErrSkuUnavailable.Code, "Unavailable SKU code: "+item.Sku.SkuCode)
}

func (a *StockCheckerAction) verifyInventory(ctx context.Context, item *cart.ShoppingItem, remaining map[string]int) error {
	if a.inventory == nil || item.Sku == nil || !item.Sku.Shippable {
		return nil
	}
	code := item.Sku.SkuCode

	left, seen := remaining[code]
	if !seen {
		available, err := a.inventory.AvailableQuantity(ctx, item.Sku)
		if err != nil {
			return fmt.Errorf("check inventory for sku %s: %w", code, err)
		}
		left = available
	}
	left -= item.Quantity
	remaining[code] = left

	if left < 0 {
		item.AppendErrorMessage(MessageInsufficientInventory)
		productCode := ""
		if item.Sku.Product != nil {
			productCode = item.Sku.Product.Code
		}
		return shared.NewDomainError(ErrInsufficientInventory.Code,
			fmt.Sprintf("PRODUCT_CODE:%s(SKU: %s)", productCode, code))
	}
	return nil
}

// ValidateCartAction checks the cart's structure before anything is created
type ValidateCartAction struct{}

// NewValidateCartAction creates a ValidateCartAction
func NewValidateCartAction() *ValidateCartAction {
	return &ValidateCartAction{}
}

// Execute implements SetupAction
func (a *ValidateCartAction) Execute(_ context.Context, ac *ActionContext) error {
	return ac.Cart.Validate()
}
