package checkout

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
)

// SetupAction prepares or checks a checkout before anything is persisted.
// Setup actions are never rolled back.
type SetupAction interface {
	Execute(ctx context.Context, ac *ActionContext) error
}

// ReversibleAction is a checkout step with a compensating Rollback. Rollback
// is only called when Execute returned nil and a later action failed.
type ReversibleAction interface {
	Execute(ctx context.Context, ac *ActionContext) error
	Rollback(ctx context.Context, ac *ActionContext) error
}

// FinalizeAction runs after the order is committed. Failures are reported
// but never undo the order.
type FinalizeAction interface {
	Execute(ctx context.Context, fc *FinalizeContext) error
}

// ActionContext is the state of a single checkout call. It is owned by that
// call and never shared between checkouts.
type ActionContext struct {
	Cart                    *cart.ShoppingCart
	Customer                *cart.Customer
	Payment                 *order.OrderPayment
	IsOrderExchange         bool
	AwaitExchangeCompletion bool
	Exchange                *order.OrderReturn
	Order                   *order.Order
}

func newActionContext(
	sc *cart.ShoppingCart,
	payment *order.OrderPayment,
	isOrderExchange, awaitExchangeCompletion bool,
	exchange *order.OrderReturn,
) *ActionContext {
	return &ActionContext{
		Cart:                    sc,
		Customer:                sc.Customer,
		Payment:                 payment,
		IsOrderExchange:         isOrderExchange,
		AwaitExchangeCompletion: awaitExchangeCompletion,
		Exchange:                exchange,
	}
}

// FinalizeContext extends ActionContext with the flags finalize actions report
type FinalizeContext struct {
	*ActionContext
	EmailFailed   bool
	FailedActions []string
}

// CheckoutResults is what a checkout call produced. FinalizeFailed is set when
// any finalize action failed and FailedFinalizeActions names them in run order.
type CheckoutResults struct {
	Order                 *order.Order
	OrderFailed           bool
	FailureCause          error
	EmailFailed           bool
	FinalizeFailed        bool
	FailedFinalizeActions []string
}

func actionName(action any) string {
	return fmt.Sprintf("%T", action)
}
