package checkout

import (
	"errors"

	"github.com/storefront/backend/internal/domain/shared"
)

// Message keys appended to cart items that fail stock checks
const (
	MessageInsufficientInventory = "globals.cart.insufficientinventory"
	MessageUnavailable           = "globals.cart.unavailable"
)

// Checkout errors
var (
	ErrShoppingCartEmpty     = shared.NewDomainError("SHOPPING_CART_EMPTY", "Shopping cart must not be empty during checkout")
	ErrSkuUnavailable        = shared.NewDomainError("SKU_UNAVAILABLE", "Sku is not available for purchase")
	ErrInsufficientInventory = shared.NewDomainError("INSUFFICIENT_INVENTORY", "Insufficient inventory")
	ErrMinOrderQuantity      = shared.NewDomainError("MIN_ORDER_QUANTITY", "Quantity is below the minimum order quantity")
	ErrPaymentProcessing     = shared.NewDomainError("PAYMENT_PROCESSING", "Payment could not be processed")
	ErrExchangeCartRequired  = shared.NewDomainError("EXCHANGE_CART_REQUIRED", "Exchange checkout requires an exchange cart")
)

// SystemError marks an infrastructure failure, such as a gateway outage. It
// is returned unchanged after rollback instead of being wrapped.
type SystemError struct {
	Message string
	Cause   error
}

// NewSystemError creates a SystemError
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{Message: message, Cause: cause}
}

// Error implements the error interface
func (e *SystemError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause
func (e *SystemError) Unwrap() error {
	return e.Cause
}

// IsSystemError implements the system error marker
func (e *SystemError) IsSystemError() bool {
	return true
}

type systemError interface {
	IsSystemError() bool
}

// IsSystemError reports whether err or anything it wraps is a system error
func IsSystemError(err error) bool {
	var se systemError
	return errors.As(err, &se) && se.IsSystemError()
}

// CheckoutError wraps a non-system failure of the reversible phase
type CheckoutError struct {
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CheckoutError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + " " + e.Cause.Error()
}

// Unwrap returns the underlying cause
func (e *CheckoutError) Unwrap() error {
	return e.Cause
}

func newCheckoutError(cause error) *CheckoutError {
	return &CheckoutError{Message: "Checkout failed.", Cause: cause}
}
