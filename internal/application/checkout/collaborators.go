package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ShippingLevelService returns the shipping service levels valid for a cart
type ShippingLevelService interface {
	RetrieveShippingServiceLevels(ctx context.Context, sc *cart.ShoppingCart) ([]*cart.ShippingServiceLevel, error)
}

// TaxCalculator fills in item taxes and before-tax amounts on a cart
type TaxCalculator interface {
	CalculateTaxes(ctx context.Context, sc *cart.ShoppingCart) error
}

// InventoryChecker reports the quantity of a sku that can still be sold
type InventoryChecker interface {
	AvailableQuantity(ctx context.Context, sku *cart.ProductSku) (int, error)
}

// PaymentGateway authorizes and reverses order payments. Gateway failures
// should be returned as SystemError or wrap ErrPaymentProcessing.
type PaymentGateway interface {
	Authorize(ctx context.Context, orderNumber string, payment *order.OrderPayment) (string, error)
	Reverse(ctx context.Context, payment *order.OrderPayment) error
}

// GiftCertificateRequest describes a gift certificate bought with an order
type GiftCertificateRequest struct {
	OrderGUID      string
	OrderNumber    string
	SkuGUID        string
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	Purchaser      *cart.Customer
	RecipientEmail string
}

// GiftCertificate is an issued gift certificate
type GiftCertificate struct {
	Code           string
	PurchaserEmail string
}

// GiftCertificateService issues and removes gift certificates
type GiftCertificateService interface {
	Issue(ctx context.Context, req GiftCertificateRequest) (*GiftCertificate, error)
	Remove(ctx context.Context, code string) error
}

// Notifier sends customer notifications
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *order.Order) error
}
