package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// CreateOrderAction builds the order from the cart and saves it. Rollback
// marks the order failed; its number stays allocated.
type CreateOrderAction struct {
	factory *order.OrderFactory
	repo    order.Repository
	logger  *zap.Logger
}

// NewCreateOrderAction creates a CreateOrderAction
func NewCreateOrderAction(factory *order.OrderFactory, repo order.Repository, logger *zap.Logger) *CreateOrderAction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateOrderAction{factory: factory, repo: repo, logger: logger}
}

// Execute implements ReversibleAction
func (a *CreateOrderAction) Execute(ctx context.Context, ac *ActionContext) error {
	o, err := a.factory.CreateAndPersistNewOrderFromShoppingCart(
		ctx, ac.Customer, ac.Cart, ac.IsOrderExchange, ac.AwaitExchangeCompletion, ac.Exchange,
	)
	if o != nil {
		ac.Order = o
	}
	if err != nil {
		if o != nil {
			// nothing rolls this action back, so fail the order here
			a.markFailed(ctx, o)
		}
		return err
	}

	saved, err := a.repo.Save(ctx, o)
	if err != nil {
		a.markFailed(ctx, o)
		return fmt.Errorf("save order %s: %w", o.OrderNumber, err)
	}
	ac.Order = saved
	return nil
}

// Rollback implements ReversibleAction
func (a *CreateOrderAction) Rollback(ctx context.Context, ac *ActionContext) error {
	if ac.Order == nil {
		return nil
	}
	if err := ac.Order.MarkFailed(); err != nil {
		return err
	}
	if _, err := a.repo.Save(ctx, ac.Order); err != nil {
		return fmt.Errorf("save failed order %s: %w", ac.Order.OrderNumber, err)
	}
	return nil
}

func (a *CreateOrderAction) markFailed(ctx context.Context, o *order.Order) {
	if err := o.MarkFailed(); err != nil {
		a.logger.Warn("Cannot mark order failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
		return
	}
	if _, err := a.repo.Save(ctx, o); err != nil {
		a.logger.Error("Failed to save failed order", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

// AuthorizePaymentAction authorizes the order total against the payment
// template. Checkouts without a payment template are left alone.
type AuthorizePaymentAction struct {
	gateway PaymentGateway
}

// NewAuthorizePaymentAction creates an AuthorizePaymentAction
func NewAuthorizePaymentAction(gateway PaymentGateway) *AuthorizePaymentAction {
	return &AuthorizePaymentAction{gateway: gateway}
}

// Execute implements ReversibleAction
func (a *AuthorizePaymentAction) Execute(ctx context.Context, ac *ActionContext) error {
	if ac.Payment == nil || ac.Order == nil {
		return nil
	}
	total := ac.Order.Total()
	if !total.IsPositive() {
		return nil
	}

	payment := *ac.Payment
	payment.Amount = total
	payment.Currency = ac.Order.Currency
	code, err := a.gateway.Authorize(ctx, ac.Order.OrderNumber, &payment)
	if err != nil {
		return err
	}
	payment.AuthorizationCode = code
	ac.Order.Payments = append(ac.Order.Payments, &payment)
	return nil
}

// Rollback implements ReversibleAction
func (a *AuthorizePaymentAction) Rollback(ctx context.Context, ac *ActionContext) error {
	if ac.Order == nil {
		return nil
	}
	kept := make([]*order.OrderPayment, 0, len(ac.Order.Payments))
	for _, p := range ac.Order.Payments {
		if p.AuthorizationCode == "" {
			kept = append(kept, p)
			continue
		}
		if err := a.gateway.Reverse(ctx, p); err != nil {
			return fmt.Errorf("reverse authorization %s: %w", p.AuthorizationCode, err)
		}
	}
	ac.Order.Payments = kept
	return nil
}

// CreateGiftCertificatesAction issues a certificate for every gift certificate
// sku of the order and records its code on the sku.
type CreateGiftCertificatesAction struct {
	service GiftCertificateService
	logger  *zap.Logger
}

// NewCreateGiftCertificatesAction creates a CreateGiftCertificatesAction
func NewCreateGiftCertificatesAction(service GiftCertificateService, logger *zap.Logger) *CreateGiftCertificatesAction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateGiftCertificatesAction{service: service, logger: logger}
}

// Execute implements ReversibleAction. Certificates issued before a failure
// are removed again, since a failed Execute is never rolled back.
func (a *CreateGiftCertificatesAction) Execute(ctx context.Context, ac *ActionContext) error {
	if ac.Order == nil {
		return nil
	}

	var issued []*order.OrderSku
	for _, sku := range ac.Order.AllSkus() {
		if !sku.IsGiftCertificate() {
			continue
		}
		gc, err := a.service.Issue(ctx, GiftCertificateRequest{
			OrderGUID:      ac.Order.GUID(),
			OrderNumber:    ac.Order.OrderNumber,
			SkuGUID:        sku.GUID,
			Amount:         sku.Total(),
			Currency:       ac.Order.Currency,
			Purchaser:      ac.Customer,
			RecipientEmail: sku.Field(cart.FieldGiftCertificateRecipient),
		})
		if err != nil {
			for _, done := range issued {
				if rmErr := a.remove(ctx, done); rmErr != nil {
					a.logger.Error("Failed to remove gift certificate", zap.String("sku_guid", done.GUID), zap.Error(rmErr))
				}
			}
			return fmt.Errorf("issue gift certificate for sku %s: %w", sku.GUID, err)
		}
		sku.SetField(cart.FieldGiftCertificateCode, gc.Code)
		sku.SetField(cart.FieldGiftCertificateSenderEmail, gc.PurchaserEmail)
		issued = append(issued, sku)
	}
	return nil
}

// Rollback implements ReversibleAction
func (a *CreateGiftCertificatesAction) Rollback(ctx context.Context, ac *ActionContext) error {
	if ac.Order == nil {
		return nil
	}
	for _, sku := range ac.Order.AllSkus() {
		if !sku.IsGiftCertificate() {
			continue
		}
		if err := a.remove(ctx, sku); err != nil {
			return err
		}
	}
	return nil
}

func (a *CreateGiftCertificatesAction) remove(ctx context.Context, sku *order.OrderSku) error {
	code := sku.Field(cart.FieldGiftCertificateCode)
	if code == "" {
		return nil
	}
	if err := a.service.Remove(ctx, code); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("remove gift certificate %s: %w", code, err)
	}
	sku.SetField(cart.FieldGiftCertificateCode, "")
	sku.SetField(cart.FieldGiftCertificateSenderEmail, "")
	return nil
}
