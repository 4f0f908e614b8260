// Package checkout runs the checkout pipeline that turns a shopping cart into
// an order: setup actions, reversible actions with rollback, then finalize
// actions.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// CheckoutService orchestrates checkout. The action lists are fixed at
// construction and may be shared by concurrent checkouts; all per-call state
// lives in the ActionContext.
type CheckoutService struct {
	setup      []SetupAction
	reversible []ReversibleAction
	finalize   []FinalizeAction

	shippingLevels ShippingLevelService
	taxes          TaxCalculator

	metrics *telemetry.CheckoutMetrics
	logger  *zap.Logger
}

// Option is a functional option for configuring CheckoutService
type Option func(*CheckoutService)

// WithSetupActions sets the setup actions, run in order
func WithSetupActions(actions ...SetupAction) Option {
	return func(s *CheckoutService) {
		s.setup = append([]SetupAction(nil), actions...)
	}
}

// WithReversibleActions sets the reversible actions, run in order
func WithReversibleActions(actions ...ReversibleAction) Option {
	return func(s *CheckoutService) {
		s.reversible = append([]ReversibleAction(nil), actions...)
	}
}

// WithFinalizeActions sets the finalize actions, run in order
func WithFinalizeActions(actions ...FinalizeAction) Option {
	return func(s *CheckoutService) {
		s.finalize = append([]FinalizeAction(nil), actions...)
	}
}

// WithShippingLevelService sets the shipping level lookup
func WithShippingLevelService(svc ShippingLevelService) Option {
	return func(s *CheckoutService) {
		s.shippingLevels = svc
	}
}

// WithTaxCalculator sets the tax calculator
func WithTaxCalculator(calc TaxCalculator) Option {
	return func(s *CheckoutService) {
		s.taxes = calc
	}
}

// WithCheckoutMetrics sets the checkout metrics recorder
func WithCheckoutMetrics(m *telemetry.CheckoutMetrics) Option {
	return func(s *CheckoutService) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *CheckoutService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(opts ...Option) *CheckoutService {
	s := &CheckoutService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RetrieveShippingOption refreshes the cart's shipping levels. A selection
// that is no longer valid is replaced by the first valid level.
func (s *CheckoutService) RetrieveShippingOption(ctx context.Context, sc *cart.ShoppingCart) error {
	if sc == nil {
		return shared.NewDomainError(shared.ErrInvalidCart.Code, "Shopping cart is required")
	}
	if !sc.RequiresShipping() {
		sc.ShippingLevels = nil
		sc.ClearSelectedShippingLevel()
		return nil
	}
	if s.shippingLevels == nil {
		return errors.New("checkout: no shipping level service configured")
	}

	levels, err := s.shippingLevels.RetrieveShippingServiceLevels(ctx, sc)
	if err != nil {
		return fmt.Errorf("retrieve shipping levels for cart %s: %w", sc.GUID, err)
	}
	sc.ShippingLevels = levels
	if len(levels) == 0 {
		sc.ClearSelectedShippingLevel()
		return nil
	}
	if sc.SelectedShippingLevel == nil || !sc.SelectShippingLevel(sc.SelectedShippingLevel.GUID) {
		sc.SelectShippingLevel(levels[0].GUID)
	}
	return nil
}

// CalculateTaxAndBeforeTaxValue computes taxes on the cart
func (s *CheckoutService) CalculateTaxAndBeforeTaxValue(ctx context.Context, sc *cart.ShoppingCart) error {
	if sc == nil {
		return shared.NewDomainError(shared.ErrInvalidCart.Code, "Shopping cart is required")
	}
	if s.taxes == nil {
		return errors.New("checkout: no tax calculator configured")
	}
	return s.taxes.CalculateTaxes(ctx, sc)
}

// Checkout places an order for the cart. Exchange carts are ignored here and
// go through CheckoutExchangeOrder.
//
// With throwErrors false, a failure is reported on the results instead of
// returned, but only when an order was already created; otherwise the error
// is returned either way.
func (s *CheckoutService) Checkout(
	ctx context.Context,
	sc *cart.ShoppingCart,
	payment *order.OrderPayment,
	throwErrors bool,
) (*CheckoutResults, error) {
	if sc == nil {
		return nil, shared.NewDomainError(shared.ErrInvalidCart.Code, "Shopping cart is required")
	}

	results := &CheckoutResults{}
	if sc.ExchangeOrder {
		s.logger.Debug("Skipping checkout of exchange cart", zap.String("cart_guid", sc.GUID))
		return results, nil
	}

	err := s.checkoutInternal(ctx, sc, payment, false, false, nil, results)
	if err == nil {
		return results, nil
	}
	if throwErrors || results.Order == nil {
		return results, err
	}

	s.logger.Warn("Checkout failed after order creation",
		zap.String("cart_guid", sc.GUID),
		zap.String("order_number", results.Order.OrderNumber),
		zap.Error(err),
	)
	results.OrderFailed = true
	results.FailureCause = err
	return results, nil
}

// CheckoutExchangeOrder places the replacement order of an exchange
func (s *CheckoutService) CheckoutExchangeOrder(
	ctx context.Context,
	exchange *order.OrderReturn,
	payment *order.OrderPayment,
	awaitExchangeCompletion bool,
) (*CheckoutResults, error) {
	if exchange == nil || exchange.ExchangeCart == nil {
		return nil, ErrExchangeCartRequired
	}
	sc := exchange.ExchangeCart
	if !sc.ExchangeOrder {
		return nil, ErrExchangeCartRequired
	}

	results := &CheckoutResults{}
	if err := s.checkoutInternal(ctx, sc, payment, true, awaitExchangeCompletion, exchange, results); err != nil {
		return results, err
	}
	return results, nil
}

func (s *CheckoutService) checkoutInternal(
	ctx context.Context,
	sc *cart.ShoppingCart,
	payment *order.OrderPayment,
	isOrderExchange, awaitExchangeCompletion bool,
	exchange *order.OrderReturn,
	results *CheckoutResults,
) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "run",
		telemetry.WithAttribute(telemetry.SpanAttrCartGUID, sc.GUID),
		telemetry.WithAttribute(telemetry.SpanAttrExchange, isOrderExchange),
	)
	defer span.End()
	ctx = logger.WithCartGUID(ctx, sc.GUID)

	start := time.Now()
	log := logger.Enrich(ctx, s.logger)
	ac := newActionContext(sc, payment, isOrderExchange, awaitExchangeCompletion, exchange)

	log.Debug("Checkout process started")

	if err := s.runSetup(ctx, ac, log); err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordCheckout(ctx, telemetry.CheckoutOutcomeRejected, time.Since(start))
		return err
	}

	outcome := s.runReversible(ctx, ac, log)
	results.Order = outcome.Order
	if outcome.Err != nil {
		telemetry.RecordError(span, outcome.Err)
		s.metrics.RecordCheckout(ctx, telemetry.CheckoutOutcomeRolledBack, time.Since(start))
		return outcome.Err
	}

	fc := &FinalizeContext{ActionContext: ac}
	s.runFinalize(ctx, fc, log)
	results.EmailFailed = fc.EmailFailed
	results.FinalizeFailed = len(fc.FailedActions) > 0
	results.FailedFinalizeActions = fc.FailedActions

	if ac.Order != nil {
		sc.CompletedOrderNumber = ac.Order.OrderNumber
		telemetry.SetAttributes(span,
			telemetry.SpanAttrOrderNumber, ac.Order.OrderNumber,
			telemetry.SpanAttrOrderStatus, string(ac.Order.Status),
		)
		s.metrics.RecordOrderAmount(ctx, string(ac.Order.Currency), ac.Order.Total())
		log.Info("Checkout process completed", zap.String("order_number", ac.Order.OrderNumber))
	} else {
		log.Info("Checkout process completed without an order")
	}
	telemetry.SetOK(span)
	s.metrics.RecordCheckout(ctx, telemetry.CheckoutOutcomeCompleted, time.Since(start))
	return nil
}

func (s *CheckoutService) runSetup(ctx context.Context, ac *ActionContext, log *zap.Logger) error {
	for _, action := range s.setup {
		name := actionName(action)
		log.Debug("Executing checkout action", zap.String("action", name))

		actx, span := telemetry.StartSpan(ctx, "checkout.setup", telemetry.WithAttribute(telemetry.SpanAttrAction, name))
		err := action.Execute(actx, ac)
		telemetry.RecordError(span, err)
		span.End()
		if err != nil {
			log.Info("Checkout setup action failed", zap.String("action", name), zap.Error(err))
			return err
		}
	}
	return nil
}

// reversibleOutcome carries the order built by the reversible phase, which
// may be partial when Err is set.
type reversibleOutcome struct {
	Order *order.Order
	Err   error
}

func (s *CheckoutService) runReversible(ctx context.Context, ac *ActionContext, log *zap.Logger) reversibleOutcome {
	executed := make([]ReversibleAction, 0, len(s.reversible))

	for _, action := range s.reversible {
		name := actionName(action)
		log.Debug("Executing checkout action", zap.String("action", name))

		actx, span := telemetry.StartSpan(ctx, "checkout.reversible", telemetry.WithAttribute(telemetry.SpanAttrAction, name))
		err := action.Execute(actx, ac)
		telemetry.RecordError(span, err)
		span.End()

		if err == nil {
			executed = append(executed, action)
			continue
		}

		if errors.Is(err, ErrPaymentProcessing) {
			log.Debug("Payment processing error occurred during checkout", zap.String("action", name), zap.Error(err))
		} else {
			log.Error("Error occurred during checkout", zap.String("action", name), zap.Error(err))
		}

		if rbErr := s.rollback(ctx, ac, executed, log); rbErr != nil {
			return reversibleOutcome{Order: ac.Order, Err: rbErr}
		}
		if IsSystemError(err) {
			return reversibleOutcome{Order: ac.Order, Err: err}
		}
		return reversibleOutcome{Order: ac.Order, Err: newCheckoutError(err)}
	}
	return reversibleOutcome{Order: ac.Order}
}

// rollback undoes executed actions newest first. A rollback failure stops the
// remaining steps and is returned.
func (s *CheckoutService) rollback(ctx context.Context, ac *ActionContext, executed []ReversibleAction, log *zap.Logger) error {
	log.Debug("Checkout rollback process started", zap.Int("actions", len(executed)))
	s.metrics.RecordRollback(ctx, len(executed))

	for i := len(executed) - 1; i >= 0; i-- {
		name := actionName(executed[i])
		log.Debug("Executing checkout action rollback", zap.String("action", name))

		actx, span := telemetry.StartSpan(ctx, "checkout.rollback", telemetry.WithAttribute(telemetry.SpanAttrAction, name))
		err := executed[i].Rollback(actx, ac)
		telemetry.RecordError(span, err)
		span.End()
		if err != nil {
			log.Error("Checkout rollback failed", zap.String("action", name), zap.Error(err))
			return fmt.Errorf("rollback %s: %w", name, err)
		}
	}

	log.Debug("Checkout rollback process completed")
	return nil
}

func (s *CheckoutService) runFinalize(ctx context.Context, fc *FinalizeContext, log *zap.Logger) {
	for _, action := range s.finalize {
		name := actionName(action)
		log.Debug("Executing checkout action", zap.String("action", name))

		actx, span := telemetry.StartSpan(ctx, "checkout.finalize", telemetry.WithAttribute(telemetry.SpanAttrAction, name))
		err := action.Execute(actx, fc)
		telemetry.RecordError(span, err)
		span.End()
		if err != nil {
			fc.FailedActions = append(fc.FailedActions, name)
			log.Warn("Checkout finalize action failed", zap.String("action", name), zap.Error(err))
		}
	}
}
