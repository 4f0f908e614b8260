package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
)

// RuleDeletedMessage replaces the name and code of applied rules that no longer exist
const RuleDeletedMessage = "Referenced rule was deleted"

// ErrShippingLevelRequired is returned when a cart with physical items has no shipping level selected
var ErrShippingLevelRequired = shared.NewDomainError("SHIPPING_LEVEL_REQUIRED", "A shipping service level must be selected for physical items")

// OrderFactory creates orders from shopping carts. It persists an empty order
// first to obtain the order number, then fills in rules, addresses and shipments.
type OrderFactory struct {
	repo       Repository
	skuFactory *OrderSkuFactory
	discounts  *pricing.DiscountApportioner
	classifier ShipmentClassifier
	rules      RuleService
	cartOrders CartOrderService
	customers  CustomerService
	allocator  InventoryAllocator
	logger     *zap.Logger
	now        func() time.Time
}

// OrderFactoryOption is a functional option for configuring OrderFactory
type OrderFactoryOption func(*OrderFactory)

// WithOrderSkuFactory sets the sku factory
func WithOrderSkuFactory(f *OrderSkuFactory) OrderFactoryOption {
	return func(o *OrderFactory) {
		if f != nil {
			o.skuFactory = f
		}
	}
}

// WithShipmentClassifier sets the classifier used to partition root skus
func WithShipmentClassifier(c ShipmentClassifier) OrderFactoryOption {
	return func(o *OrderFactory) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithRuleService sets the rule lookup for applied rules
func WithRuleService(r RuleService) OrderFactoryOption {
	return func(o *OrderFactory) {
		o.rules = r
	}
}

// WithCartOrderService sets the cart order lookup
func WithCartOrderService(s CartOrderService) OrderFactoryOption {
	return func(o *OrderFactory) {
		o.cartOrders = s
	}
}

// WithCustomerService sets the customer store used for anonymous customers
func WithCustomerService(s CustomerService) OrderFactoryOption {
	return func(o *OrderFactory) {
		o.customers = s
	}
}

// WithInventoryAllocator sets the allocator for physical skus.
// Without one, every sku counts as fully allocated.
func WithInventoryAllocator(a InventoryAllocator) OrderFactoryOption {
	return func(o *OrderFactory) {
		o.allocator = a
	}
}

// WithOrderFactoryLogger sets the logger
func WithOrderFactoryLogger(logger *zap.Logger) OrderFactoryOption {
	return func(o *OrderFactory) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOrderClock sets the clock used for creation dates
func WithOrderClock(now func() time.Time) OrderFactoryOption {
	return func(o *OrderFactory) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrderFactory creates a new OrderFactory
func NewOrderFactory(repo Repository, opts ...OrderFactoryOption) *OrderFactory {
	f := &OrderFactory{
		repo:       repo,
		classifier: DefaultShipmentClassifier{},
		discounts:  pricing.NewDiscountApportioner(nil),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.skuFactory == nil {
		f.skuFactory = NewOrderSkuFactory(WithSkuClock(f.now))
	}
	return f
}

// CreateAndPersistNewOrderFromShoppingCart creates an order for the cart. The
// empty order is persisted before anything else so the order number is taken
// even if a later step fails.
func (f *OrderFactory) CreateAndPersistNewOrderFromShoppingCart(
	ctx context.Context,
	customer *cart.Customer,
	shoppingCart *cart.ShoppingCart,
	isOrderExchange bool,
	awaitExchangeCompletion bool,
	exchange *OrderReturn,
) (*Order, error) {
	if shoppingCart == nil {
		return nil, shared.NewDomainError(shared.ErrInvalidCart.Code, "Shopping cart is required")
	}

	order, err := f.createEmptyOrder(ctx, customer, shoppingCart, isOrderExchange, awaitExchangeCompletion)
	if err != nil {
		return nil, err
	}
	if isOrderExchange {
		order.Exchange = exchange
	}

	if err := f.fillInOrderDetails(ctx, order, shoppingCart, customer, isOrderExchange, awaitExchangeCompletion); err != nil {
		return order, err
	}
	return order, nil
}

func (f *OrderFactory) createEmptyOrder(
	ctx context.Context,
	customer *cart.Customer,
	sc *cart.ShoppingCart,
	isOrderExchange, awaitExchangeCompletion bool,
) (*Order, error) {
	order := NewOrder()
	order.CreatedDate = f.now()
	order.IPAddress = sc.IPAddress
	order.Currency = sc.Currency
	order.Locale = sc.Locale
	order.StoreCode = sc.StoreCode
	order.Customer = customer

	if isOrderExchange {
		order.ExchangeOrder = true
		if awaitExchangeCompletion {
			order.Status = OrderStatusAwaitingExchange
		}
	}

	if f.cartOrders != nil {
		guid, err := f.cartOrders.FindCartOrderGUID(ctx, sc.GUID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("find cart order for cart %s: %w", sc.GUID, err)
		}
		order.CartOrderGUID = guid
	}

	persisted, err := f.repo.CreateEmptyOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create empty order: %w", err)
	}
	return persisted, nil
}

func (f *OrderFactory) fillInOrderDetails(
	ctx context.Context,
	order *Order,
	sc *cart.ShoppingCart,
	customer *cart.Customer,
	isOrderExchange, awaitExchangeCompletion bool,
) error {
	order.Customer = customer

	rules, err := f.appliedOrderRules(ctx, sc.AppliedRuleIDs)
	if err != nil {
		return err
	}
	order.AppliedRules = rules

	if sc.BillingAddress != nil {
		billing := *sc.BillingAddress
		order.BillingAddress = &billing
	}

	if customer != nil && customer.Anonymous {
		if err := f.updateAnonymousCustomer(ctx, order, customer); err != nil {
			return err
		}
	}

	if err := f.createShipments(ctx, order, sc, isOrderExchange, awaitExchangeCompletion); err != nil {
		return err
	}

	order.CMUserGUID = sc.CMUserGUID
	return nil
}

// appliedOrderRules resolves each distinct rule ID, sorted by ID
func (f *OrderFactory) appliedOrderRules(ctx context.Context, ruleIDs []int64) ([]AppliedRule, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(ruleIDs))
	seen := make(map[int64]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	applied := make([]AppliedRule, 0, len(ids))
	for _, id := range ids {
		var rule *Rule
		var err error
		if f.rules != nil {
			rule, err = f.rules.FindRule(ctx, id)
		} else {
			err = shared.ErrNotFound
		}

		switch {
		case err == nil && rule != nil:
			applied = append(applied, AppliedRule{
				RuleID:      id,
				Name:        rule.Name,
				Code:        rule.Code,
				Description: rule.Description,
			})
		case err == nil || errors.Is(err, shared.ErrNotFound):
			f.logger.Warn("Applied rule no longer exists", zap.Int64("rule_id", id))
			applied = append(applied, AppliedRule{
				RuleID: id,
				Name:   RuleDeletedMessage,
				Code:   RuleDeletedMessage,
			})
		default:
			return nil, fmt.Errorf("load applied rule %d: %w", id, err)
		}
	}
	return applied, nil
}

// updateAnonymousCustomer copies name and phone from the billing address when
// the customer has none, so anonymous orders can be searched.
func (f *OrderFactory) updateAnonymousCustomer(ctx context.Context, order *Order, customer *cart.Customer) error {
	billing := order.BillingAddress
	if billing == nil {
		return nil
	}

	target := customer
	if f.customers != nil && customer.GUID != "" {
		stored, err := f.customers.FindByGUID(ctx, customer.GUID)
		switch {
		case err == nil && stored != nil:
			target = stored
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("load customer %s: %w", customer.GUID, err)
		}
	}

	updated := false
	// first and last names belong together
	if target.FirstName == "" && target.LastName == "" {
		target.FirstName = billing.FirstName()
		target.LastName = billing.LastName()
		updated = true
	}
	if target.PhoneNumber == "" {
		target.PhoneNumber = billing.PhoneNumber()
		updated = true
	}
	if !updated {
		return nil
	}

	if f.customers != nil {
		saved, err := f.customers.Update(ctx, target)
		if err != nil {
			return fmt.Errorf("update anonymous customer %s: %w", target.GUID, err)
		}
		target = saved
	}
	order.Customer = target
	return nil
}

func (f *OrderFactory) createShipments(
	ctx context.Context,
	order *Order,
	sc *cart.ShoppingCart,
	isOrderExchange, awaitExchangeCompletion bool,
) error {
	roots := f.skuFactory.CreateOrderSkus(sc.RootItems(), sc.Locale)
	if err := f.allocate(ctx, roots); err != nil {
		return err
	}

	var physical, electronic, service []*OrderSku
	for _, sku := range roots {
		switch f.classifier.Classify(sku) {
		case ShipmentTypePhysical:
			physical = append(physical, sku)
		case ShipmentTypeElectronic:
			electronic = append(electronic, sku)
		default:
			service = append(service, sku)
		}
	}

	// service items never take part in cart discounts
	splitShipmentMode := len(physical) > 0 && len(electronic) > 0
	var discountBySku *pricing.OrderedMap[decimal.Decimal]
	if splitShipmentMode {
		weights := pricing.NewOrderedMap[decimal.Decimal]()
		for _, sku := range roots {
			if f.classifier.Classify(sku) != ShipmentTypeService {
				weights.Set(sku.GUID, sku.Total())
			}
		}
		var err error
		discountBySku, err = f.discounts.ApportionDiscountToItems(sc.SubtotalDiscount, weights)
		if err != nil {
			return err
		}
	}

	shipmentDiscount := func(skus []*OrderSku) decimal.Decimal {
		if !splitShipmentMode {
			return sc.SubtotalDiscount
		}
		total := decimal.Zero
		for _, sku := range skus {
			if d, ok := discountBySku.Get(sku.GUID); ok {
				total = total.Add(d)
			}
		}
		return total
	}

	if len(physical) > 0 {
		shipment, err := f.createPhysicalShipment(shipmentDiscount(physical), sc, physical, isOrderExchange, awaitExchangeCompletion)
		if err != nil {
			return err
		}
		order.AddShipment(shipment)
	}
	if len(electronic) > 0 {
		order.AddShipment(f.createElectronicShipment(shipmentDiscount(electronic), sc, electronic))
	}
	if len(service) > 0 {
		order.AddShipment(f.createServiceShipment(sc, service))
	}
	return nil
}

func (f *OrderFactory) allocate(ctx context.Context, roots []*OrderSku) error {
	for _, root := range roots {
		for _, leaf := range root.Leaves() {
			if f.allocator == nil || !leaf.Shippable {
				leaf.AllocatedQuantity = leaf.Quantity
				continue
			}
			qty, err := f.allocator.Allocate(ctx, leaf)
			if err != nil {
				return fmt.Errorf("allocate inventory for sku %s: %w", leaf.SkuCode, err)
			}
			leaf.AllocatedQuantity = qty
		}
	}
	return nil
}

func (f *OrderFactory) createPhysicalShipment(
	discount decimal.Decimal,
	sc *cart.ShoppingCart,
	skus []*OrderSku,
	isOrderExchange, awaitExchangeCompletion bool,
) (*OrderShipment, error) {
	level := sc.SelectedShippingLevel
	if level == nil {
		return nil, ErrShippingLevelRequired
	}

	shipment := NewOrderShipment(ShipmentTypePhysical, f.now())
	if sc.ShippingAddress != nil {
		addr := *sc.ShippingAddress
		shipment.ShippingAddress = &addr
	}
	shipment.Carrier = level.Carrier
	shipment.ServiceLevel = level.DisplayName(sc.Locale)
	shipment.ShippingServiceLevelGUID = level.GUID
	shipment.ShippingCost = sc.ShippingCost
	shipment.BeforeTaxShippingCost = sc.BeforeTaxShippingCost
	for _, sku := range skus {
		shipment.AddSku(sku)
	}

	if isOrderExchange && awaitExchangeCompletion {
		shipment.Status = ShipmentStatusOnHold
	} else {
		shipment.Status = ShipmentStatusInventoryAssigned
		for _, sku := range skus {
			if !sku.IsAllocated() {
				shipment.Status = ShipmentStatusAwaitingInventory
				break
			}
		}
	}

	shipment.SubtotalDiscount = discount
	shipment.InclusiveTax = sc.InclusiveTax
	return shipment, nil
}

func (f *OrderFactory) createElectronicShipment(discount decimal.Decimal, sc *cart.ShoppingCart, skus []*OrderSku) *OrderShipment {
	shipment := NewOrderShipment(ShipmentTypeElectronic, f.now())
	shipment.Status = ShipmentStatusReleased
	for _, sku := range skus {
		shipment.AddSku(sku)
	}
	shipment.InclusiveTax = sc.InclusiveTax
	shipment.SubtotalDiscount = discount
	return shipment
}

func (f *OrderFactory) createServiceShipment(sc *cart.ShoppingCart, skus []*OrderSku) *OrderShipment {
	shipment := NewOrderShipment(ShipmentTypeService, f.now())
	for _, sku := range skus {
		shipment.AddSku(sku)
	}
	shipment.SubtotalDiscount = decimal.Zero.Round(pricing.CurrencyScale)
	shipment.InclusiveTax = sc.InclusiveTax
	shipment.Status = ShipmentStatusShipped
	return shipment
}
