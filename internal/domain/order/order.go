// Package order holds the order aggregate and the factories that assemble an
// order from a shopping cart.
package order

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// AggregateTypeOrder is the aggregate type name used on order events
const AggregateTypeOrder = "Order"

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusInProgress       OrderStatus = "IN_PROGRESS"
	OrderStatusAwaitingExchange OrderStatus = "AWAITING_EXCHANGE"
	OrderStatusCreated          OrderStatus = "CREATED"
	OrderStatusCompleted        OrderStatus = "COMPLETED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusFailed           OrderStatus = "FAILED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusAwaitingExchange, OrderStatusCreated,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusFailed
}

// Rule is a promotion rule as stored by the rule engine
type Rule struct {
	ID          int64
	Name        string
	Code        string
	Description string
}

// AppliedRule records a promotion rule that was applied to the order
type AppliedRule struct {
	RuleID      int64
	Name        string
	Code        string
	Description string
}

// OrderReturn is an exchange request; its cart holds the replacement items
type OrderReturn struct {
	GUID         string
	RMACode      string
	ExchangeCart *cart.ShoppingCart
}

// OrderPayment is a payment taken for an order. The template passed to
// checkout carries the method and token; the amount and authorization code are
// filled in once the payment is authorized.
type OrderPayment struct {
	Method            string
	GatewayToken      string
	Amount            decimal.Decimal
	Currency          valueobject.Currency
	AuthorizationCode string
}

// Order is the aggregate root produced by checkout
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	Status        OrderStatus
	CreatedDate   time.Time
	IPAddress     string
	Currency      valueobject.Currency
	Locale        language.Tag
	StoreCode     string
	Customer      *cart.Customer
	ExchangeOrder bool
	Exchange      *OrderReturn
	CartOrderGUID string
	CMUserGUID    string

	AppliedRules   []AppliedRule
	BillingAddress *valueobject.Address
	Shipments      []*OrderShipment
	Payments       []*OrderPayment
}

// NewOrder creates an empty in-progress order
func NewOrder() *Order {
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            OrderStatusInProgress,
	}
}

// AddShipment attaches a shipment to the order
func (o *Order) AddShipment(s *OrderShipment) {
	s.OrderID = o.ID
	o.Shipments = append(o.Shipments, s)
}

// ShipmentsOfType returns the shipments of the given type
func (o *Order) ShipmentsOfType(t ShipmentType) []*OrderShipment {
	var out []*OrderShipment
	for _, s := range o.Shipments {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// RootSkus returns the root skus of every shipment
func (o *Order) RootSkus() []*OrderSku {
	var skus []*OrderSku
	for _, s := range o.Shipments {
		skus = append(skus, s.Skus...)
	}
	return skus
}

// AllSkus returns every sku of the order, roots before their constituents
func (o *Order) AllSkus() []*OrderSku {
	var skus []*OrderSku
	var walk func(list []*OrderSku)
	walk = func(list []*OrderSku) {
		for _, s := range list {
			skus = append(skus, s)
			walk(s.Children)
		}
	}
	walk(o.RootSkus())
	return skus
}

// Subtotal returns the sum of shipment subtotals before discounts
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range o.Shipments {
		total = total.Add(s.Subtotal())
	}
	return total
}

// Total returns the amount charged for the order
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range o.Shipments {
		total = total.Add(s.Total())
	}
	return total
}

// MarkFailed moves the order to FAILED. The order number stays allocated.
func (o *Order) MarkFailed() error {
	if o.Status == OrderStatusFailed {
		return nil
	}
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot fail an order in status "+o.Status.String())
	}
	o.Status = OrderStatusFailed
	o.Touch()
	o.IncrementVersion()
	return nil
}

// MarkCreated moves an in-progress order to CREATED once checkout committed it
func (o *Order) MarkCreated() error {
	if o.Status != OrderStatusInProgress {
		return shared.NewDomainError("INVALID_STATE", "Only in-progress orders can be created, got "+o.Status.String())
	}
	o.Status = OrderStatusCreated
	o.Touch()
	o.IncrementVersion()
	return nil
}
