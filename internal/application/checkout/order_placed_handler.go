package checkout

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderPlacedHandler handles OrderPlacedEvent. It writes an audit log line
// for each placed order and forwards a summary to the fulfillment listener
// when one is set.
type OrderPlacedHandler struct {
	logger   *zap.Logger
	listener FulfillmentListener
}

// FulfillmentListener is told about orders that are ready to fulfil
type FulfillmentListener interface {
	OrderReady(ctx context.Context, summary PlacedOrderSummary) error
}

// PlacedOrderSummary is what fulfillment needs to pick up a placed order
type PlacedOrderSummary struct {
	OrderNumber   string `json:"order_number"`
	StoreCode     string `json:"store_code"`
	CustomerGUID  string `json:"customer_guid"`
	Currency      string `json:"currency"`
	Total         string `json:"total"`
	ShipmentCount int    `json:"shipment_count"`
}

// NewOrderPlacedHandler creates a new handler for order placed events
func NewOrderPlacedHandler(logger *zap.Logger) *OrderPlacedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderPlacedHandler{logger: logger}
}

// WithListener sets the fulfillment listener
func (h *OrderPlacedHandler) WithListener(listener FulfillmentListener) *OrderPlacedHandler {
	h.listener = listener
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPlacedHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced}
}

// Handle processes an OrderPlacedEvent
func (h *OrderPlacedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*order.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderPlaced, event.EventType())
	}

	total, err := valueobject.NewMoney(placed.Total, placed.Currency)
	if err != nil {
		return fmt.Errorf("order %s: %w", placed.OrderNumber, err)
	}

	h.logger.Info("order placed",
		zap.String("order_number", placed.OrderNumber),
		zap.String("store_code", placed.StoreCode),
		zap.String("customer_guid", placed.CustomerGUID),
		zap.String("total", total.StringFixed(valueobject.MoneyScale)),
		zap.String("currency", string(placed.Currency)),
		zap.Int("shipments", placed.ShipmentCount),
		zap.Int("skus", placed.SkuCount),
	)

	if h.listener == nil {
		return nil
	}
	summary := PlacedOrderSummary{
		OrderNumber:   placed.OrderNumber,
		StoreCode:     placed.StoreCode,
		CustomerGUID:  placed.CustomerGUID,
		Currency:      string(placed.Currency),
		Total:         total.StringFixed(valueobject.MoneyScale),
		ShipmentCount: placed.ShipmentCount,
	}
	if err := h.listener.OrderReady(ctx, summary); err != nil {
		return fmt.Errorf("notify fulfillment of order %s: %w", placed.OrderNumber, err)
	}
	return nil
}

// Ensure OrderPlacedHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderPlacedHandler)(nil)
