package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Event type constants
const (
	EventTypeOrderPlaced = "OrderPlaced"
)

// OrderPlacedEvent is raised once checkout committed an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID            `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	CustomerGUID  string               `json:"customer_guid"`
	CustomerEmail string               `json:"customer_email,omitempty"`
	StoreCode     string               `json:"store_code"`
	Currency      valueobject.Currency `json:"currency"`
	Total         decimal.Decimal      `json:"total"`
	ShipmentCount int                  `json:"shipment_count"`
	SkuCount      int                  `json:"sku_count"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	e := &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		StoreCode:       o.StoreCode,
		Currency:        o.Currency,
		Total:           o.Total(),
		ShipmentCount:   len(o.Shipments),
		SkuCount:        len(o.AllSkus()),
	}
	if o.Customer != nil {
		e.CustomerGUID = o.Customer.GUID
		e.CustomerEmail = o.Customer.Email
	}
	return e
}
