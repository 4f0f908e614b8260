package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ShipmentType classifies how an order sku is fulfilled
type ShipmentType string

const (
	ShipmentTypePhysical   ShipmentType = "PHYSICAL"
	ShipmentTypeElectronic ShipmentType = "ELECTRONIC"
	ShipmentTypeService    ShipmentType = "SERVICE"
)

// ShipmentStatus represents the fulfilment status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusInventoryAssigned ShipmentStatus = "INVENTORY_ASSIGNED"
	ShipmentStatusAwaitingInventory ShipmentStatus = "AWAITING_INVENTORY"
	ShipmentStatusOnHold            ShipmentStatus = "ONHOLD"
	ShipmentStatusReleased          ShipmentStatus = "RELEASED"
	ShipmentStatusShipped           ShipmentStatus = "SHIPPED"
)

// OrderShipment groups root skus fulfilled together
type OrderShipment struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	Type             ShipmentType
	Status           ShipmentStatus
	CreatedDate      time.Time
	Skus             []*OrderSku
	SubtotalDiscount decimal.Decimal
	InclusiveTax     bool

	// physical shipments only
	ShippingAddress          *valueobject.Address
	Carrier                  string
	ServiceLevel             string
	ShippingServiceLevelGUID string
	ShippingCost             decimal.Decimal
	BeforeTaxShippingCost    decimal.Decimal
}

// NewOrderShipment creates an empty shipment of the given type
func NewOrderShipment(t ShipmentType, createdDate time.Time) *OrderShipment {
	return &OrderShipment{
		ID:               uuid.New(),
		Type:             t,
		CreatedDate:      createdDate,
		SubtotalDiscount: decimal.Zero,
	}
}

// AddSku adds a root sku to the shipment
func (s *OrderShipment) AddSku(sku *OrderSku) {
	s.Skus = append(s.Skus, sku)
}

// Subtotal returns the sum of root sku totals
func (s *OrderShipment) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, sku := range s.Skus {
		total = total.Add(sku.Total())
	}
	return total
}

// Total returns subtotal minus discount plus shipping cost
func (s *OrderShipment) Total() decimal.Decimal {
	return s.Subtotal().Sub(s.SubtotalDiscount).Add(s.ShippingCost)
}
