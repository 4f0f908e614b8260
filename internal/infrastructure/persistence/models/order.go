package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderModel is the persistence model for the Order aggregate root.
// The customer is stored as a snapshot taken at checkout.
type OrderModel struct {
	AggregateModel
	OrderNumber       string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status            order.OrderStatus    `gorm:"type:varchar(30);not null;default:'IN_PROGRESS';index"`
	CreatedDate       time.Time            `gorm:"not null"`
	IPAddress         string               `gorm:"type:varchar(64)"`
	Currency          string               `gorm:"type:varchar(3);not null"`
	Locale            string               `gorm:"type:varchar(35)"`
	StoreCode         string               `gorm:"type:varchar(50);not null;index"`
	CustomerGUID      string               `gorm:"type:varchar(64);index"`
	CustomerEmail     string               `gorm:"type:varchar(255)"`
	CustomerFirstName string               `gorm:"type:varchar(100)"`
	CustomerLastName  string               `gorm:"type:varchar(100)"`
	CustomerPhone     string               `gorm:"type:varchar(50)"`
	CustomerAnonymous bool                 `gorm:"not null;default:false"`
	ExchangeOrder     bool                 `gorm:"not null;default:false"`
	ExchangeGUID      string               `gorm:"type:varchar(64)"`
	ExchangeRMACode   string               `gorm:"type:varchar(50)"`
	CartOrderGUID     string               `gorm:"type:varchar(64);index"`
	CMUserGUID        string               `gorm:"type:varchar(64)"`
	AppliedRules      []AppliedRuleRecord  `gorm:"type:text;serializer:json"`
	BillingAddress    *valueobject.Address `gorm:"type:text"`
	Shipments         []OrderShipmentModel `gorm:"foreignKey:OrderID;references:ID"`
	Payments          []OrderPaymentModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// AppliedRuleRecord is the JSON form of an applied promotion rule
type AppliedRuleRecord struct {
	RuleID      int64  `json:"rule_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// ToDomain converts the persistence model to a domain Order, rebuilding the
// bundle tree of every shipment.
func (m *OrderModel) ToDomain() *order.Order {
	locale, err := language.Parse(m.Locale)
	if err != nil {
		locale = language.Und
	}

	o := &order.Order{
		OrderNumber:    m.OrderNumber,
		Status:         m.Status,
		CreatedDate:    m.CreatedDate,
		IPAddress:      m.IPAddress,
		Currency:       valueobject.Currency(m.Currency),
		Locale:         locale,
		StoreCode:      m.StoreCode,
		ExchangeOrder:  m.ExchangeOrder,
		CartOrderGUID:  m.CartOrderGUID,
		CMUserGUID:     m.CMUserGUID,
		BillingAddress: m.BillingAddress,
	}
	m.PopulateAggregateRoot(&o.BaseAggregateRoot)

	if m.CustomerGUID != "" {
		o.Customer = &cart.Customer{
			GUID:        m.CustomerGUID,
			Email:       m.CustomerEmail,
			FirstName:   m.CustomerFirstName,
			LastName:    m.CustomerLastName,
			PhoneNumber: m.CustomerPhone,
			Anonymous:   m.CustomerAnonymous,
		}
	}
	if m.ExchangeGUID != "" || m.ExchangeRMACode != "" {
		o.Exchange = &order.OrderReturn{GUID: m.ExchangeGUID, RMACode: m.ExchangeRMACode}
	}

	for _, r := range m.AppliedRules {
		o.AppliedRules = append(o.AppliedRules, order.AppliedRule{
			RuleID:      r.RuleID,
			Name:        r.Name,
			Code:        r.Code,
			Description: r.Description,
		})
	}

	shipments := append([]OrderShipmentModel(nil), m.Shipments...)
	sort.SliceStable(shipments, func(i, j int) bool { return shipments[i].Position < shipments[j].Position })
	for i := range shipments {
		o.Shipments = append(o.Shipments, shipments[i].ToDomain())
	}

	payments := append([]OrderPaymentModel(nil), m.Payments...)
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].Position < payments[j].Position })
	for i := range payments {
		o.Payments = append(o.Payments, payments[i].ToDomain())
	}
	return o
}

// FromDomain populates the persistence model from a domain Order.
// Shipments, skus and payments must already carry their identifiers.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.Status = o.Status
	m.CreatedDate = o.CreatedDate
	m.IPAddress = o.IPAddress
	m.Currency = string(o.Currency)
	m.Locale = ""
	if o.Locale != language.Und {
		m.Locale = o.Locale.String()
	}
	m.StoreCode = o.StoreCode
	m.ExchangeOrder = o.ExchangeOrder
	m.CartOrderGUID = o.CartOrderGUID
	m.CMUserGUID = o.CMUserGUID
	m.BillingAddress = o.BillingAddress

	if c := o.Customer; c != nil {
		m.CustomerGUID = c.GUID
		m.CustomerEmail = c.Email
		m.CustomerFirstName = c.FirstName
		m.CustomerLastName = c.LastName
		m.CustomerPhone = c.PhoneNumber
		m.CustomerAnonymous = c.Anonymous
	}
	if e := o.Exchange; e != nil {
		m.ExchangeGUID = e.GUID
		m.ExchangeRMACode = e.RMACode
	}

	m.AppliedRules = make([]AppliedRuleRecord, len(o.AppliedRules))
	for i, r := range o.AppliedRules {
		m.AppliedRules[i] = AppliedRuleRecord{
			RuleID:      r.RuleID,
			Name:        r.Name,
			Code:        r.Code,
			Description: r.Description,
		}
	}

	m.Shipments = make([]OrderShipmentModel, len(o.Shipments))
	for i, s := range o.Shipments {
		m.Shipments[i] = *OrderShipmentModelFromDomain(o.ID, i, s)
	}
	m.Payments = make([]OrderPaymentModel, len(o.Payments))
	for i, p := range o.Payments {
		m.Payments[i] = *OrderPaymentModelFromDomain(o.ID, i, p)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderShipmentModel is the persistence model for OrderShipment
type OrderShipmentModel struct {
	ID                       uuid.UUID            `gorm:"type:uuid;primary_key"`
	OrderID                  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Position                 int                  `gorm:"not null;default:0"`
	Type                     order.ShipmentType   `gorm:"type:varchar(20);not null"`
	Status                   order.ShipmentStatus `gorm:"type:varchar(30)"`
	CreatedDate              time.Time            `gorm:"not null"`
	SubtotalDiscount         decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	InclusiveTax             bool                 `gorm:"not null;default:false"`
	ShippingAddress          *valueobject.Address `gorm:"type:text"`
	Carrier                  string               `gorm:"type:varchar(100)"`
	ServiceLevel             string               `gorm:"type:varchar(200)"`
	ShippingServiceLevelGUID string               `gorm:"type:varchar(64)"`
	ShippingCost             decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	BeforeTaxShippingCost    decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Skus                     []OrderSkuModel      `gorm:"foreignKey:ShipmentID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderShipmentModel) TableName() string {
	return "order_shipments"
}

// ToDomain converts the shipment and rebuilds its sku tree. Rows are ordered
// by position, which places every parent before its constituents.
func (m *OrderShipmentModel) ToDomain() *order.OrderShipment {
	s := &order.OrderShipment{
		ID:                       m.ID,
		OrderID:                  m.OrderID,
		Type:                     m.Type,
		Status:                   m.Status,
		CreatedDate:              m.CreatedDate,
		SubtotalDiscount:         m.SubtotalDiscount,
		InclusiveTax:             m.InclusiveTax,
		ShippingAddress:          m.ShippingAddress,
		Carrier:                  m.Carrier,
		ServiceLevel:             m.ServiceLevel,
		ShippingServiceLevelGUID: m.ShippingServiceLevelGUID,
		ShippingCost:             m.ShippingCost,
		BeforeTaxShippingCost:    m.BeforeTaxShippingCost,
	}

	rows := append([]OrderSkuModel(nil), m.Skus...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	byGUID := make(map[string]*order.OrderSku, len(rows))
	for i := range rows {
		sku := rows[i].ToDomain()
		byGUID[sku.GUID] = sku
		if rows[i].ParentGUID == nil {
			s.Skus = append(s.Skus, sku)
			continue
		}
		parent, ok := byGUID[*rows[i].ParentGUID]
		if !ok {
			// orphaned constituent, surface it as a root rather than drop it
			s.Skus = append(s.Skus, sku)
			continue
		}
		parent.Children = append(parent.Children, sku)
	}
	return s
}

// OrderShipmentModelFromDomain flattens a shipment and its sku tree
func OrderShipmentModelFromDomain(orderID uuid.UUID, position int, s *order.OrderShipment) *OrderShipmentModel {
	m := &OrderShipmentModel{
		ID:                       s.ID,
		OrderID:                  orderID,
		Position:                 position,
		Type:                     s.Type,
		Status:                   s.Status,
		CreatedDate:              s.CreatedDate,
		SubtotalDiscount:         s.SubtotalDiscount,
		InclusiveTax:             s.InclusiveTax,
		ShippingAddress:          s.ShippingAddress,
		Carrier:                  s.Carrier,
		ServiceLevel:             s.ServiceLevel,
		ShippingServiceLevelGUID: s.ShippingServiceLevelGUID,
		ShippingCost:             s.ShippingCost,
		BeforeTaxShippingCost:    s.BeforeTaxShippingCost,
	}

	var walk func(parent *string, skus []*order.OrderSku)
	walk = func(parent *string, skus []*order.OrderSku) {
		for _, sku := range skus {
			row := OrderSkuModelFromDomain(sku)
			row.OrderID = orderID
			row.ShipmentID = s.ID
			row.ParentGUID = parent
			row.Position = len(m.Skus)
			m.Skus = append(m.Skus, *row)
			guid := sku.GUID
			walk(&guid, sku.Children)
		}
	}
	walk(nil, s.Skus)
	return m
}

// OrderSkuModel is the persistence model for one OrderSku. Bundle
// constituents point at their parent through ParentGUID.
type OrderSkuModel struct {
	GUID              string            `gorm:"type:varchar(64);primary_key"`
	OrderID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	ShipmentID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	ParentGUID        *string           `gorm:"type:varchar(64);index"`
	Position          int               `gorm:"not null;default:0"`
	ShoppingItemGUID  string            `gorm:"type:varchar(64)"`
	SkuCode           string            `gorm:"type:varchar(100);not null;index"`
	ProductCode       string            `gorm:"type:varchar(100)"`
	ProductTypeName   string            `gorm:"type:varchar(100)"`
	DisplayName       string            `gorm:"type:varchar(255)"`
	DisplaySkuOptions string            `gorm:"type:varchar(500)"`
	TaxCode           string            `gorm:"type:varchar(50)"`
	Image             string            `gorm:"type:varchar(500)"`
	DigitalAsset      bool              `gorm:"not null;default:false"`
	Shippable         bool              `gorm:"not null;default:false"`
	Ordering          int               `gorm:"not null;default:0"`
	CreatedDate       time.Time         `gorm:"not null"`
	Quantity          int               `gorm:"not null"`
	UnitPrice         decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Discount          decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Tax               decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	AllocatedQuantity int               `gorm:"not null;default:0"`
	Fields            map[string]string `gorm:"type:text;serializer:json"`
}

// TableName returns the table name for GORM
func (OrderSkuModel) TableName() string {
	return "order_skus"
}

// ToDomain converts the row to a domain OrderSku without children
func (m *OrderSkuModel) ToDomain() *order.OrderSku {
	return &order.OrderSku{
		GUID:              m.GUID,
		ShoppingItemGUID:  m.ShoppingItemGUID,
		SkuCode:           m.SkuCode,
		ProductCode:       m.ProductCode,
		ProductTypeName:   m.ProductTypeName,
		DisplayName:       m.DisplayName,
		DisplaySkuOptions: m.DisplaySkuOptions,
		TaxCode:           m.TaxCode,
		Image:             m.Image,
		DigitalAsset:      m.DigitalAsset,
		Shippable:         m.Shippable,
		Ordering:          m.Ordering,
		CreatedDate:       m.CreatedDate,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		Discount:          m.Discount,
		Tax:               m.Tax,
		AllocatedQuantity: m.AllocatedQuantity,
		Fields:            m.Fields,
	}
}

// OrderSkuModelFromDomain maps the sku's own columns; tree placement is set by the caller
func OrderSkuModelFromDomain(s *order.OrderSku) *OrderSkuModel {
	return &OrderSkuModel{
		GUID:              s.GUID,
		ShoppingItemGUID:  s.ShoppingItemGUID,
		SkuCode:           s.SkuCode,
		ProductCode:       s.ProductCode,
		ProductTypeName:   s.ProductTypeName,
		DisplayName:       s.DisplayName,
		DisplaySkuOptions: s.DisplaySkuOptions,
		TaxCode:           s.TaxCode,
		Image:             s.Image,
		DigitalAsset:      s.DigitalAsset,
		Shippable:         s.Shippable,
		Ordering:          s.Ordering,
		CreatedDate:       s.CreatedDate,
		Quantity:          s.Quantity,
		UnitPrice:         s.UnitPrice,
		Discount:          s.Discount,
		Tax:               s.Tax,
		AllocatedQuantity: s.AllocatedQuantity,
		Fields:            s.Fields,
	}
}

// OrderPaymentModel is the persistence model for OrderPayment
type OrderPaymentModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position          int             `gorm:"not null;default:0"`
	Method            string          `gorm:"type:varchar(50);not null"`
	GatewayToken      string          `gorm:"type:varchar(255)"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency          string          `gorm:"type:varchar(3)"`
	AuthorizationCode string          `gorm:"type:varchar(100)"`
	CreatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderPaymentModel) TableName() string {
	return "order_payments"
}

// ToDomain converts the persistence model to a domain OrderPayment
func (m *OrderPaymentModel) ToDomain() *order.OrderPayment {
	return &order.OrderPayment{
		Method:            m.Method,
		GatewayToken:      m.GatewayToken,
		Amount:            m.Amount,
		Currency:          valueobject.Currency(m.Currency),
		AuthorizationCode: m.AuthorizationCode,
	}
}

// OrderPaymentModelFromDomain creates a payment row. Payments have no domain
// identity, so every save writes fresh rows.
func OrderPaymentModelFromDomain(orderID uuid.UUID, position int, p *order.OrderPayment) *OrderPaymentModel {
	return &OrderPaymentModel{
		ID:                uuid.New(),
		OrderID:           orderID,
		Position:          position,
		Method:            p.Method,
		GatewayToken:      p.GatewayToken,
		Amount:            p.Amount,
		Currency:          string(p.Currency),
		AuthorizationCode: p.AuthorizationCode,
	}
}
