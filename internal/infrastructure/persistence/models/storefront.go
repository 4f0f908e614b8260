package models

import (
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
)

// RuleModel is a promotion rule row maintained by the rule engine
type RuleModel struct {
	ID          int64     `gorm:"primary_key;autoIncrement"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Code        string    `gorm:"type:varchar(100);not null;index"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RuleModel) TableName() string {
	return "promotion_rules"
}

// ToDomain converts the persistence model to a domain Rule
func (m *RuleModel) ToDomain() *order.Rule {
	return &order.Rule{
		ID:          m.ID,
		Name:        m.Name,
		Code:        m.Code,
		Description: m.Description,
	}
}

// CartOrderModel links a shopping cart to its cart order
type CartOrderModel struct {
	GUID             string    `gorm:"type:varchar(64);primary_key"`
	ShoppingCartGUID string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartOrderModel) TableName() string {
	return "cart_orders"
}

// CustomerModel is the storefront customer row
type CustomerModel struct {
	GUID        string    `gorm:"type:varchar(64);primary_key"`
	Email       string    `gorm:"type:varchar(255);index"`
	FirstName   string    `gorm:"type:varchar(100)"`
	LastName    string    `gorm:"type:varchar(100)"`
	PhoneNumber string    `gorm:"type:varchar(50)"`
	Anonymous   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a cart Customer
func (m *CustomerModel) ToDomain() *cart.Customer {
	return &cart.Customer{
		GUID:        m.GUID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		PhoneNumber: m.PhoneNumber,
		Anonymous:   m.Anonymous,
	}
}

// FromDomain populates the persistence model from a cart Customer
func (m *CustomerModel) FromDomain(c *cart.Customer) {
	m.GUID = c.GUID
	m.Email = c.Email
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.PhoneNumber = c.PhoneNumber
	m.Anonymous = c.Anonymous
}

// OrderNumberSequenceModel holds the last issued value of a named counter
type OrderNumberSequenceModel struct {
	Name      string    `gorm:"type:varchar(100);primary_key"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderNumberSequenceModel) TableName() string {
	return "order_number_sequences"
}
