package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db      *gorm.DB
	numbers order.NumberGenerator
}

// NewGormOrderRepository creates a new GormOrderRepository. numbers assigns
// order numbers in CreateEmptyOrder.
func NewGormOrderRepository(db *gorm.DB, numbers order.NumberGenerator) *GormOrderRepository {
	return &GormOrderRepository{db: db, numbers: numbers}
}

// CreateEmptyOrder assigns the next order number and inserts the order shell.
// A number handed out here is never returned to the generator, even when the
// insert fails.
func (r *GormOrderRepository) CreateEmptyOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	if o == nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Order is required")
	}
	if o.OrderNumber == "" {
		if r.numbers == nil {
			return nil, fmt.Errorf("create order: no order number generator configured")
		}
		number, err := r.numbers.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("allocate order number: %w", err)
		}
		o.OrderNumber = number
	}
	assignIdentities(o)

	model := models.OrderModelFromDomain(o)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return nil, fmt.Errorf("create order %s: %w", o.OrderNumber, err)
	}
	return o, nil
}

// Save writes the order and replaces its shipments, skus and payments
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) (*order.Order, error) {
	if o == nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Order is required")
	}
	assignIdentities(o)
	o.Touch()

	model := models.OrderModelFromDomain(o)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", model.ID).Delete(&models.OrderSkuModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", model.ID).Delete(&models.OrderShipmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", model.ID).Delete(&models.OrderPaymentModel{}).Error; err != nil {
			return err
		}

		var skus []models.OrderSkuModel
		for i := range model.Shipments {
			if err := tx.Omit(clause.Associations).Create(&model.Shipments[i]).Error; err != nil {
				return err
			}
			skus = append(skus, model.Shipments[i].Skus...)
		}
		if len(skus) > 0 {
			if err := tx.Create(&skus).Error; err != nil {
				return err
			}
		}
		if len(model.Payments) > 0 {
			if err := tx.Create(&model.Payments).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save order %s: %w", o.OrderNumber, err)
	}
	return o, nil
}

// FindByOrderNumber loads an order with its shipments, sku trees and payments
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Shipments.Skus").
		Preload("Payments").
		Where("order_number = ?", orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// assignIdentities gives new shipments and skus the identifiers their rows are keyed by
func assignIdentities(o *order.Order) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		now := time.Now()
		o.CreatedAt = now
		o.UpdatedAt = now
	}
	for _, s := range o.Shipments {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.OrderID = o.ID
	}
	for _, sku := range o.AllSkus() {
		if sku.GUID == "" {
			sku.GUID = uuid.NewString()
		}
	}
}
