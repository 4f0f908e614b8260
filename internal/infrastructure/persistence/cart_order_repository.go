package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormCartOrderRepository implements order.CartOrderService
type GormCartOrderRepository struct {
	db *gorm.DB
}

// NewGormCartOrderRepository creates a new GormCartOrderRepository
func NewGormCartOrderRepository(db *gorm.DB) *GormCartOrderRepository {
	return &GormCartOrderRepository{db: db}
}

// FindCartOrderGUID returns "" when the cart has no cart order
func (r *GormCartOrderRepository) FindCartOrderGUID(ctx context.Context, cartGUID string) (string, error) {
	var model models.CartOrderModel
	err := r.db.WithContext(ctx).Where("shopping_cart_guid = ?", cartGUID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find cart order for cart %s: %w", cartGUID, err)
	}
	return model.GUID, nil
}

// Create links a new cart order to cartGUID and returns its GUID
func (r *GormCartOrderRepository) Create(ctx context.Context, cartGUID string) (string, error) {
	model := models.CartOrderModel{GUID: uuid.NewString(), ShoppingCartGUID: cartGUID}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", fmt.Errorf("create cart order for cart %s: %w", cartGUID, err)
	}
	return model.GUID, nil
}
