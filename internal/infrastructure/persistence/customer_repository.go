package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements order.CustomerService using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByGUID finds a customer by GUID
func (r *GormCustomerRepository) FindByGUID(ctx context.Context, guid string) (*cart.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update upserts the customer, keeping the original creation time
func (r *GormCustomerRepository) Update(ctx context.Context, customer *cart.Customer) (*cart.Customer, error) {
	if customer == nil || customer.GUID == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Customer GUID is required")
	}

	var model models.CustomerModel
	model.FromDomain(customer)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "first_name", "last_name", "phone_number", "anonymous", "updated_at",
		}),
	}).Create(&model).Error
	if err != nil {
		return nil, fmt.Errorf("update customer %s: %w", customer.GUID, err)
	}
	return model.ToDomain(), nil
}
