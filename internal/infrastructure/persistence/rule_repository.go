package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormRuleRepository implements order.RuleService over the promotion_rules table
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindRule returns shared.ErrNotFound for a deleted rule
func (r *GormRuleRepository) FindRule(ctx context.Context, ruleID int64) (*order.Rule, error) {
	var model models.RuleModel
	if err := r.db.WithContext(ctx).Where("id = ?", ruleID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a rule
func (r *GormRuleRepository) Save(ctx context.Context, rule *order.Rule) error {
	model := models.RuleModel{
		ID:          rule.ID,
		Name:        rule.Name,
		Code:        rule.Code,
		Description: rule.Description,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	rule.ID = model.ID
	return nil
}

// Delete removes a rule; orders that applied it keep their snapshot
func (r *GormRuleRepository) Delete(ctx context.Context, ruleID int64) error {
	return r.db.WithContext(ctx).Delete(&models.RuleModel{}, ruleID).Error
}
