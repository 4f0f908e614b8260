package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// DefaultSequenceName is the counter used for storefront order numbers
const DefaultSequenceName = "order_number"

// SequenceOrderNumberGenerator hands out order numbers from a counter row.
// It is the fallback when Redis is not configured.
type SequenceOrderNumberGenerator struct {
	db     *gorm.DB
	name   string
	format order.NumberFormat
}

// NewSequenceOrderNumberGenerator creates a generator over the named counter
func NewSequenceOrderNumberGenerator(db *gorm.DB, name string, format order.NumberFormat) *SequenceOrderNumberGenerator {
	if name == "" {
		name = DefaultSequenceName
	}
	return &SequenceOrderNumberGenerator{db: db, name: name, format: format}
}

// Next increments the counter and formats the new value
func (g *SequenceOrderNumberGenerator) Next(ctx context.Context) (string, error) {
	var seq models.OrderNumberSequenceModel
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		initial := models.OrderNumberSequenceModel{Name: g.name, Value: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      gorm.Expr("order_number_sequences.value + 1"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&initial).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", g.name).First(&seq).Error
	})
	if err != nil {
		return "", fmt.Errorf("next value of sequence %s: %w", g.name, err)
	}
	return g.format.Format(seq.Value)
}

// Current returns the last value handed out, or 0 when the counter is unused
func (g *SequenceOrderNumberGenerator) Current(ctx context.Context) (int64, error) {
	var seq models.OrderNumberSequenceModel
	err := g.db.WithContext(ctx).Where("name = ?", g.name).Limit(1).Find(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", g.name, err)
	}
	return seq.Value, nil
}

// Advance raises the counter to at least floor and never lowers it, so numbers
// issued elsewhere are skipped when this generator takes over.
func (g *SequenceOrderNumberGenerator) Advance(ctx context.Context, floor int64) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		initial := models.OrderNumberSequenceModel{Name: g.name, Value: floor}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&initial).Error; err != nil {
			return err
		}
		return tx.Model(&models.OrderNumberSequenceModel{}).
			Where("name = ? AND value < ?", g.name, floor).
			Update("value", floor).Error
	})
	if err != nil {
		return fmt.Errorf("advance sequence %s to %d: %w", g.name, floor, err)
	}
	return nil
}
