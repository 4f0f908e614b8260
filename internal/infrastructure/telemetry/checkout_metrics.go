package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MeterName is the instrumentation scope of the checkout instruments.
const MeterName = "storefront-backend/checkout"

// CheckoutOutcome labels how a checkout run ended.
type CheckoutOutcome string

const (
	CheckoutOutcomeCompleted  CheckoutOutcome = "completed"
	CheckoutOutcomeRejected   CheckoutOutcome = "rejected"
	CheckoutOutcomeRolledBack CheckoutOutcome = "rolled_back"
)

// CheckoutMetrics records checkout runs, rollbacks and placed order amounts.
// A nil *CheckoutMetrics records nothing.
type CheckoutMetrics struct {
	checkouts     *Counter
	duration      *Histogram
	rollbacks     *Counter
	rollbackSteps *Histogram
	orderAmount   *Histogram
	logger        *zap.Logger
}

// NewCheckoutMetrics registers the checkout instruments on meter.
func NewCheckoutMetrics(meter metric.Meter, logger *zap.Logger) (*CheckoutMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	checkouts, err := NewCounter(meter, "checkout_runs_total", "Checkout runs by outcome", "{checkout}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "checkout_duration_seconds",
		Description: "Wall time of a checkout run",
		Unit:        "s",
		Boundaries:  CheckoutDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	rollbacks, err := NewCounter(meter, "checkout_rollbacks_total", "Checkout runs that rolled back reversible actions", "{rollback}")
	if err != nil {
		return nil, err
	}
	rollbackSteps, err := NewHistogram(meter, HistogramOpts{
		Name:        "checkout_rollback_steps",
		Description: "Reversible actions undone per rollback",
		Unit:        "{action}",
		Boundaries:  []float64{0, 1, 2, 3, 5, 8},
	})
	if err != nil {
		return nil, err
	}
	orderAmount, err := NewHistogram(meter, HistogramOpts{
		Name:        "order_amount",
		Description: "Total of placed orders in major currency units",
		Unit:        "{currency}",
		Boundaries:  OrderAmountBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{
		checkouts:     checkouts,
		duration:      duration,
		rollbacks:     rollbacks,
		rollbackSteps: rollbackSteps,
		orderAmount:   orderAmount,
		logger:        logger,
	}, nil
}

func (m *CheckoutMetrics) RecordCheckout(ctx context.Context, outcome CheckoutOutcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	attr := AttrCheckoutOutcome.String(string(outcome))
	m.checkouts.Inc(ctx, attr)
	m.duration.RecordDuration(ctx, elapsed, attr)
}

func (m *CheckoutMetrics) RecordRollback(ctx context.Context, steps int) {
	if m == nil {
		return
	}
	m.rollbacks.Inc(ctx)
	m.rollbackSteps.Record(ctx, float64(steps))
}

// RecordOrderAmount records a placed order total in major currency units.
func (m *CheckoutMetrics) RecordOrderAmount(ctx context.Context, currency string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	value, exact := amount.Float64()
	if !exact {
		m.logger.Debug("order amount rounded for metrics", zap.String("amount", amount.String()))
	}
	m.orderAmount.Record(ctx, value, AttrCurrency.String(currency))
}
