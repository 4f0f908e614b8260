package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBTracingConfig controls the otelgorm plugin and slow query detection.
type DBTracingConfig struct {
	Enabled            bool
	LogFullSQL         bool // include bound variables in db.statement
	SlowQueryThreshold time.Duration
	DBSystem           string
}

func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
		DBSystem:           "postgresql",
	}
}

// DBTracingPlugin registers otelgorm on a *gorm.DB and annotates the spans it
// creates with row counts, table names, errors and slow query events.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultDBTracingConfig().SlowQueryThreshold
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs otelgorm and the timing callbacks. It is a no-op when
// tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThreshold),
	)
	return nil
}

// registerCallbacks places the after hooks ahead of otelgorm's own after
// hooks so the span is still recording when it is annotated.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("telemetry:before_create", markQueryStart) },
		func() error { return cb.Create().After("gorm:create").Before("otel:after:create").Register("telemetry:after_create", p.afterQuery) },
		func() error { return cb.Query().Before("gorm:query").Register("telemetry:before_query", markQueryStart) },
		func() error { return cb.Query().After("gorm:query").Before("otel:after:query").Register("telemetry:after_query", p.afterQuery) },
		func() error { return cb.Update().Before("gorm:update").Register("telemetry:before_update", markQueryStart) },
		func() error { return cb.Update().After("gorm:update").Before("otel:after:update").Register("telemetry:after_update", p.afterQuery) },
		func() error { return cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", markQueryStart) },
		func() error { return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("telemetry:after_delete", p.afterQuery) },
		func() error { return cb.Row().Before("gorm:row").Register("telemetry:before_row", markQueryStart) },
		func() error { return cb.Row().After("gorm:row").Before("otel:after:row").Register("telemetry:after_row", p.afterQuery) },
		func() error { return cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", markQueryStart) },
		func() error { return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("telemetry:after_raw", p.afterQuery) },
	}
	for _, register := range steps {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThreshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThreshold.Milliseconds()),
		))
		p.logger.Warn("Slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
		)
	}
}
