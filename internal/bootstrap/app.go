// Package bootstrap wires configuration, logging, telemetry, storage and the
// checkout pipeline into a running App.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Collaborators are the storefront services checkout calls out to. A nil
// field leaves out the actions that need it.
type Collaborators struct {
	Inventory          checkout.InventoryChecker
	InventoryAllocator order.InventoryAllocator
	Payments           checkout.PaymentGateway
	GiftCertificates   checkout.GiftCertificateService
	Notifier           checkout.Notifier
	ShippingLevels     checkout.ShippingLevelService
	Taxes              checkout.TaxCalculator
	Fulfillment        checkout.FulfillmentListener
}

// App holds the wired components. Close releases them in reverse order of
// construction.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *persistence.Database
	Redis    *redis.Client
	Bus      *event.InMemoryEventBus
	Orders   *persistence.GormOrderRepository
	Numbers  order.NumberGenerator
	Checkout *checkout.CheckoutService

	currency    valueobject.Currency
	idempotency shared.IdempotencyStore
	tracer      *telemetry.TracerProvider
	meter       *telemetry.MeterProvider
	logs        *telemetry.LoggerProvider
	ownsRedis   bool
}

// Option configures New
type Option func(*options)

type options struct {
	collaborators Collaborators
	logger        *zap.Logger
	redis         *redis.Client
}

// WithCollaborators sets the external checkout services
func WithCollaborators(c Collaborators) Option {
	return func(o *options) { o.collaborators = c }
}

// WithLogger uses logger instead of building one from cfg.Log
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRedisClient uses an existing client when cfg.Redis.Enabled is set. The
// App does not close it.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redis = client }
}

// New builds the App. On error everything created so far is released.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (app *App, err error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	if err = app.initTelemetry(ctx, o.logger); err != nil {
		return app, err
	}
	if err = app.initDatabase(); err != nil {
		return app, err
	}
	if err = app.initOrderNumbers(ctx, o.redis); err != nil {
		return app, err
	}
	if err = app.initEvents(ctx, o.collaborators); err != nil {
		return app, err
	}
	if err = app.initCheckout(o.collaborators); err != nil {
		return app, err
	}

	app.Logger.Info("Storefront checkout ready",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("redis", app.Redis != nil),
	)
	return app, nil
}

func (a *App) telemetryConfig() telemetry.Config {
	t := a.Config.Telemetry
	return telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		Insecure:          t.Insecure,
		ServiceName:       t.ServiceName,
		ServiceVersion:    a.Config.App.Version,
		SamplingRatio:     t.SamplingRatio,
		MetricsInterval:   t.MetricsInterval,
		LogsEnabled:       t.LogsEnabled,
	}
}

func (a *App) initTelemetry(ctx context.Context, provided *zap.Logger) error {
	tcfg := a.telemetryConfig()

	var err error
	a.logs, err = telemetry.NewLoggerProvider(ctx, tcfg, nil)
	if err != nil {
		return err
	}

	if provided != nil {
		a.Logger = provided
	} else {
		var extra []zapcore.Core
		if a.logs.IsEnabled() {
			extra = append(extra, telemetry.NewZapOTELCore(tcfg.ServiceName, a.logs, logger.ParseLevel(a.Config.Log.Level)))
		}
		a.Logger, err = logger.New(&logger.Config{
			Level:  a.Config.Log.Level,
			Format: a.Config.Log.Format,
			Output: a.Config.Log.Output,
		}, extra...)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	if a.tracer, err = telemetry.NewTracerProvider(ctx, tcfg, a.Logger); err != nil {
		return err
	}
	if a.meter, err = telemetry.NewMeterProvider(ctx, tcfg, a.Logger); err != nil {
		return err
	}
	return nil
}

func (a *App) initDatabase() error {
	dbSystem := "postgresql"
	if a.Config.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	t := a.Config.Telemetry
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:            t.Enabled && t.DBTraceEnabled,
		LogFullSQL:         t.DBLogFullSQL,
		SlowQueryThreshold: t.DBSlowQueryThresh,
		DBSystem:           dbSystem,
	}, a.Logger)

	db, err := persistence.NewDatabase(&a.Config.Database,
		persistence.WithGormLogger(logger.NewGormLogger(a.Logger, logger.MapGormLogLevel(a.Config.Log.Level))),
		persistence.WithTracing(plugin),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db

	// Postgres schemas come from cmd/migrate; sqlite databases are created in place.
	if a.Config.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to create sqlite schema: %w", err)
		}
	}
	return nil
}

func (a *App) initOrderNumbers(ctx context.Context, provided *redis.Client) error {
	format := order.NumberFormat{
		Prefix: a.Config.Checkout.OrderNumberPrefix,
		Width:  a.Config.Checkout.OrderNumberWidth,
	}

	if !a.Config.Redis.Enabled {
		a.Numbers = persistence.NewSequenceOrderNumberGenerator(a.DB.DB, persistence.DefaultSequenceName, format)
		a.idempotency = cache.NewInMemoryIdempotencyStore()
		return nil
	}

	if provided != nil {
		a.Redis = provided
	} else {
		client, err := cache.NewRedisClient(ctx, a.Config.Redis, a.Logger)
		if err != nil {
			return err
		}
		a.Redis = client
		a.ownsRedis = true
	}
	// the sequence and the Redis counter follow each other so either can take over
	sequence := persistence.NewSequenceOrderNumberGenerator(a.DB.DB, persistence.DefaultSequenceName, format)
	issued, err := sequence.Current(ctx)
	if err != nil {
		return err
	}
	numbers := cache.NewRedisOrderNumberGenerator(a.Redis, a.Config.Checkout.OrderNumberKey, format,
		cache.WithCounterMirror(sequence),
	)
	if _, err := numbers.Seed(ctx, issued); err != nil {
		return err
	}
	a.Numbers = numbers
	a.idempotency = cache.NewRedisIdempotencyStore(a.Redis, cache.DefaultProcessedEventPrefix)
	return nil
}

func (a *App) initEvents(ctx context.Context, c Collaborators) error {
	a.Bus = event.NewInMemoryEventBus(a.Logger)

	placed := checkout.NewOrderPlacedHandler(a.Logger)
	if c.Fulfillment != nil {
		placed.WithListener(c.Fulfillment)
	}
	a.Bus.Subscribe(event.NewIdempotentHandler(placed, a.idempotency, a.Logger,
		event.WithKeyFunc(event.OrderPlacedKey),
	))
	return a.Bus.Start(ctx)
}

func (a *App) initCheckout(c Collaborators) error {
	var err error
	if a.currency, err = valueobject.ParseCurrency(a.Config.Checkout.DefaultCurrency); err != nil {
		return err
	}

	metrics, err := telemetry.NewCheckoutMetrics(a.meter.Meter(telemetry.TracerName), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to register checkout metrics: %w", err)
	}

	a.Orders = persistence.NewGormOrderRepository(a.DB.DB, a.Numbers)

	factoryOpts := []order.OrderFactoryOption{
		order.WithRuleService(persistence.NewGormRuleRepository(a.DB.DB)),
		order.WithCartOrderService(persistence.NewGormCartOrderRepository(a.DB.DB)),
		order.WithCustomerService(persistence.NewGormCustomerRepository(a.DB.DB)),
		order.WithOrderFactoryLogger(a.Logger),
	}
	if c.InventoryAllocator != nil {
		factoryOpts = append(factoryOpts, order.WithInventoryAllocator(c.InventoryAllocator))
	}
	factory := order.NewOrderFactory(a.Orders, factoryOpts...)

	setup := []checkout.SetupAction{checkout.NewValidateCartAction()}
	if c.Inventory != nil {
		setup = append(setup, checkout.NewStockCheckerAction(c.Inventory))
	}

	reversible := []checkout.ReversibleAction{checkout.NewCreateOrderAction(factory, a.Orders, a.Logger)}
	if c.Payments != nil {
		reversible = append(reversible, checkout.NewAuthorizePaymentAction(c.Payments))
	}
	if c.GiftCertificates != nil {
		reversible = append(reversible, checkout.NewCreateGiftCertificatesAction(c.GiftCertificates, a.Logger))
	}

	finalize := []checkout.FinalizeAction{
		checkout.NewReleaseOrderAction(a.Orders),
		checkout.NewPublishOrderPlacedAction(a.Bus),
	}
	if c.Notifier != nil {
		finalize = append(finalize, checkout.NewSendOrderConfirmationAction(c.Notifier))
	}

	serviceOpts := []checkout.Option{
		checkout.WithSetupActions(setup...),
		checkout.WithReversibleActions(reversible...),
		checkout.WithFinalizeActions(finalize...),
		checkout.WithCheckoutMetrics(metrics),
		checkout.WithLogger(a.Logger),
	}
	if c.ShippingLevels != nil {
		serviceOpts = append(serviceOpts, checkout.WithShippingLevelService(c.ShippingLevels))
	}
	if c.Taxes != nil {
		serviceOpts = append(serviceOpts, checkout.WithTaxCalculator(c.Taxes))
	}
	a.Checkout = checkout.NewCheckoutService(serviceOpts...)
	return nil
}

// PlaceOrder checks out sc, reporting late failures on the results instead of
// returning them when checkout.tolerant_mode is set. A cart without a
// currency is priced in checkout.default_currency.
func (a *App) PlaceOrder(ctx context.Context, sc *cart.ShoppingCart, payment *order.OrderPayment) (*checkout.CheckoutResults, error) {
	if sc != nil && sc.Currency == "" {
		sc.Currency = a.currency
	}
	return a.Checkout.Checkout(ctx, sc, payment, !a.Config.Checkout.TolerantMode)
}

// Close stops the bus, closes storage and flushes telemetry. It collects
// every error instead of stopping at the first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Bus != nil {
		errs = append(errs, a.Bus.Stop(ctx))
	}
	if a.idempotency != nil {
		errs = append(errs, a.idempotency.Close())
	}
	if a.Redis != nil && a.ownsRedis {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.meter != nil {
		errs = append(errs, a.meter.Shutdown(ctx))
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Shutdown(ctx))
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
