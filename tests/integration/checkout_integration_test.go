package integration

import (
	"context"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/bootstrap"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

type fulfillmentLog struct {
	mu      sync.Mutex
	summary []checkout.PlacedOrderSummary
}

func (f *fulfillmentLog) OrderReady(_ context.Context, s checkout.PlacedOrderSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = append(f.summary, s)
	return nil
}

func appConfig(db config.DatabaseConfig) *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "storefront-it", Env: "test"},
		Database:  db,
		Log:       config.LogConfig{Level: "error", Format: "json", Output: "stderr"},
		Telemetry: config.TelemetryConfig{ServiceName: "storefront-it"},
		Checkout: config.CheckoutConfig{
			DefaultCurrency:   "USD",
			OrderNumberPrefix: "IT-",
			OrderNumberWidth:  6,
			OrderNumberKey:    "it:order_number",
		},
	}
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func leaf(guid, code, unit string) *cart.ShoppingItem {
	return &cart.ShoppingItem{
		GUID:      guid,
		Quantity:  1,
		UnitPrice: price(unit),
		Sku: &cart.ProductSku{
			SkuCode:   code,
			Shippable: true,
			Product:   &cart.Product{Code: "P-" + code},
		},
	}
}

func bundleCart(guid string, ruleIDs ...int64) *cart.ShoppingCart {
	level := &cart.ShippingServiceLevel{GUID: "ground", Carrier: "UPS", Name: "Ground"}
	bundle := &cart.ShoppingItem{
		GUID:        guid + "-bundle",
		Quantity:    1,
		UnitPrice:   price("100.00"),
		Discount:    price("10.00"),
		Sku:         &cart.ProductSku{SkuCode: "BUNDLE", Product: &cart.Product{Code: "P-BUNDLE"}},
		BundleItems: []*cart.ShoppingItem{leaf(guid+"-x", "SKU-X", "60.00"), leaf(guid+"-y", "SKU-Y", "40.00")},
	}
	return &cart.ShoppingCart{
		GUID:                  guid,
		StoreCode:             "STORE",
		Currency:              valueobject.USD,
		Locale:                language.English,
		Customer:              &cart.Customer{GUID: "cust-it", Email: "it@example.com"},
		Items:                 []*cart.ShoppingItem{bundle},
		SelectedShippingLevel: level,
		ShippingLevels:        []*cart.ShippingServiceLevel{level},
		AppliedRuleIDs:        ruleIDs,
	}
}

func TestCheckoutAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	tdb := NewTestDB(t)

	rule := &order.Rule{Name: "Spring sale", Code: "SPRING", Description: "10 off bundles"}
	require.NoError(t, persistence.NewGormRuleRepository(tdb.DB).Save(ctx, rule))
	cartOrderGUID, err := persistence.NewGormCartOrderRepository(tdb.DB).Create(ctx, "cart-it-1")
	require.NoError(t, err)

	t.Run("sequence numbered order round trips with its sku tree", func(t *testing.T) {
		fulfillment := &fulfillmentLog{}
		app, err := bootstrap.New(ctx, appConfig(tdb.DatabaseConfig()),
			bootstrap.WithLogger(zap.NewNop()),
			bootstrap.WithCollaborators(bootstrap.Collaborators{Fulfillment: fulfillment}),
		)
		require.NoError(t, err)
		defer app.Close(ctx)

		results, err := app.PlaceOrder(ctx, bundleCart("cart-it-1", rule.ID), nil)
		require.NoError(t, err)
		require.NotNil(t, results.Order)
		assert.Equal(t, "IT-000001", results.Order.OrderNumber)

		stored, err := app.Orders.FindByOrderNumber(ctx, "IT-000001")
		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusCreated, stored.Status)
		assert.Equal(t, cartOrderGUID, stored.CartOrderGUID)
		require.Len(t, stored.AppliedRules, 1)
		assert.Equal(t, "SPRING", stored.AppliedRules[0].Code)
		assert.True(t, stored.Total().Equal(results.Order.Total()), "%s != %s", stored.Total(), results.Order.Total())

		byCode := make(map[string]*order.OrderSku)
		for _, s := range stored.AllSkus() {
			byCode[s.SkuCode] = s
		}
		require.Contains(t, byCode, "BUNDLE")
		assert.Len(t, byCode["BUNDLE"].Children, 2)
		assert.True(t, byCode["SKU-X"].UnitPrice.Equal(price("60")), byCode["SKU-X"].UnitPrice.String())
		assert.True(t, byCode["SKU-X"].Discount.Equal(price("6")), byCode["SKU-X"].Discount.String())
		assert.True(t, byCode["SKU-Y"].Discount.Equal(price("4")), byCode["SKU-Y"].Discount.String())

		require.Len(t, fulfillment.summary, 1)
		assert.Equal(t, "IT-000001", fulfillment.summary[0].OrderNumber)
	})

	t.Run("sequence continues across app restarts", func(t *testing.T) {
		app, err := bootstrap.New(ctx, appConfig(tdb.DatabaseConfig()), bootstrap.WithLogger(zap.NewNop()))
		require.NoError(t, err)
		defer app.Close(ctx)

		results, err := app.PlaceOrder(ctx, bundleCart("cart-it-2"), nil)
		require.NoError(t, err)
		assert.Equal(t, "IT-000002", results.Order.OrderNumber)
	})

	t.Run("redis continues after the database sequence", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		cfg := appConfig(tdb.DatabaseConfig())
		cfg.Redis.Enabled = true
		app, err := bootstrap.New(ctx, cfg, bootstrap.WithLogger(zap.NewNop()), bootstrap.WithRedisClient(client))
		require.NoError(t, err)
		defer app.Close(ctx)

		results, err := app.PlaceOrder(ctx, bundleCart("cart-it-3"), nil)
		require.NoError(t, err)
		assert.Equal(t, "IT-000003", results.Order.OrderNumber)
	})

	t.Run("redis keeps a counter that is already ahead", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		require.NoError(t, mr.Set("it:order_number", "500"))

		cfg := appConfig(tdb.DatabaseConfig())
		cfg.Redis.Enabled = true
		app, err := bootstrap.New(ctx, cfg, bootstrap.WithLogger(zap.NewNop()), bootstrap.WithRedisClient(client))
		require.NoError(t, err)
		defer app.Close(ctx)

		results, err := app.PlaceOrder(ctx, bundleCart("cart-it-4"), nil)
		require.NoError(t, err)
		assert.Equal(t, "IT-000501", results.Order.OrderNumber)

		_, err = app.Orders.FindByOrderNumber(ctx, "IT-000501")
		assert.NoError(t, err)
	})
}
