package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/bootstrap"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// placedOrder is what the command prints after checkout
type placedOrder struct {
	OrderNumber    string `json:"orderNumber,omitempty"`
	Status         string `json:"status,omitempty"`
	Currency       string `json:"currency,omitempty"`
	Total          string `json:"total,omitempty"`
	Shipments      int    `json:"shipments"`
	OrderFailed    bool   `json:"orderFailed"`
	Failure        string `json:"failure,omitempty"`
	EmailFailed    bool   `json:"emailFailed"`
	FinalizeFailed bool   `json:"finalizeFailed"`
}

func main() {
	cartPath := flag.String("cart", "-", "Shopping cart JSON file, - for stdin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start checkout: %v\n", err)
		os.Exit(1)
	}
	log := app.Logger

	exitCode := run(ctx, app, *cartPath)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
	os.Exit(exitCode)
}

// run places the order without a payment template
func run(ctx context.Context, app *bootstrap.App, cartPath string) int {
	log := app.Logger

	sc, err := readCart(cartPath)
	if err != nil {
		log.Error("Failed to read shopping cart", zap.String("path", cartPath), zap.Error(err))
		return 2
	}

	results, err := app.PlaceOrder(ctx, sc, nil)
	out := placedOrder{}
	if results != nil {
		out.OrderFailed = results.OrderFailed
		out.EmailFailed = results.EmailFailed
		out.FinalizeFailed = results.FinalizeFailed
		if results.FailureCause != nil {
			out.Failure = results.FailureCause.Error()
		}
		if o := results.Order; o != nil {
			out.OrderNumber = o.OrderNumber
			out.Status = string(o.Status)
			out.Currency = string(o.Currency)
			out.Total = o.Total().StringFixed(2)
			out.Shipments = len(o.Shipments)
		}
	}
	if err != nil {
		out.Failure = err.Error()
		log.Error("Checkout failed", zap.String("cart_guid", sc.GUID), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		log.Error("Failed to write result", zap.Error(encErr))
		return 1
	}
	if err != nil || out.OrderFailed {
		return 1
	}
	return 0
}

func readCart(path string) (*cart.ShoppingCart, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var sc cart.ShoppingCart
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &sc, nil
}
