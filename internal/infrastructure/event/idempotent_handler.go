package event

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// KeyFunc derives the deduplication key of an event
type KeyFunc func(shared.DomainEvent) string

// EventIDKey keys events by their event ID
func EventIDKey(evt shared.DomainEvent) string {
	return evt.EventID().String()
}

// OrderPlacedKey keys OrderPlaced events by order number, so a second
// OrderPlaced for the same order is treated as a duplicate. Other events fall
// back to their event ID.
func OrderPlacedKey(evt shared.DomainEvent) string {
	if placed, ok := evt.(*order.OrderPlacedEvent); ok && placed.OrderNumber != "" {
		return order.EventTypeOrderPlaced + ":" + placed.OrderNumber
	}
	return EventIDKey(evt)
}

// IdempotentHandler wraps an EventHandler so each event key is handled at
// most once per TTL
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	key     KeyFunc
	logger  *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the idempotency configuration
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithKeyFunc replaces the default EventIDKey
func WithKeyFunc(fn KeyFunc) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if fn != nil {
			h.key = fn
		}
	}
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		key:     EventIDKey,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle marks the event key and runs the wrapped handler if the key was new.
// A store failure does not drop the event; it is handled anyway. The key is
// kept when the wrapped handler fails, so a retry waits out the TTL.
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if !h.config.Enabled || h.store == nil {
		return h.run(ctx, evt, "")
	}

	key := h.key(evt)
	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, handling event anyway",
			zap.String("event_key", key),
			zap.String("event_type", evt.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.duplicates.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_key", key),
			zap.String("event_type", evt.EventType()),
		)
		return nil
	}
	return h.run(ctx, evt, key)
}

func (h *IdempotentHandler) run(ctx context.Context, evt shared.DomainEvent, key string) error {
	if err := h.handler.Handle(ctx, evt); err != nil {
		h.failed.Add(1)
		h.logger.Error("event handler failed",
			zap.String("event_key", key),
			zap.String("event_type", evt.EventType()),
			zap.Error(err),
		)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the handler's counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

// Unwrap returns the wrapped handler
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.handler
}

// Ensure IdempotentHandler implements EventHandler
var _ shared.EventHandler = (*IdempotentHandler)(nil)
