package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// MockEventHandler is a mock implementation of shared.EventHandler
type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func newPlacedEvent(orderNumber string) *order.OrderPlacedEvent {
	id := uuid.New()
	return &order.OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPlaced, order.AggregateTypeOrder, id),
		OrderID:         id,
		OrderNumber:     orderNumber,
	}
}

func TestIdempotentHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("handles a new event once", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := new(MockEventHandler)
		evt := newTestEvent("OrderPlaced")
		inner.On("Handle", mock.Anything, evt).Return(nil).Once()

		h := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, h.Handle(ctx, evt))
		require.NoError(t, h.Handle(ctx, evt))

		inner.AssertExpectations(t)
		assert.Equal(t, IdempotencyStats{Processed: 1, Duplicates: 1}, h.Stats())
	})

	t.Run("handler error is returned and the key kept", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := new(MockEventHandler)
		evt := newTestEvent("OrderPlaced")
		inner.On("Handle", mock.Anything, evt).Return(assert.AnError).Once()

		h := NewIdempotentHandler(inner, store, nil)
		assert.ErrorIs(t, h.Handle(ctx, evt), assert.AnError)
		require.NoError(t, h.Handle(ctx, evt))

		inner.AssertExpectations(t)
		assert.Equal(t, int64(1), h.Stats().Failed)
		processed, err := store.IsProcessed(ctx, evt.EventID().String())
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("store failure still handles the event", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		evt := newTestEvent("OrderPlaced")
		store.On("MarkProcessed", mock.Anything, evt.EventID().String(), 24*time.Hour).
			Return(false, errors.New("redis down"))
		inner.On("Handle", mock.Anything, evt).Return(nil)

		h := NewIdempotentHandler(inner, store, nil)
		require.NoError(t, h.Handle(ctx, evt))

		store.AssertExpectations(t)
		inner.AssertExpectations(t)
	})

	t.Run("disabled config bypasses the store", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		evt := newTestEvent("OrderPlaced")
		inner.On("Handle", mock.Anything, evt).Return(nil).Times(3)

		h := NewIdempotentHandler(inner, store, nil,
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
		for i := 0; i < 3; i++ {
			require.NoError(t, h.Handle(ctx, evt))
		}

		inner.AssertExpectations(t)
		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("default ttl reaches the store", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		evt := newTestEvent("OrderPlaced")
		store.On("MarkProcessed", mock.Anything, mock.Anything, shared.DefaultDedupTTL).Return(true, nil)
		inner.On("Handle", mock.Anything, evt).Return(nil)

		require.NoError(t, NewIdempotentHandler(inner, store, nil).Handle(ctx, evt))
		store.AssertExpectations(t)
	})

	t.Run("custom ttl reaches the store", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		evt := newTestEvent("OrderPlaced")
		store.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(true, nil)
		inner.On("Handle", mock.Anything, evt).Return(nil)

		h := NewIdempotentHandler(inner, store, nil,
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}))
		require.NoError(t, h.Handle(ctx, evt))

		store.AssertExpectations(t)
	})

	t.Run("concurrent duplicates are handled once", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := newTestHandler("OrderPlaced")
		evt := newTestEvent("OrderPlaced")
		h := NewIdempotentHandler(inner, store, nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, h.Handle(ctx, evt))
			}()
		}
		wg.Wait()

		assert.Len(t, inner.getHandled(), 1)
		assert.Equal(t, int64(9), h.Stats().Duplicates)
	})
}

func TestOrderPlacedKey(t *testing.T) {
	ctx := context.Background()

	t.Run("keys by order number", func(t *testing.T) {
		first := newPlacedEvent("W-00042")
		second := newPlacedEvent("W-00042")
		require.NotEqual(t, first.EventID(), second.EventID())

		assert.Equal(t, "OrderPlaced:W-00042", OrderPlacedKey(first))
		assert.Equal(t, OrderPlacedKey(first), OrderPlacedKey(second))
	})

	t.Run("falls back to the event id", func(t *testing.T) {
		evt := newTestEvent("Other")
		assert.Equal(t, evt.EventID().String(), OrderPlacedKey(evt))

		unnumbered := newPlacedEvent("")
		assert.Equal(t, unnumbered.EventID().String(), OrderPlacedKey(unnumbered))
	})

	t.Run("republished order is skipped", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := newTestHandler(order.EventTypeOrderPlaced)
		h := NewIdempotentHandler(inner, store, nil, WithKeyFunc(OrderPlacedKey))

		require.NoError(t, h.Handle(ctx, newPlacedEvent("W-1")))
		require.NoError(t, h.Handle(ctx, newPlacedEvent("W-1")))
		require.NoError(t, h.Handle(ctx, newPlacedEvent("W-2")))

		assert.Len(t, inner.getHandled(), 2)
		assert.Equal(t, []string{order.EventTypeOrderPlaced}, h.EventTypes())
		assert.Same(t, inner, h.Unwrap())
	})
}
