package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func contextWithSpan(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	t.Run("returns the attached logger", func(t *testing.T) {
		logger := zap.NewExample()
		assert.Same(t, logger, FromContext(WithContext(context.Background(), logger)))
	})

	t.Run("falls back to nop", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestContextValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithCartGUID(ctx, "cart-9")
	ctx = WithOrderNumber(ctx, "00042")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "cart-9", GetCartGUID(ctx))
	assert.Equal(t, "00042", GetOrderNumber(ctx))

	empty := context.Background()
	assert.Empty(t, GetRequestID(empty))
	assert.Empty(t, GetCartGUID(empty))
	assert.Empty(t, GetOrderNumber(empty))
}

func TestL(t *testing.T) {
	t.Run("adds correlation fields", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		ctx := WithContext(contextWithSpan(t), zap.New(core))
		ctx = WithCartGUID(ctx, "cart-9")
		ctx = WithOrderNumber(ctx, "00042")

		L(ctx).Info("order saved")

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
		assert.Equal(t, "cart-9", fields["cart_guid"])
		assert.Equal(t, "00042", fields["order_number"])
		assert.NotContains(t, fields, "request_id")
	})

	t.Run("plain context adds nothing", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		ctx := WithContext(context.Background(), zap.New(core))

		L(ctx).Info("hello")

		require.Equal(t, 1, logs.Len())
		assert.Empty(t, logs.All()[0].Context)
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NotPanics(t, func() { Enrich(context.Background(), nil).Info("x") })
	})
}
