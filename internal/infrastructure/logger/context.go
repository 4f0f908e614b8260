package logger

import (
	"context"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

type contextKey string

const (
	loggerKey      contextKey = "logger"
	requestIDKey   contextKey = "request_id"
	cartGUIDKey    contextKey = "cart_guid"
	orderNumberKey contextKey = "order_number"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithCartGUID tags every entry logged through L(ctx), including SQL logs,
// with the cart being checked out.
func WithCartGUID(ctx context.Context, cartGUID string) context.Context {
	return context.WithValue(ctx, cartGUIDKey, cartGUID)
}

func WithOrderNumber(ctx context.Context, orderNumber string) context.Context {
	return context.WithValue(ctx, orderNumberKey, orderNumber)
}

func GetRequestID(ctx context.Context) string   { return stringValue(ctx, requestIDKey) }
func GetCartGUID(ctx context.Context) string    { return stringValue(ctx, cartGUIDKey) }
func GetOrderNumber(ctx context.Context) string { return stringValue(ctx, orderNumberKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// ContextFields returns the correlation fields carried by ctx: trace and span
// IDs of the active span plus any request, cart and order identifiers.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if traceID := telemetry.GetTraceID(ctx); traceID != "" {
		fields = append(fields,
			zap.String("trace_id", traceID),
			zap.String("span_id", telemetry.GetSpanID(ctx)),
		)
	}
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetCartGUID(ctx); v != "" {
		fields = append(fields, zap.String("cart_guid", v))
	}
	if v := GetOrderNumber(ctx); v != "" {
		fields = append(fields, zap.String("order_number", v))
	}
	return fields
}

// L returns the context logger enriched with ContextFields.
//
//	logger.L(ctx).Info("order saved", zap.Int("skus", n))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds the correlation fields of ctx to logger.
func Enrich(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
