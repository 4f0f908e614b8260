package shared

import (
	"context"
	"time"
)

// DefaultDedupTTL is how long a handled key is remembered. A redelivered
// OrderPlaced for the same order inside this window is dropped.
const DefaultDedupTTL = 24 * time.Hour

// IdempotencyStore remembers which dedup keys a handler already processed.
// Keys are chosen by the handler wrapper: an event ID, or the order number
// for OrderPlaced.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl. It reports false when key was
	// already recorded and still live.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls dedup in front of an event handler
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables dedup with DefaultDedupTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: DefaultDedupTTL, Enabled: true}
}
