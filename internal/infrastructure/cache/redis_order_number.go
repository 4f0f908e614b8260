package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/backend/internal/domain/order"
)

// DefaultOrderNumberKey is the counter key used when none is configured
const DefaultOrderNumberKey = "storefront:order_number"

// RedisOrderNumberGenerator hands out order numbers with INCR on a single key.
// INCR is atomic, so concurrent checkouts on any number of instances never
// share a number.
type RedisOrderNumberGenerator struct {
	client redis.Cmdable
	key    string
	format order.NumberFormat
	mirror CounterMirror
}

// CounterMirror is raised to every value the Redis counter hands out
type CounterMirror interface {
	Advance(ctx context.Context, floor int64) error
}

// RedisOrderNumberOption configures a RedisOrderNumberGenerator
type RedisOrderNumberOption func(*RedisOrderNumberGenerator)

// WithCounterMirror keeps a second counter at least as high as the Redis one
func WithCounterMirror(m CounterMirror) RedisOrderNumberOption {
	return func(g *RedisOrderNumberGenerator) {
		g.mirror = m
	}
}

// NewRedisOrderNumberGenerator creates a generator over key
func NewRedisOrderNumberGenerator(
	client redis.Cmdable,
	key string,
	format order.NumberFormat,
	opts ...RedisOrderNumberOption,
) *RedisOrderNumberGenerator {
	if key == "" {
		key = DefaultOrderNumberKey
	}
	g := &RedisOrderNumberGenerator{client: client, key: key, format: format}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next increments the counter and formats the new value. With a mirror the
// value is recorded there before it is returned.
func (g *RedisOrderNumberGenerator) Next(ctx context.Context) (string, error) {
	n, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return "", fmt.Errorf("increment %s: %w", g.key, err)
	}
	if g.mirror != nil {
		if err := g.mirror.Advance(ctx, n); err != nil {
			return "", err
		}
	}
	return g.format.Format(n)
}

// seedScript raises the counter without ever lowering it
var seedScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
  redis.call('SET', KEYS[1], floor)
  return floor
end
return current
`)

// Seed raises the counter to at least floor, used when moving from the
// database sequence so numbers keep increasing. It returns the counter value.
func (g *RedisOrderNumberGenerator) Seed(ctx context.Context, floor int64) (int64, error) {
	n, err := seedScript.Run(ctx, g.client, []string{g.key}, floor).Int64()
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", g.key, err)
	}
	return n, nil
}

var _ order.NumberGenerator = (*RedisOrderNumberGenerator)(nil)
