package repo

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/railtix/tickets/internal/domain"
)

// cachedRouteRepo fronts a RouteRepo with Redis. Route prices change only
// through catalog tooling, so entries simply age out after ttl.
// Redis failures are logged and the lookup falls through to the database.
type cachedRouteRepo struct {
	next   RouteRepo
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

// NewCachedRouteRepo wraps next with a Redis read-through cache for Exists
// and BasePrice. ListDestinations is not cached.
func NewCachedRouteRepo(next RouteRepo, rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) RouteRepo {
	return &cachedRouteRepo{next: next, rdb: rdb, ttl: ttl, prefix: "routes:", log: log}
}

func (c *cachedRouteRepo) Exists(ctx context.Context, townFrom, townTo string) (bool, error) {
	key := c.key("exists", townFrom, townTo)
	if v, ok := c.get(ctx, key); ok {
		return v == "1", nil
	}

	ok, err := c.next.Exists(ctx, townFrom, townTo)
	if err != nil {
		return false, err
	}
	v := "0"
	if ok {
		v = "1"
	}
	c.set(ctx, key, v)
	return ok, nil
}

func (c *cachedRouteRepo) BasePrice(ctx context.Context, townFrom, townTo string) (decimal.Decimal, error) {
	key := c.key("price", townFrom, townTo)
	if v, ok := c.get(ctx, key); ok {
		if price, err := decimal.NewFromString(v); err == nil {
			return price, nil
		}
	}

	price, err := c.next.BasePrice(ctx, townFrom, townTo)
	if err != nil {
		return decimal.Zero, err
	}
	c.set(ctx, key, price.String())
	return price, nil
}

func (c *cachedRouteRepo) ListDestinations(ctx context.Context, p domain.PaginationParams) ([]domain.Destination, int64, error) {
	return c.next.ListDestinations(ctx, p)
}

func (c *cachedRouteRepo) key(kind, townFrom, townTo string) string {
	return routeCacheKey(c.prefix, kind, townFrom, townTo)
}

// routeCacheKey length-prefixes each town so names containing ":" cannot
// collide. An empty townTo (any destination) encodes as "0:".
func routeCacheKey(prefix, kind, townFrom, townTo string) string {
	return prefix + kind + ":" + strconv.Itoa(len(townFrom)) + ":" + townFrom + ":" + strconv.Itoa(len(townTo)) + ":" + townTo
}

func (c *cachedRouteRepo) get(ctx context.Context, key string) (string, bool) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "route cache read failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

func (c *cachedRouteRepo) set(ctx context.Context, key, value string) {
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "route cache write failed", "key", key, "error", err)
	}
}
