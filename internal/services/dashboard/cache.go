package dashboard

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
)

// RedisCache stores computed dashboard payloads in Redis with a TTL.
// Cache errors are logged and treated as misses; the dashboard always
// recomputes on a miss.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *common.Logger
}

// NewRedisCache connects to Redis using the client config.
func NewRedisCache(logger *common.Logger, cfg common.RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{
		client: client,
		ttl:    cfg.GetTTL(),
		logger: logger,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

// Invalidate drops every cached payload for an owner. Keys are scanned
// by prefix so a new position clears all of the owner's dashboards.
func (c *RedisCache) Invalidate(ctx context.Context, owner string) error {
	iter := c.client.Scan(ctx, 0, owner+"_*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// NoopCache disables caching; every dashboard query recomputes.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]byte, bool)      { return nil, false }
func (NoopCache) Set(ctx context.Context, key string, value []byte) error { return nil }
func (NoopCache) Invalidate(ctx context.Context, owner string) error      { return nil }

// Compile-time checks
var (
	_ interfaces.DashboardCache = (*RedisCache)(nil)
	_ interfaces.DashboardCache = NoopCache{}
)
