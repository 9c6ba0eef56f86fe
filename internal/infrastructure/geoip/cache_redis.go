package geoip

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "geoip:location:"

// RedisCache is a LocationCache backed by Redis with per-entry TTL, for
// deployments where one warm cache should serve several replicas. Failures
// degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed location cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, ip string) (Location, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+ip).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("geo cache read failed", zap.String("ip", ip), zap.Error(err))
		}
		return Location{}, false
	}
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return Location{}, false
	}
	return loc, true
}

func (c *RedisCache) Set(ctx context.Context, ip string, loc Location) {
	data, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+ip, data, c.ttl).Err(); err != nil {
		c.logger.Warn("geo cache write failed", zap.String("ip", ip), zap.Error(err))
	}
}

var _ LocationCache = (*RedisCache)(nil)
