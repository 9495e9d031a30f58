package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// allStoresScope names the cache scope of unscoped (all stores) queries.
const allStoresScope = "_all"

// StatsCache caches computed statistics per store and date range.
type StatsCache interface {
	Get(ctx context.Context, storeID, start, end string) (*models.Statistics, bool)
	Set(ctx context.Context, storeID, start, end string, stats *models.Statistics)
	InvalidateStore(ctx context.Context, storeID string)
}

// NoopStatsCache is used when no Redis URL is configured.
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, string, string, string) (*models.Statistics, bool) {
	return nil, false
}
func (NoopStatsCache) Set(context.Context, string, string, string, *models.Statistics) {}
func (NoopStatsCache) InvalidateStore(context.Context, string)                         {}

// RedisStatsCache stores statistics as JSON in Redis. Cache failures are
// logged and treated as misses.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStatsCache connects to redisURL and verifies the connection.
func NewRedisStatsCache(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisStatsCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStatsCache{client: client, ttl: ttl, logger: logger}, nil
}

// Close releases the Redis connection pool.
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}

func (c *RedisStatsCache) Get(ctx context.Context, storeID, start, end string) (*models.Statistics, bool) {
	data, err := c.client.Get(ctx, StatsCacheKey(storeID, start, end)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var stats models.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		c.logger.Warn("stats cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &stats, true
}

func (c *RedisStatsCache) Set(ctx context.Context, storeID, start, end string, stats *models.Statistics) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, StatsCacheKey(storeID, start, end), data, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

// InvalidateStore drops every cached range for storeID and for the
// all-stores scope, which includes that store's vehicles.
func (c *RedisStatsCache) InvalidateStore(ctx context.Context, storeID string) {
	for _, scope := range []string{cacheScope(storeID), allStoresScope} {
		iter := c.client.Scan(ctx, 0, scopePattern(scope), 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn("stats cache scan failed", zap.String("scope", scope), zap.Error(err))
			continue
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("stats cache invalidate failed", zap.String("scope", scope), zap.Error(err))
			}
		}
	}
}

// StatsCacheKey is "stats:<scope>:<xxh3 of the range>".
func StatsCacheKey(storeID, start, end string) string {
	h := xxh3.HashString(start + "|" + end)
	return "stats:" + cacheScope(storeID) + ":" + strconv.FormatUint(h, 16)
}

// scopePattern matches every key of scope. Glob metacharacters in the store
// id are escaped so one store never matches another's keys.
func scopePattern(scope string) string {
	return "stats:" + globEscaper.Replace(scope) + ":*"
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func cacheScope(storeID string) string {
	if storeID == "" {
		return allStoresScope
	}
	return storeID
}
