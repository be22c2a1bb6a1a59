package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// reportKeyPrefix namespaces report cache entries in Redis
	reportKeyPrefix = "schoolfee:report:"

	// scanBatchSize bounds how many keys one SCAN iteration returns
	scanBatchSize = 100
)

// RedisReportCache stores report payloads as JSON in Redis
type RedisReportCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisReportCache creates a cache backed by an existing Redis client.
// The caller retains ownership of the client.
func NewRedisReportCache(client *redis.Client, logger *zap.Logger) *RedisReportCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisReportCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisReportCache) cacheKey(key string) string {
	return reportKeyPrefix + key
}

// Get loads a cached payload into dest. Returns false on a miss.
// A corrupted entry is dropped and treated as a miss.
func (c *RedisReportCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	cacheKey := c.cacheKey(key)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read report cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("dropping corrupted report cache entry",
			zap.String("key", key),
			zap.Error(err))
		_ = c.client.Del(ctx, cacheKey)
		return false, nil
	}

	return true, nil
}

// Set stores a payload under key for ttl
func (c *RedisReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	if err := c.client.Set(ctx, c.cacheKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write report cache: %w", err)
	}

	return nil
}

// Invalidate scans for every report cache entry and deletes them in batches
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	deleted := 0

	for {
		keys, next, err := c.client.Scan(ctx, cursor, reportKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan report cache keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete report cache keys: %w", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if deleted > 0 {
		c.logger.Debug("invalidated report cache", zap.Int("entries", deleted))
	}

	return nil
}
