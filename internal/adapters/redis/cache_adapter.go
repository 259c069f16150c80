package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// CacheStoreAdapter implements the domain.CacheStore interface using Redis.
// It backs both the identity cache (token -> upstream user ID) and the
// biomarker category listing cache.
type CacheStoreAdapter struct {
	redisClient *redis.Client
	logger      domain.Logger
}

// NewCacheStoreAdapter creates a new instance of CacheStoreAdapter.
func NewCacheStoreAdapter(redisClient *redis.Client, logger domain.Logger) *CacheStoreAdapter {
	if redisClient == nil {
		// Panicking here because this is a critical setup error.
		panic("redisClient cannot be nil in NewCacheStoreAdapter")
	}
	if logger == nil {
		panic("logger cannot be nil in NewCacheStoreAdapter")
	}
	return &CacheStoreAdapter{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Get retrieves a value from the Redis cache, or domain.ErrCacheMiss.
func (a *CacheStoreAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := a.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		a.logger.Debug(ctx, "Cache miss", "key", key)
		return "", domain.ErrCacheMiss
	}
	if err != nil {
		a.logger.Error(ctx, "Failed to get value from Redis cache", "key", key, "error", err.Error())
		return "", fmt.Errorf("redis GET for key '%s' failed: %w", key, err)
	}

	a.logger.Debug(ctx, "Cache hit", "key", key)
	return val, nil
}

// Set stores a value in the Redis cache with a specified TTL.
func (a *CacheStoreAdapter) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := a.redisClient.Set(ctx, key, value, ttl).Err(); err != nil {
		a.logger.Error(ctx, "Failed to set value in Redis cache", "key", key, "error", err.Error())
		return fmt.Errorf("redis SET for key '%s' failed: %w", key, err)
	}

	a.logger.Debug(ctx, "Successfully cached value", "key", key, "ttl", ttl.String())
	return nil
}

// Ping verifies connectivity to the Redis server.
func (a *CacheStoreAdapter) Ping(ctx context.Context) error {
	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis PING failed: %w", err)
	}
	return nil
}
