// Package redis provides the Redis-backed cache repository
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/gourmetguru/api/internal/ports/outbound"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "gourmet:"

// CacheRepository implements outbound.CacheRepository on a Redis client
type CacheRepository struct {
	client goredis.UniversalClient
	logger *zap.Logger
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a cache repository on client
func NewCacheRepository(client goredis.UniversalClient, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{
		client: client,
		logger: logger.Named("redis-cache"),
	}
}

// Get retrieves a value; missing keys return outbound.ErrCacheMiss
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		r.logger.Debug("Cache get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Set stores a value with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		r.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes a value
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		r.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Exists checks whether key is present
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		r.logger.Error("Cache exists check failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}
