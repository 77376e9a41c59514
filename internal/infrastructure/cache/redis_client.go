// Package cache provides the Redis connection and the caching decorator
// placed in front of the recipe provider
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gourmetguru/api/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient creates a Redis client, in cluster mode when cluster nodes
// are configured, and verifies connectivity
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	opts := &redis.UniversalOptions{
		Addrs:           []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	}

	if cfg.EnableCluster && len(cfg.ClusterNodes) > 0 {
		opts.Addrs = cfg.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", cfg.ClusterNodes))
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.Strings("addrs", opts.Addrs),
		zap.Int("database", cfg.Database),
		zap.Bool("cluster_enabled", cfg.EnableCluster))

	return client, nil
}
