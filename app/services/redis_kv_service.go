package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisKVService is the KVStore over Redis. Used as the fast tier for
// history persistence.
type RedisKVService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string

	// Stats
	hits   int64
	misses int64
}

// NewRedisKVService connects to Redis and verifies it responds.
func NewRedisKVService(redisURL, prefix string, logger *zap.Logger) (*RedisKVService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if prefix == "" {
		prefix = "unitsel:"
	}
	logger.Info("Redis KV store connected",
		zap.String("addr", opts.Addr),
		zap.String("prefix", prefix))

	return &RedisKVService{
		client: client,
		logger: logger,
		prefix: prefix,
	}, nil
}

// Get returns the value stored under key, ErrKVMiss when absent.
func (r *RedisKVService) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		atomic.AddInt64(&r.misses, 1)
		return "", ErrKVMiss
	}
	if err != nil {
		r.logger.Error("redis get failed", zap.Error(err), zap.String("key", key))
		return "", err
	}

	atomic.AddInt64(&r.hits, 1)
	return val, nil
}

// Set stores value under key.
func (r *RedisKVService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		r.logger.Error("redis set failed", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// Delete removes a key.
func (r *RedisKVService) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Error("redis delete failed", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// Clear removes every key under this store's prefix.
func (r *RedisKVService) Clear(ctx context.Context) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis delete keys: %w", err)
		}
	}

	r.logger.Info("redis KV cleared", zap.Int("keys_deleted", len(keys)))
	return nil
}

// Exists reports whether key is present.
func (r *RedisKVService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTTL returns the remaining lifetime of key; zero when absent or
// persistent.
func (r *RedisKVService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.prefix+key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		// -1 persistent, -2 missing
		return 0, nil
	}
	return ttl, nil
}

// GetStats reports hit/miss counters and the key count under the
// prefix.
func (r *RedisKVService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	hits := atomic.LoadInt64(&r.hits)
	misses := atomic.LoadInt64(&r.misses)

	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	totalItems := int64(0)
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		totalItems++
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("redis key count failed", zap.Error(err))
	}

	return map[string]interface{}{
		"backend":     "redis",
		"hit_rate":    hitRate,
		"total_hits":  hits,
		"total_miss":  misses,
		"total_items": totalItems,
	}, nil
}

// Close releases the Redis connection.
func (r *RedisKVService) Close() error {
	return r.client.Close()
}
