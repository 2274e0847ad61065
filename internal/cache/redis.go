package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"caixinha/internal/log"
)

// RedisCache stores string values in Redis with a fixed TTL. It satisfies
// Cache[string] so several dashboard instances can share answers.
type RedisCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	timeout time.Duration
	logger  *log.Logger
}

// NewRedisCache connects to addr. The connection is lazy; use Ping to check it.
func NewRedisCache(addr string, ttl time.Duration, logger *log.Logger) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return NewRedisCacheWithClient(rdb, ttl, logger)
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client redis.Cmdable, ttl time.Duration, logger *log.Logger) *RedisCache {
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		timeout: 2 * time.Second,
		logger:  logger.WithComponent(log.ComponentCache),
	}
}

// Ping verifies the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Redis get failed", log.FieldError, err)
		}
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(key string, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("Redis set failed", log.FieldError, err)
	}
}

func (r *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("Redis delete failed", log.FieldError, err)
	}
}

// Close releases the underlying client when it owns one.
func (r *RedisCache) Close() error {
	if c, ok := r.client.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}
