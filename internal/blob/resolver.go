package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marque-app/marque/internal/logger"
)

// URLCache memoizes resolved attachment URLs. A miss returns ("", nil).
type URLCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, url string, ttl time.Duration) error
}

// RedisURLCache caches presigned URLs in Redis.
type RedisURLCache struct {
	client *redis.Client
}

func NewRedisURLCache(client *redis.Client) *RedisURLCache {
	return &RedisURLCache{client: client}
}

func cacheKey(key string) string {
	return fmt.Sprintf("marque:attachment_url:%s", key)
}

func (c *RedisURLCache) Get(ctx context.Context, key string) (string, error) {
	url, err := c.client.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get cached url: %w", err)
	}
	return url, nil
}

func (c *RedisURLCache) Set(ctx context.Context, key, url string, ttl time.Duration) error {
	if err := c.client.Set(ctx, cacheKey(key), url, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache url: %w", err)
	}
	return nil
}

// URLResolver turns stored blob keys into access URLs, memoizing signed
// URLs for a TTL shorter than the presign expiry so a cached entry never
// outlives its signature.
type URLResolver struct {
	storage Storage
	cache   URLCache
	ttl     time.Duration
	log     logger.Logger
}

// NewURLResolver wires a resolver over the given storage. cache may be nil
// to disable memoization. presignTTL is the signature lifetime; the cache
// TTL is derived from it.
func NewURLResolver(storage Storage, cache URLCache, presignTTL time.Duration, log logger.Logger) *URLResolver {
	ttl := presignTTL * 2 / 3
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &URLResolver{storage: storage, cache: cache, ttl: ttl, log: log}
}

// Resolve returns an access URL for the stored key, or "" for an empty key
// (attachment pending or absent).
func (r *URLResolver) Resolve(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	if r.cache != nil {
		if url, err := r.cache.Get(ctx, key); err == nil && url != "" {
			return url, nil
		} else if err != nil {
			// Cache trouble must not fail the request.
			r.log.Warn("attachment url cache read failed",
				logger.String("key", key),
				logger.Error(err))
		}
	}

	url, err := r.storage.PresignGet(ctx, key)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, url, r.ttl); err != nil {
			r.log.Warn("attachment url cache write failed",
				logger.String("key", key),
				logger.Error(err))
		}
	}
	return url, nil
}
