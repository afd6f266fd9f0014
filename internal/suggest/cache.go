package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TitleCache stores looked-up video titles keyed by canonical video URL.
// Implementations swallow their own errors: a broken cache is a cache miss.
type TitleCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, title string)
}

const redisKeyPrefix = "oembed:title:"

type RedisTitleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewRedisTitleCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisTitleCache {
	return &RedisTitleCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisTitleCache) Get(ctx context.Context, key string) (string, bool) {
	title, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug().Err(err).Msg("redis title cache read failed")
		}
		return "", false
	}
	return title, true
}

func (c *RedisTitleCache) Set(ctx context.Context, key, title string) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, title, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("redis title cache write failed")
	}
}

const memoryCacheSize = 10000

// MemoryTitleCache keeps titles in process for deployments without Redis.
type MemoryTitleCache struct {
	cache *ttlcache.Cache
}

func NewMemoryTitleCache(ttl time.Duration) *MemoryTitleCache {
	cache := ttlcache.NewCache()
	_ = cache.SetTTL(ttl)
	cache.SkipTTLExtensionOnHit(true)
	cache.SetCacheSizeLimit(memoryCacheSize)
	return &MemoryTitleCache{cache: cache}
}

func (c *MemoryTitleCache) Get(_ context.Context, key string) (string, bool) {
	value, err := c.cache.Get(key)
	if err != nil {
		return "", false
	}
	title, ok := value.(string)
	return title, ok
}

func (c *MemoryTitleCache) Set(_ context.Context, key, title string) {
	_ = c.cache.Set(key, title)
}

// Close stops the expiry goroutine.
func (c *MemoryTitleCache) Close() error {
	return c.cache.Close()
}
