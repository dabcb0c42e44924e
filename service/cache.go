package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/nvr-ai/hardhat/config"
)

const (
	redisPoolSize        = 100
	redisMinIdleConns    = 10
	redisPoolTimeoutSec  = 5
	redisDialTimeoutSec  = 5
	redisReadTimeoutSec  = 3
	redisWriteTimeoutSec = 3
)

// Cache stores predictions keyed by the upload checksum.
type Cache interface {
	Get(ctx context.Context, key string) (*Prediction, bool, error)
	Set(ctx context.Context, key string, pred *Prediction) error
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, c config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,

		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
		PoolTimeout:  redisPoolTimeoutSec * time.Second,
		DialTimeout:  redisDialTimeoutSec * time.Second,
		ReadTimeout:  redisReadTimeoutSec * time.Second,
		WriteTimeout: redisWriteTimeoutSec * time.Second,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", c.Addr)
	}
	return client, nil
}

// RedisCache is a Cache backed by Redis string keys with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache returns a cache that stores JSON under prefix+checksum.
func NewRedisCache(client redis.Cmdable, ttl time.Duration, prefix string) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

// Key returns the Redis key for a checksum.
func (c *RedisCache) Key(checksum string) string {
	return c.prefix + checksum
}

// Get returns the cached prediction. A missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (*Prediction, bool, error) {
	data, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}

	pred := &Prediction{}
	if err := json.Unmarshal(data, pred); err != nil {
		return nil, false, errors.Wrap(err, "failed to decode cached prediction")
	}
	return pred, true, nil
}

// Set stores pred with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, pred *Prediction) error {
	data, err := json.Marshal(pred)
	if err != nil {
		return errors.Wrap(err, "failed to encode prediction")
	}
	if err := c.client.Set(ctx, c.Key(key), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}
