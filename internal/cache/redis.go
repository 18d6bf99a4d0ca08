package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "translate:"

// RedisConfig configures the shared cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Redis stores translations in Redis so that replicas share hits.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClient opens a client and verifies connectivity.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached value for key. Backend errors are logged and
// reported as a miss.
func (c *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("translation cache read failed")
		}
		return "", false
	}
	return value, true
}

// Set stores value with the configured TTL.
func (c *Redis) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, redisKey(key), value, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("translation cache write failed")
	}
}

// Close closes the underlying client.
func (c *Redis) Close() error {
	return c.client.Close()
}

// redisKey hashes the source text so arbitrarily long input maps to a
// fixed-size key.
func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return redisKeyPrefix + hex.EncodeToString(sum[:])
}
