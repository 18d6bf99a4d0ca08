// Package cache provides translation caches: an in-process ristretto cache
// and a Redis-backed cache shared between replicas.
package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalConfig tunes the in-process cache.
type LocalConfig struct {
	MaxCost     int64 // bytes
	NumCounters int64
	TTL         time.Duration
}

// Local wraps a ristretto cache keyed by string.
type Local struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// NewLocal creates an in-process cache.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 32 << 20
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 100_000
	}

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Local{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached value for key.
func (c *Local) Get(_ context.Context, key string) (string, bool) {
	value, ok := c.client.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// Set stores value with a cost equal to its size. Ristretto admits writes
// asynchronously, so an immediate Get may still miss.
func (c *Local) Set(_ context.Context, key, value string) {
	cost := int64(len(key) + len(value))
	if c.ttl > 0 {
		c.client.SetWithTTL(key, value, cost, c.ttl)
		return
	}
	c.client.Set(key, value, cost)
}

// Wait blocks until pending writes are applied.
func (c *Local) Wait() {
	c.client.Wait()
}

// Close releases the cache goroutines.
func (c *Local) Close() {
	c.client.Close()
}
