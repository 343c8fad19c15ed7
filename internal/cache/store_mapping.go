package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/modacentro/retail-dashboard/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	storeMappingKey        = "replenishment:store_mapping"
	defaultStoreMappingTTL = 24 * time.Hour
)

// StoreMappingCache is the read-through cache for the validated store/
// warehouse-ID mapping. It is the only cross-request mutable state in the
// process: the first successful validation wins and subsequent callers reuse
// it until expiry or explicit invalidation.
type StoreMappingCache interface {
	// Get returns the cached mapping, with false when absent or expired.
	Get(ctx context.Context) (map[string]string, bool, error)

	// PutIfAbsent stores the mapping only when no valid entry exists and
	// reports whether this caller won the write.
	PutIfAbsent(ctx context.Context, mapping map[string]string) (bool, error)

	// Invalidate drops the cached mapping.
	Invalidate(ctx context.Context) error
}

// NewStoreMappingCache returns a redis-backed cache when caching is enabled
// and an in-memory cache otherwise. Both honor the first-writer-wins
// contract.
func NewStoreMappingCache(cfg config.CacheConfig) (StoreMappingCache, error) {
	ttl := cfg.StoreMappingTTL
	if ttl <= 0 {
		ttl = defaultStoreMappingTTL
	}

	if !cfg.Enabled {
		return NewMemoryStoreMappingCache(ttl), nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisStoreMappingCache{client: client, ttl: ttl}, nil
}

type redisStoreMappingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisStoreMappingCache) Get(ctx context.Context) (map[string]string, bool, error) {
	payload, err := c.client.Get(ctx, storeMappingKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(payload, &mapping); err != nil {
		return nil, false, fmt.Errorf("decode store mapping cache: %w", err)
	}

	return mapping, true, nil
}

func (c *redisStoreMappingCache) PutIfAbsent(ctx context.Context, mapping map[string]string) (bool, error) {
	payload, err := json.Marshal(mapping)
	if err != nil {
		return false, fmt.Errorf("encode store mapping cache: %w", err)
	}

	// SetNX gives the single-writer-first-wins semantics without any locking
	// at the call sites.
	won, err := c.client.SetNX(ctx, storeMappingKey, payload, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return won, nil
}

func (c *redisStoreMappingCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, storeMappingKey).Err()
}

// MemoryStoreMappingCache is the in-process implementation used when redis is
// disabled and in tests. Same contract: first writer wins until TTL expiry.
type MemoryStoreMappingCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	mapping map[string]string
	setAt   time.Time
	now     func() time.Time
}

func NewMemoryStoreMappingCache(ttl time.Duration) *MemoryStoreMappingCache {
	if ttl <= 0 {
		ttl = defaultStoreMappingTTL
	}
	return &MemoryStoreMappingCache{ttl: ttl, now: time.Now}
}

func (c *MemoryStoreMappingCache) Get(ctx context.Context) (map[string]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mapping == nil || c.now().Sub(c.setAt) >= c.ttl {
		c.mapping = nil
		return nil, false, nil
	}

	out := make(map[string]string, len(c.mapping))
	for k, v := range c.mapping {
		out[k] = v
	}
	return out, true, nil
}

func (c *MemoryStoreMappingCache) PutIfAbsent(ctx context.Context, mapping map[string]string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mapping != nil && c.now().Sub(c.setAt) < c.ttl {
		return false, nil
	}

	stored := make(map[string]string, len(mapping))
	for k, v := range mapping {
		stored[k] = v
	}
	c.mapping = stored
	c.setAt = c.now()
	return true, nil
}

func (c *MemoryStoreMappingCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapping = nil
	return nil
}
