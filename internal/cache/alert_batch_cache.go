package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modacentro/retail-dashboard/backend-go/internal/config"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	alertBatchKeyPrefix  = "replenishment:alerts"
	alertBatchScanBatch  = 100
	defaultAlertBatchTTL = 5 * time.Minute
)

// AlertBatchCache memoizes batch redistribution results for a short window.
// Assessments themselves are never persisted; this only spares repeated
// identical batch scans inside one dashboard session.
type AlertBatchCache interface {
	Get(ctx context.Context, window domain.DateRange, topN int) (*domain.AlertBatchResult, bool, error)
	Set(ctx context.Context, window domain.DateRange, topN int, result *domain.AlertBatchResult) error
	InvalidateAll(ctx context.Context) error
}

type redisAlertBatchCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAlertBatchCache struct{}

func NewAlertBatchCache(cfg config.CacheConfig) (AlertBatchCache, error) {
	if !cfg.Enabled {
		return &noopAlertBatchCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.AlertBatchTTLSecs) * time.Second
	if ttl <= 0 {
		ttl = defaultAlertBatchTTL
	}

	return &redisAlertBatchCache{client: client, ttl: ttl}, nil
}

func NewNoopAlertBatchCache() AlertBatchCache {
	return &noopAlertBatchCache{}
}

func (c *redisAlertBatchCache) Get(ctx context.Context, window domain.DateRange, topN int) (*domain.AlertBatchResult, bool, error) {
	payload, err := c.client.Get(ctx, alertBatchKey(window, topN)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.AlertBatchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode alert batch cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisAlertBatchCache) Set(ctx context.Context, window domain.DateRange, topN int, result *domain.AlertBatchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode alert batch cache: %w", err)
	}

	if err := c.client.Set(ctx, alertBatchKey(window, topN), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAlertBatchCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, alertBatchKeyPrefix, alertBatchScanBatch)
}

func (n *noopAlertBatchCache) Get(ctx context.Context, window domain.DateRange, topN int) (*domain.AlertBatchResult, bool, error) {
	return nil, false, nil
}

func (n *noopAlertBatchCache) Set(ctx context.Context, window domain.DateRange, topN int, result *domain.AlertBatchResult) error {
	return nil
}

func (n *noopAlertBatchCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func alertBatchKey(window domain.DateRange, topN int) string {
	raw := fmt.Sprintf("from=%s|to=%s|top=%d",
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"), topN)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", alertBatchKeyPrefix, hex.EncodeToString(sum[:]))
}
