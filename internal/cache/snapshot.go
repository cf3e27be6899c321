package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yalgud-dairy/orders-admin/internal/config"
	"github.com/yalgud-dairy/orders-admin/internal/domain"
)

const orderSnapshotKeyPrefix = "orders:snapshot:"

// Snapshot is the cached result of one upstream fetch: the normalized
// batch plus when it was taken. Raw records are not cached; every
// field downstream consumers read must already be resolved on the
// normalized orders (see domain.NormalizedOrder.Raw).
type Snapshot struct {
	Orders    []domain.NormalizedOrder `json:"orders"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// OrderSnapshotCache memoizes the last normalized order batch per
// upstream status so repeated page loads don't re-hit the order API.
type OrderSnapshotCache interface {
	Get(ctx context.Context, status domain.OrderStatus) (*Snapshot, bool, error)
	Set(ctx context.Context, status domain.OrderStatus, snap *Snapshot) error
	Invalidate(ctx context.Context, status domain.OrderStatus) error
}

type redisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSnapshotCache struct{}

// NewOrderSnapshotCache returns a Redis-backed cache, or a no-op cache
// when caching is disabled in config.
func NewOrderSnapshotCache(cfg config.CacheConfig) (OrderSnapshotCache, error) {
	if !cfg.Enabled {
		return &noopSnapshotCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSnapshotCache{client: client, ttl: ttl}, nil
}

// NewNoopOrderSnapshotCache returns the disabled cache implementation.
func NewNoopOrderSnapshotCache() OrderSnapshotCache {
	return &noopSnapshotCache{}
}

func (c *redisSnapshotCache) Get(ctx context.Context, status domain.OrderStatus) (*Snapshot, bool, error) {
	payload, err := c.client.Get(ctx, snapshotKey(status)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, false, fmt.Errorf("decode order snapshot cache: %w", err)
	}

	return &snap, true, nil
}

func (c *redisSnapshotCache) Set(ctx context.Context, status domain.OrderStatus, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode order snapshot cache: %w", err)
	}

	if err := c.client.Set(ctx, snapshotKey(status), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisSnapshotCache) Invalidate(ctx context.Context, status domain.OrderStatus) error {
	return deleteKeysWithPrefix(ctx, c.client, snapshotKey(status), scanBatchSize)
}

func (c *noopSnapshotCache) Get(context.Context, domain.OrderStatus) (*Snapshot, bool, error) {
	return nil, false, nil
}

func (c *noopSnapshotCache) Set(context.Context, domain.OrderStatus, *Snapshot) error {
	return nil
}

func (c *noopSnapshotCache) Invalidate(context.Context, domain.OrderStatus) error {
	return nil
}

func snapshotKey(status domain.OrderStatus) string {
	return orderSnapshotKeyPrefix + string(status)
}
