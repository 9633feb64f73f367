package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storelab/replenish/internal/config"
	"github.com/storelab/replenish/internal/domain"
)

const (
	snapshotKeyPrefix     = "inventory:snapshot"
	snapshotScanBatchSize = 100
)

// staleAfter is how old a cached snapshot may be before Get flags it stale.
// Stale entries are still returned; the engine marks the prediction so a
// stale figure is visible downstream instead of silently trusted.
const staleAfter = time.Hour

// SnapshotCache holds per-item inventory snapshots between the collector's
// sync and the forecast run.
type SnapshotCache interface {
	Get(ctx context.Context, itemID string) (*domain.InventorySnapshot, bool, error)
	SetBatch(ctx context.Context, snapshots []domain.InventorySnapshot) error
	InvalidateAll(ctx context.Context) error
}

type redisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSnapshotCache struct{}

func NewSnapshotCache(cfg config.CacheConfig) (SnapshotCache, error) {
	if !cfg.Enabled {
		return &noopSnapshotCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSnapshotCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopSnapshotCache() SnapshotCache {
	return &noopSnapshotCache{}
}

func (c *redisSnapshotCache) Get(ctx context.Context, itemID string) (*domain.InventorySnapshot, bool, error) {
	payload, err := c.client.Get(ctx, snapshotKey(itemID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snap domain.InventorySnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, false, fmt.Errorf("decode inventory snapshot cache: %w", err)
	}

	snap.Source = domain.SourceCache
	snap.IsStale = time.Since(snap.CollectedAt) > staleAfter
	return &snap, true, nil
}

func (c *redisSnapshotCache) SetBatch(ctx context.Context, snapshots []domain.InventorySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, snap := range snapshots {
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode inventory snapshot cache: %w", err)
		}
		pipe.Set(ctx, snapshotKey(snap.ItemID), payload, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline set failed: %w", err)
	}
	return nil
}

func (c *redisSnapshotCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, snapshotKeyPrefix, snapshotScanBatchSize)
}

func (n *noopSnapshotCache) Get(ctx context.Context, itemID string) (*domain.InventorySnapshot, bool, error) {
	return nil, false, nil
}

func (n *noopSnapshotCache) SetBatch(ctx context.Context, snapshots []domain.InventorySnapshot) error {
	return nil
}

func (n *noopSnapshotCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func snapshotKey(itemID string) string {
	return fmt.Sprintf("%s:%s", snapshotKeyPrefix, itemID)
}
