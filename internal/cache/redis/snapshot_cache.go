package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"btcduel/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache using Redis hashes. Each
// asset's latest reading is stored as a hash at key "snapshot:{asset}" with
// fields "price", "change24h", and "ts" (Unix nanosecond timestamp). Keys
// expire after the configured TTL so a dead producer cannot serve snapshots
// forever.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. A zero
// ttl disables expiry.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

func snapshotKey(asset string) string {
	return "snapshot:" + asset
}

// SetSnapshot stores the latest snapshot for an asset. Placeholder snapshots
// are never written; sharing a synthesized value would poison other
// instances' caches.
func (sc *SnapshotCache) SetSnapshot(ctx context.Context, asset string, snap domain.PriceSnapshot) error {
	if snap.Placeholder {
		return nil
	}

	key := snapshotKey(asset)
	fields := map[string]interface{}{
		"price":     strconv.FormatFloat(snap.Price, 'f', -1, 64),
		"change24h": strconv.FormatFloat(snap.Change24h, 'f', -1, 64),
		"ts":        strconv.FormatInt(snap.ObservedAt.UnixNano(), 10),
	}

	pipe := sc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if sc.ttl > 0 {
		pipe.Expire(ctx, key, sc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", asset, err)
	}
	return nil
}

// GetSnapshot retrieves the latest snapshot for an asset. It returns
// domain.ErrNotFound when the key does not exist or holds an incomplete
// hash.
func (sc *SnapshotCache) GetSnapshot(ctx context.Context, asset string) (domain.PriceSnapshot, error) {
	key := snapshotKey(asset)
	vals, err := sc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("redis: get snapshot %s: %w", asset, err)
	}
	if len(vals) == 0 {
		return domain.PriceSnapshot{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return domain.PriceSnapshot{}, domain.ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("redis: parse price %s: %w", asset, err)
	}

	change, err := strconv.ParseFloat(vals["change24h"], 64)
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("redis: parse change24h %s: %w", asset, err)
	}

	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("redis: parse ts %s: %w", asset, err)
	}

	return domain.PriceSnapshot{
		Price:      price,
		Change24h:  change,
		ObservedAt: time.Unix(0, tsNano),
	}, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
