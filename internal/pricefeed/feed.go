// Package pricefeed provides cached access to the upstream price source.
//
// The feed trades freshness for availability, by design: a caller of Current
// always receives a snapshot. The lookup order is fresh in-process cache,
// shared Redis cache (when configured), upstream fetch, stale in-process
// cache, and finally a synthesized placeholder. Upstream failures are logged
// and never surfaced as errors.
package pricefeed

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"btcduel/internal/domain"
	"btcduel/internal/platform/coingecko"
)

// Fetcher is the upstream quote source. *coingecko.Client satisfies it; tests
// substitute fakes.
type Fetcher interface {
	SimplePrice(ctx context.Context) (coingecko.Quote, error)
}

// Feed caches price snapshots in front of a Fetcher.
type Feed struct {
	fetcher Fetcher
	shared  domain.SnapshotCache // optional, may be nil
	clock   domain.Clock
	asset   string
	ttl     time.Duration
	logger  *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	cached domain.PriceSnapshot
	hasOne bool
}

// New creates a Feed. shared may be nil to disable the Redis layer; ttl is
// the freshness window of the in-process cache.
func New(fetcher Fetcher, shared domain.SnapshotCache, clock domain.Clock, asset string, ttl time.Duration, logger *slog.Logger) *Feed {
	return &Feed{
		fetcher: fetcher,
		shared:  shared,
		clock:   clock,
		asset:   asset,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "pricefeed")),
	}
}

// Current returns the latest price snapshot. It never returns an error; see
// the package comment for the fallback order.
func (f *Feed) Current(ctx context.Context) domain.PriceSnapshot {
	now := f.clock.Now()

	f.mu.RLock()
	cached, hasOne := f.cached, f.hasOne
	f.mu.RUnlock()

	if hasOne && now.Sub(cached.ObservedAt) < f.ttl {
		return cached
	}

	// Collapse concurrent misses into a single refresh; losers reuse the
	// winner's snapshot.
	v, _, _ := f.group.Do(f.asset, func() (interface{}, error) {
		return f.refresh(ctx), nil
	})
	return v.(domain.PriceSnapshot)
}

// refresh performs one cache-miss resolution: shared cache, upstream, stale
// fallback, placeholder. The returned snapshot is stored as the new
// in-process cache entry unless it is a placeholder.
func (f *Feed) refresh(ctx context.Context) domain.PriceSnapshot {
	now := f.clock.Now()

	// Shared cache first: another instance may have fetched within the
	// freshness window already.
	if f.shared != nil {
		snap, err := f.shared.GetSnapshot(ctx, f.asset)
		if err == nil && now.Sub(snap.ObservedAt) < f.ttl {
			f.store(snap)
			return snap
		}
	}

	quote, err := f.fetcher.SimplePrice(ctx)
	if err == nil {
		snap := domain.PriceSnapshot{
			Price:      quote.Price,
			Change24h:  quote.Change24h,
			ObservedAt: now,
		}
		f.store(snap)
		if f.shared != nil {
			if werr := f.shared.SetSnapshot(ctx, f.asset, snap); werr != nil {
				f.logger.WarnContext(ctx, "shared snapshot write failed",
					slog.String("error", werr.Error()),
				)
			}
		}
		return snap
	}

	f.logger.WarnContext(ctx, "upstream price fetch failed, falling back",
		slog.String("asset", f.asset),
		slog.String("error", err.Error()),
	)

	// Stale local cache beats no data.
	f.mu.RLock()
	cached, hasOne := f.cached, f.hasOne
	f.mu.RUnlock()
	if hasOne {
		return cached
	}

	// Stale shared cache is still a real reading.
	if f.shared != nil {
		if snap, serr := f.shared.GetSnapshot(ctx, f.asset); serr == nil {
			f.store(snap)
			return snap
		}
	}

	// Nothing was ever fetched: synthesize a clearly marked placeholder so
	// callers never observe a hard failure.
	placeholder := domain.PriceSnapshot{
		Price:       95000 + rand.Float64()*2000,
		Change24h:   (rand.Float64() - 0.5) * 10,
		ObservedAt:  now,
		Placeholder: true,
	}
	f.logger.WarnContext(ctx, "serving placeholder snapshot, no cache populated",
		slog.String("asset", f.asset),
	)
	return placeholder
}

// store replaces the in-process cache atomically. Placeholders are not
// cached; the next call should retry upstream.
func (f *Feed) store(snap domain.PriceSnapshot) {
	if snap.Placeholder {
		return
	}
	f.mu.Lock()
	f.cached = snap
	f.hasOne = true
	f.mu.Unlock()
}
