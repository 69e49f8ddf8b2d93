package app

import (
	"context"
	"fmt"
	"log/slog"

	"btcduel/internal/cache/redis"
	"btcduel/internal/config"
	"btcduel/internal/domain"
	"btcduel/internal/engine"
	"btcduel/internal/notify"
	"btcduel/internal/oracle"
	"btcduel/internal/platform/coingecko"
	"btcduel/internal/pricefeed"
	"btcduel/internal/service"
	"btcduel/internal/store/memory"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Store    domain.SessionStore
	Feed     *pricefeed.Feed
	Engine   *engine.Engine
	Oracle   *oracle.Oracle
	Game     *service.GameService
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	clock := domain.SystemClock{}

	// --- Shared snapshot cache (only when Redis is enabled) ---
	var shared domain.SnapshotCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		shared = redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL.Duration)
	}

	// --- Price feed ---
	upstream := coingecko.New(
		cfg.Feed.BaseURL,
		cfg.Feed.Asset,
		cfg.Feed.VsCurrency,
		cfg.Feed.RequestTimeout.Duration,
	)
	feed := pricefeed.New(upstream, shared, clock, cfg.Feed.Asset, cfg.Feed.CacheTTL.Duration, logger)

	// --- Core ---
	store := memory.NewSessionStore(clock)
	eng := engine.New(nil)
	orc := oracle.New(store, feed, clock, cfg.Game.SettlementDelay.Duration, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	notifier := notify.NewNotifier(senders, cfg.Notify.Events, logger)

	game := service.NewGameService(
		store, feed, eng, orc, notifier,
		cfg.Game.Reward,
		cfg.Game.SessionMaxAge.Duration,
		logger,
	)

	return &Dependencies{
		Store:    store,
		Feed:     feed,
		Engine:   eng,
		Oracle:   orc,
		Game:     game,
		Notifier: notifier,
	}, cleanup, nil
}
