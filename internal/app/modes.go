package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"btcduel/internal/domain"
	"btcduel/internal/oracle"
	"btcduel/internal/pricefeed"
	"btcduel/internal/service"
)

// ServeMode runs the engine as a long-lived process: a sweeper loop that
// settles due sessions and a cleanup loop that removes expired ones. The
// store itself never schedules anything; these loops are the external
// scheduler the session lifecycle expects.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Duration("sweep_interval", a.cfg.Game.SweepInterval.Duration),
		slog.Duration("cleanup_interval", a.cfg.Game.CleanupInterval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runSweeper(ctx, deps.Game)
	})
	g.Go(func() error {
		return a.runCleanup(ctx, deps.Game)
	})

	return g.Wait()
}

// runSweeper periodically settles every due session.
func (a *App) runSweeper(ctx context.Context, game *service.GameService) error {
	ticker := time.NewTicker(a.cfg.Game.SweepInterval.Duration)
	defer ticker.Stop()

	delay := a.cfg.Game.SettlementDelay.Duration
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := game.SettleDue(ctx, delay); n > 0 {
				a.logger.InfoContext(ctx, "sweep settled sessions", slog.Int("count", n))
			}
		}
	}
}

// runCleanup periodically removes sessions past the retention age.
func (a *App) runCleanup(ctx context.Context, game *service.GameService) error {
	ticker := time.NewTicker(a.cfg.Game.CleanupInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			game.CleanupExpired(ctx)
		}
	}
}

// SimulateMode plays a batch of self-play duels against the engine: random
// user predictions, real price feed, real settlement delay. It exercises the
// whole engine end to end without any presentation layer and prints per-user
// stats when done.
func (a *App) SimulateMode(ctx context.Context, deps *Dependencies) error {
	games := a.cfg.Simulate.Games
	users := a.cfg.Simulate.Users
	delay := a.cfg.Game.SettlementDelay.Duration

	a.logger.InfoContext(ctx, "starting simulate mode",
		slog.Int("games", games),
		slog.Int("users", users),
		slog.Duration("settlement_delay", delay),
	)

	for i := 0; i < games; i++ {
		userID := int64(i%users + 1)

		userPrediction := domain.PredictionUp
		if rand.Float64() < 0.5 {
			userPrediction = domain.PredictionDown
		}

		started, err := deps.Game.StartGame(ctx, userID, userPrediction)
		if errors.Is(err, domain.ErrActiveGame) {
			// Previous duel for this user still waiting; settle it first.
			if err := a.waitAndSettle(ctx, deps, userID); err != nil {
				return err
			}
			started, err = deps.Game.StartGame(ctx, userID, userPrediction)
			if err != nil {
				return fmt.Errorf("app: simulate start game: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("app: simulate start game: %w", err)
		}

		a.logger.InfoContext(ctx, "simulated game started",
			slog.String("id", started.Session.ID),
			slog.Int64("user_id", userID),
			slog.String("user_prediction", string(userPrediction)),
			slog.String("opponent_prediction", string(started.Session.OpponentPrediction)),
			slog.Int("opponent_confidence", started.OpponentConfidence),
			slog.String("opponent_rationale", started.OpponentRationale),
		)
	}

	// Settle everything that is still open.
	for userID := int64(1); userID <= int64(users); userID++ {
		if err := a.waitAndSettle(ctx, deps, userID); err != nil {
			return err
		}
	}

	for userID := int64(1); userID <= int64(users); userID++ {
		stats, err := deps.Game.Stats(ctx, userID)
		if err != nil {
			return fmt.Errorf("app: simulate stats: %w", err)
		}
		a.logger.InfoContext(ctx, "simulation result",
			slog.Int64("user_id", userID),
			slog.Int("wins", stats.Wins),
			slog.Int("losses", stats.Losses),
			slog.Int("ties", stats.Ties),
			slog.Int64("reward_won", stats.TotalRewardWon),
		)
	}

	return nil
}

// waitAndSettle blocks until the user's active duel (if any) settles.
func (a *App) waitAndSettle(ctx context.Context, deps *Dependencies, userID int64) error {
	session, remaining, err := deps.Game.ActiveGame(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("app: simulate active game: %w", err)
	}

	a.logger.InfoContext(ctx, "waiting for settlement",
		slog.String("id", session.ID),
		slog.String("remaining", oracle.FormatRemaining(remaining)),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
	}

	res := deps.Game.CheckGame(ctx, session.ID)
	if res.Outcome != service.CheckSettled {
		return fmt.Errorf("app: simulate settle %s: unexpected outcome %s", session.ID, res.Outcome)
	}

	a.logger.InfoContext(ctx, "simulated game settled",
		slog.String("id", session.ID),
		slog.String("winner", string(res.Session.Winner)),
		slog.String("change", pricefeed.FormatChange(res.Result.PriceChange)),
		slog.Int64("reward_paid", res.RewardPaid),
	)
	return nil
}

// PriceMode fetches one snapshot, logs it with display formatting, and
// exits. Useful as a connectivity check.
func (a *App) PriceMode(ctx context.Context, deps *Dependencies) error {
	snap, price, change := deps.Game.Snapshot(ctx)

	a.logger.InfoContext(ctx, "current price",
		slog.String("price", price),
		slog.String("change_24h", change),
		slog.Time("observed_at", snap.ObservedAt),
		slog.Bool("placeholder", snap.Placeholder),
	)

	if snap.Placeholder {
		return fmt.Errorf("app: price check: %w", domain.ErrFeedUnavailable)
	}
	return nil
}
