// Package service exposes the engine to presentation collaborators: starting
// duels, checking settlement, and reading stats.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"btcduel/internal/domain"
	"btcduel/internal/engine"
	"btcduel/internal/notify"
	"btcduel/internal/oracle"
	"btcduel/internal/pricefeed"
)

// CheckOutcome tags the three possible results of a settlement check. The
// oracle itself conflates "not found" and "not ready"; this layer tells them
// apart for callers.
type CheckOutcome string

const (
	CheckNotFound CheckOutcome = "NOT_FOUND"
	CheckNotReady CheckOutcome = "NOT_READY"
	CheckSettled  CheckOutcome = "SETTLED"
)

// CheckResult is the disambiguated settlement-check response.
type CheckResult struct {
	Outcome    CheckOutcome
	Remaining  time.Duration      // set when NOT_READY
	Session    domain.GameSession // set when NOT_READY or SETTLED
	Result     domain.OracleResult
	RewardPaid int64 // reward credited to the user; zero unless they won
}

// StartedGame is the response to StartGame: the created session plus the
// opponent's display artifacts.
type StartedGame struct {
	Session            domain.GameSession
	Snapshot           domain.PriceSnapshot
	OpponentConfidence int
	OpponentRationale  string
}

// GameService orchestrates feed, engine, store, and oracle for the
// presentation layer.
type GameService struct {
	store    domain.SessionStore
	feed     *pricefeed.Feed
	engine   *engine.Engine
	oracle   *oracle.Oracle
	notifier *notify.Notifier
	reward   int64
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewGameService creates a GameService. reward is the fixed amount staked on
// every session; maxAge bounds session retention for CleanupExpired.
func NewGameService(
	store domain.SessionStore,
	feed *pricefeed.Feed,
	eng *engine.Engine,
	orc *oracle.Oracle,
	notifier *notify.Notifier,
	reward int64,
	maxAge time.Duration,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		store:    store,
		feed:     feed,
		engine:   eng,
		oracle:   orc,
		notifier: notifier,
		reward:   reward,
		maxAge:   maxAge,
		logger:   logger.With(slog.String("component", "game_service")),
	}
}

// StartGame creates a new duel: it takes the current price as the entry
// price, asks the engine for the opposing prediction, and registers the
// session. A user with an ACTIVE session cannot start another one
// (domain.ErrActiveGame).
func (s *GameService) StartGame(ctx context.Context, userID int64, userPrediction domain.Prediction) (StartedGame, error) {
	if userID <= 0 {
		return StartedGame{}, fmt.Errorf("service: user id %d: %w", userID, domain.ErrInvalidInput)
	}
	if !userPrediction.Valid() {
		return StartedGame{}, fmt.Errorf("service: prediction %q: %w", userPrediction, domain.ErrInvalidInput)
	}

	if _, err := s.store.ActiveSession(ctx, userID); err == nil {
		return StartedGame{}, domain.ErrActiveGame
	}

	snap := s.feed.Current(ctx)
	if snap.Placeholder {
		_ = s.notifier.FeedDegraded(ctx)
	}

	opponentPrediction := s.engine.Predict(snap)

	session, err := s.store.Create(ctx, userID, userPrediction, opponentPrediction, snap.Price, s.reward)
	if err != nil {
		return StartedGame{}, fmt.Errorf("service: create session: %w", err)
	}

	s.logger.InfoContext(ctx, "game started",
		slog.String("id", session.ID),
		slog.Int64("user_id", userID),
		slog.String("user_prediction", string(userPrediction)),
		slog.String("opponent_prediction", string(opponentPrediction)),
		slog.Float64("entry_price", snap.Price),
	)
	_ = s.notifier.GameCreated(ctx, session)

	return StartedGame{
		Session:            session,
		Snapshot:           snap,
		OpponentConfidence: s.engine.Confidence(snap),
		OpponentRationale:  s.engine.Rationale(snap, opponentPrediction),
	}, nil
}

// CheckGame runs a settlement check and returns a tagged result: NOT_FOUND
// for an unknown id, NOT_READY with the remaining wait while the delay has
// not elapsed, or SETTLED with the final outcome.
func (s *GameService) CheckGame(ctx context.Context, id string) CheckResult {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return CheckResult{Outcome: CheckNotFound}
	}

	alreadySettled := session.Settled()

	result, ok := s.oracle.CheckAndSettle(ctx, id)
	if !ok {
		return CheckResult{
			Outcome:   CheckNotReady,
			Remaining: s.oracle.TimeUntilSettlement(session),
			Session:   session,
		}
	}

	settled, err := s.store.Get(ctx, id)
	if err != nil {
		// Cleanup raced the check; treat as gone.
		return CheckResult{Outcome: CheckNotFound}
	}

	var paid int64
	if settled.Winner == domain.WinnerUser {
		paid = settled.Reward
	}

	if !alreadySettled {
		_ = s.notifier.GameSettled(ctx, settled, result)
	}

	return CheckResult{
		Outcome:    CheckSettled,
		Session:    settled,
		Result:     result,
		RewardPaid: paid,
	}
}

// Stats returns the user's aggregate results over settled sessions.
func (s *GameService) Stats(ctx context.Context, userID int64) (domain.UserStats, error) {
	stats, err := s.store.UserStats(ctx, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("service: user stats: %w", err)
	}
	return stats, nil
}

// ActiveGame returns the user's latest ACTIVE session together with its
// remaining wait, or domain.ErrNotFound.
func (s *GameService) ActiveGame(ctx context.Context, userID int64) (domain.GameSession, time.Duration, error) {
	session, err := s.store.ActiveSession(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.GameSession{}, 0, domain.ErrNotFound
		}
		return domain.GameSession{}, 0, fmt.Errorf("service: active session: %w", err)
	}
	return session, s.oracle.TimeUntilSettlement(session), nil
}

// Snapshot returns the current price snapshot plus its display variants.
func (s *GameService) Snapshot(ctx context.Context) (domain.PriceSnapshot, string, string) {
	snap := s.feed.Current(ctx)
	return snap, pricefeed.FormatUSD(snap.Price), pricefeed.FormatChange(snap.Change24h)
}

// SettleDue runs a settlement check over every due session. It is called by
// the sweeper loop and returns the number of sessions settled.
func (s *GameService) SettleDue(ctx context.Context, delay time.Duration) int {
	due, err := s.store.ListDue(ctx, delay)
	if err != nil {
		s.logger.ErrorContext(ctx, "list due sessions", slog.String("error", err.Error()))
		return 0
	}

	settled := 0
	for _, session := range due {
		if res := s.CheckGame(ctx, session.ID); res.Outcome == CheckSettled {
			settled++
		}
	}
	return settled
}

// CleanupExpired removes sessions older than the configured max age and
// returns the number removed.
func (s *GameService) CleanupExpired(ctx context.Context) int {
	removed, err := s.store.CleanupExpired(ctx, s.maxAge)
	if err != nil {
		s.logger.ErrorContext(ctx, "cleanup expired sessions", slog.String("error", err.Error()))
		return 0
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "expired sessions removed", slog.Int("count", removed))
	}
	return removed
}
