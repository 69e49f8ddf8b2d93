// Package oracle settles game sessions against observed price moves once the
// settlement delay has elapsed.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"btcduel/internal/domain"
)

// Feed is the price source the oracle consults at settlement time.
type Feed interface {
	Current(ctx context.Context) domain.PriceSnapshot
}

// Oracle gates settlement on elapsed time, pulls a fresh price, and commits
// outcomes through the session store.
type Oracle struct {
	store  domain.SessionStore
	feed   Feed
	clock  domain.Clock
	delay  time.Duration
	logger *slog.Logger
}

// New creates an Oracle with the given settlement delay.
func New(store domain.SessionStore, feed Feed, clock domain.Clock, delay time.Duration, logger *slog.Logger) *Oracle {
	return &Oracle{
		store:  store,
		feed:   feed,
		clock:  clock,
		delay:  delay,
		logger: logger.With(slog.String("component", "oracle")),
	}
}

// CheckAndSettle resolves the session's outcome if it can.
//
// The boolean is false both for an unknown session and for one whose delay
// has not yet elapsed; callers that need to tell these apart check session
// existence first. This conflation is deliberate and matches the upstream
// caller contract (the service layer exposes a disambiguated result).
//
// A session that is already SETTLED yields its result recomputed from the
// stored prices, with no new fetch and no mutation, so repeated calls are
// idempotent.
func (o *Oracle) CheckAndSettle(ctx context.Context, id string) (domain.OracleResult, bool) {
	session, err := o.store.Get(ctx, id)
	if err != nil {
		o.logger.DebugContext(ctx, "session not found", slog.String("id", id))
		return domain.OracleResult{}, false
	}

	if session.Settled() {
		return domain.ResultOf(session.EntryPrice, session.SettlementPrice), true
	}

	elapsed := o.clock.Now().Sub(session.CreatedAt)
	if elapsed < o.delay {
		return domain.OracleResult{}, false
	}

	snap := o.feed.Current(ctx)
	settled, err := o.store.Settle(ctx, id, snap.Price)
	if err != nil {
		// A concurrent settlement may have won the race; serve its result.
		if errors.Is(err, domain.ErrAlreadySettled) {
			if session, gerr := o.store.Get(ctx, id); gerr == nil && session.Settled() {
				return domain.ResultOf(session.EntryPrice, session.SettlementPrice), true
			}
		}
		o.logger.ErrorContext(ctx, "settlement failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return domain.OracleResult{}, false
	}

	result := domain.ResultOf(settled.EntryPrice, settled.SettlementPrice)
	o.logger.InfoContext(ctx, "session settled",
		slog.String("id", settled.ID),
		slog.Int64("user_id", settled.UserID),
		slog.Float64("entry_price", result.EntryPrice),
		slog.Float64("settlement_price", result.SettlementPrice),
		slog.String("direction", string(result.Direction)),
		slog.String("winner", string(settled.Winner)),
	)
	return result, true
}

// TimeUntilSettlement returns how long the session must still wait, floored
// at zero.
func (o *Oracle) TimeUntilSettlement(session domain.GameSession) time.Duration {
	remaining := o.delay - o.clock.Now().Sub(session.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatRemaining renders a wait duration for display: "Ready to settle",
// "37s", or "1m 12s".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "Ready to settle"
	}

	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// Winnings returns the amounts at stake: the user stands to win the session
// reward, the opponent plays for nothing.
func Winnings(session domain.GameSession) (userWin, opponentWin int64) {
	return session.Reward, 0
}

// Healthy reports whether the oracle can obtain a real, positive price.
func (o *Oracle) Healthy(ctx context.Context) bool {
	snap := o.feed.Current(ctx)
	return snap.Price > 0 && !snap.Placeholder
}
