// Package notify delivers game lifecycle notifications to operator channels.
// Notifications fan out to all registered senders (Telegram, Discord) and are
// filtered by event type so operators receive only the alerts they care
// about. Delivery is best-effort: failures are logged and never affect game
// state.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"btcduel/internal/domain"
	"btcduel/internal/pricefeed"
)

// Event types emitted by the game service.
const (
	EventGameCreated  = "game_created"
	EventGameSettled  = "game_settled"
	EventFeedDegraded = "feed_degraded"
	EventError        = "error"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a
// set of allowed event types; Notify only forwards messages whose event type
// is in the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice will be forwarded by Notify.
// If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders only if the event type is in
// the allowed list. If no events were configured (empty list), all events
// pass.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, title, message)
}

// GameCreated notifies that a new duel started.
func (n *Notifier) GameCreated(ctx context.Context, session domain.GameSession) error {
	title := fmt.Sprintf("Duel started for user %d", session.UserID)
	message := fmt.Sprintf("user %s vs opponent %s, entry %s, reward %d",
		session.UserPrediction, session.OpponentPrediction,
		pricefeed.FormatUSD(session.EntryPrice), session.Reward,
	)
	return n.Notify(ctx, EventGameCreated, title, message)
}

// GameSettled notifies the outcome of a settled duel.
func (n *Notifier) GameSettled(ctx context.Context, session domain.GameSession, result domain.OracleResult) error {
	title := fmt.Sprintf("Duel settled: %s", session.Winner)
	message := fmt.Sprintf("user %d, %s -> %s (%s), direction %s, user %s vs opponent %s",
		session.UserID,
		pricefeed.FormatUSD(result.EntryPrice),
		pricefeed.FormatUSD(result.SettlementPrice),
		pricefeed.FormatChange(result.PriceChange),
		result.Direction,
		session.UserPrediction, session.OpponentPrediction,
	)
	return n.Notify(ctx, EventGameSettled, title, message)
}

// FeedDegraded notifies that the feed served a placeholder snapshot.
func (n *Notifier) FeedDegraded(ctx context.Context) error {
	return n.Notify(ctx, EventFeedDegraded,
		"Price feed degraded",
		"no upstream data and no cache; placeholder snapshot served",
	)
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a
// single sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}
