package domain

import (
	"context"
	"time"
)

// SessionStore is the process-wide registry of game sessions. It is the sole
// mutator of sessions: creation and the single ACTIVE -> SETTLED transition
// both happen inside it, under whatever mutual exclusion the implementation
// provides, so concurrent settlement attempts serialize on the status check.
type SessionStore interface {
	// Create allocates a new ACTIVE session and appends it to the owning
	// user's index.
	Create(ctx context.Context, userID int64, userPrediction, opponentPrediction Prediction, entryPrice float64, reward int64) (GameSession, error)

	// Get returns the session by id, or ErrNotFound. Absence is a normal
	// outcome for unknown or cleaned-up ids.
	Get(ctx context.Context, id string) (GameSession, error)

	// Settle commits the outcome for an ACTIVE session: actual direction,
	// winner, settlement price, and timestamp. It returns ErrNotFound for an
	// unknown id and ErrAlreadySettled for a second call, so settlement never
	// double-commits.
	Settle(ctx context.Context, id string, settlementPrice float64) (GameSession, error)

	// UserStats aggregates the user's settled sessions.
	UserStats(ctx context.Context, userID int64) (UserStats, error)

	// ActiveSession returns the user's most recent ACTIVE session, or
	// ErrNotFound when none exists.
	ActiveSession(ctx context.Context, userID int64) (GameSession, error)

	// ListDue returns ACTIVE sessions whose settlement delay has elapsed.
	ListDue(ctx context.Context, delay time.Duration) ([]GameSession, error)

	// CleanupExpired removes sessions created more than maxAge ago,
	// regardless of status, and returns the number removed.
	CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error)
}

// SnapshotCache is an optional shared cache of price snapshots, letting
// multiple instances pool their upstream quota. Implementations must treat
// failures as cache misses; the feed never surfaces cache errors.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, asset string, snap PriceSnapshot) error
	GetSnapshot(ctx context.Context, asset string) (PriceSnapshot, error)
}
