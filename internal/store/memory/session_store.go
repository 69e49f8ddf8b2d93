// Package memory implements domain.SessionStore as a process-local guarded
// map. Sessions live only for the lifetime of the process; durability is an
// explicit non-goal of the engine.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"btcduel/internal/domain"
)

// SessionStore holds all game sessions plus a per-user index of session ids
// in insertion order. A single RWMutex guards both maps; in particular the
// status check inside Settle and the commit of the outcome happen under one
// write lock, so exactly one ACTIVE -> SETTLED transition can ever win.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.GameSession
	byUser   map[int64][]string
	clock    domain.Clock
}

// NewSessionStore creates an empty SessionStore using the given clock for
// creation and settlement timestamps.
func NewSessionStore(clock domain.Clock) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.GameSession),
		byUser:   make(map[int64][]string),
		clock:    clock,
	}
}

// Create allocates a new ACTIVE session and appends it to the user's index.
func (s *SessionStore) Create(_ context.Context, userID int64, userPrediction, opponentPrediction domain.Prediction, entryPrice float64, reward int64) (domain.GameSession, error) {
	if userID <= 0 {
		return domain.GameSession{}, fmt.Errorf("memory: user id %d: %w", userID, domain.ErrInvalidInput)
	}
	if !userPrediction.Valid() || !opponentPrediction.Valid() {
		return domain.GameSession{}, fmt.Errorf("memory: prediction: %w", domain.ErrInvalidInput)
	}
	if entryPrice <= 0 {
		return domain.GameSession{}, fmt.Errorf("memory: entry price %v: %w", entryPrice, domain.ErrInvalidInput)
	}

	session := domain.GameSession{
		ID:                 "game_" + uuid.NewString(),
		UserID:             userID,
		UserPrediction:     userPrediction,
		OpponentPrediction: opponentPrediction,
		EntryPrice:         entryPrice,
		Status:             domain.StatusActive,
		Reward:             reward,
		CreatedAt:          s.clock.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	s.byUser[userID] = append(s.byUser[userID], session.ID)

	return session, nil
}

// Get returns the session by id, or domain.ErrNotFound.
func (s *SessionStore) Get(_ context.Context, id string) (domain.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.GameSession{}, domain.ErrNotFound
	}
	return session, nil
}

// Settle commits the outcome of an ACTIVE session under the write lock. A
// second call for the same id returns domain.ErrAlreadySettled without
// touching the stored record.
func (s *SessionStore) Settle(_ context.Context, id string, settlementPrice float64) (domain.GameSession, error) {
	if settlementPrice <= 0 {
		return domain.GameSession{}, fmt.Errorf("memory: settlement price %v: %w", settlementPrice, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.GameSession{}, domain.ErrNotFound
	}
	if session.Status != domain.StatusActive {
		return domain.GameSession{}, domain.ErrAlreadySettled
	}

	actual := domain.DirectionOf(session.EntryPrice, settlementPrice)
	session.SettlementPrice = settlementPrice
	session.Winner = domain.DetermineWinner(session.UserPrediction, session.OpponentPrediction, actual)
	session.Status = domain.StatusSettled
	session.SettledAt = s.clock.Now()

	s.sessions[id] = session
	return session, nil
}

// UserStats aggregates the user's settled sessions; active sessions and ids
// removed by cleanup are skipped. Reward is summed only for USER wins.
func (s *SessionStore) UserStats(_ context.Context, userID int64) (domain.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.UserStats
	for _, id := range s.byUser[userID] {
		session, ok := s.sessions[id]
		if !ok || session.Status != domain.StatusSettled {
			continue
		}
		switch session.Winner {
		case domain.WinnerUser:
			stats.Wins++
			stats.TotalRewardWon += session.Reward
		case domain.WinnerOpponent:
			stats.Losses++
		default:
			stats.Ties++
		}
	}
	return stats, nil
}

// ActiveSession returns the user's most recent ACTIVE session, scanning the
// index newest-first, or domain.ErrNotFound.
func (s *SessionStore) ActiveSession(_ context.Context, userID int64) (domain.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	for i := len(ids) - 1; i >= 0; i-- {
		session, ok := s.sessions[ids[i]]
		if ok && session.Status == domain.StatusActive {
			return session, nil
		}
	}
	return domain.GameSession{}, domain.ErrNotFound
}

// ListDue returns ACTIVE sessions whose settlement delay has elapsed, oldest
// first.
func (s *SessionStore) ListDue(_ context.Context, delay time.Duration) ([]domain.GameSession, error) {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []domain.GameSession
	for _, session := range s.sessions {
		if session.Status == domain.StatusActive && now.Sub(session.CreatedAt) >= delay {
			due = append(due, session)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	return due, nil
}

// CleanupExpired removes sessions created more than maxAge ago, regardless of
// status, along with their user-index entries. It returns the number removed.
func (s *SessionStore) CleanupExpired(_ context.Context, maxAge time.Duration) (int, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) > maxAge {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	for userID, ids := range s.byUser {
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := s.sessions[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(s.byUser, userID)
		} else {
			s.byUser[userID] = kept
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Compile-time interface check.
var _ domain.SessionStore = (*SessionStore)(nil)
