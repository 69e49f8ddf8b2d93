// Package domain defines the core entities of the prediction duel: game
// sessions, price snapshots, settlement outcomes, and the interfaces that the
// store, feed, and clock implementations satisfy.
package domain

import "time"

// Prediction is a directional call on the BTC price over the game window.
type Prediction string

const (
	PredictionUp   Prediction = "UP"
	PredictionDown Prediction = "DOWN"
)

// Valid reports whether p is one of the two allowed directions.
func (p Prediction) Valid() bool {
	return p == PredictionUp || p == PredictionDown
}

// Opposite returns the other direction.
func (p Prediction) Opposite() Prediction {
	if p == PredictionUp {
		return PredictionDown
	}
	return PredictionUp
}

// GameStatus is the lifecycle state of a session. Transitions are monotonic:
// ACTIVE -> SETTLED, never back.
type GameStatus string

const (
	StatusActive  GameStatus = "ACTIVE"
	StatusSettled GameStatus = "SETTLED"
)

// Winner identifies which side won a settled session.
type Winner string

const (
	WinnerUser     Winner = "USER"
	WinnerOpponent Winner = "OPPONENT"
	WinnerTie      Winner = "TIE"
)

// TieBreakDirection is the named tie-break rule: when the settlement price
// equals the entry price, and when the opponent's decision score is exactly
// zero, the resolved direction is DOWN. Both comparisons use strict
// greater-than, so equality falls through to this rule.
const TieBreakDirection = PredictionDown

// DirectionOf resolves the actual price direction between entry and
// settlement. Equal prices resolve to TieBreakDirection.
func DirectionOf(entryPrice, settlementPrice float64) Prediction {
	if settlementPrice > entryPrice {
		return PredictionUp
	}
	return TieBreakDirection
}

// DetermineWinner compares both predictions against the actual direction.
// Exactly one side correct wins; both correct or both wrong is a tie.
func DetermineWinner(userPrediction, opponentPrediction, actual Prediction) Winner {
	userCorrect := userPrediction == actual
	opponentCorrect := opponentPrediction == actual
	switch {
	case userCorrect && !opponentCorrect:
		return WinnerUser
	case !userCorrect && opponentCorrect:
		return WinnerOpponent
	default:
		return WinnerTie
	}
}

// Default game parameters. Config may override all of them.
const (
	DefaultSettlementDelay = 60 * time.Second
	DefaultReward          = 10
	DefaultSessionMaxAge   = 24 * time.Hour
	DefaultCacheTTL        = 10 * time.Second
)

// PriceSnapshot is an immutable price reading: spot price, 24h percentage
// change, and the time it was observed. Placeholder marks a synthesized value
// produced when the upstream source failed and no cached reading ever
// existed; callers that care about real prices (e.g. health checks) can
// detect it.
type PriceSnapshot struct {
	Price       float64
	Change24h   float64
	ObservedAt  time.Time
	Placeholder bool
}

// GameSession is one instance of the prediction game, from creation through
// settlement. Predictions, entry price, and reward are fixed at creation.
// SettlementPrice, Winner, and SettledAt are set exactly once, together, on
// the ACTIVE -> SETTLED transition.
type GameSession struct {
	ID                 string
	UserID             int64
	UserPrediction     Prediction
	OpponentPrediction Prediction
	EntryPrice         float64
	SettlementPrice    float64 // zero until settled
	Status             GameStatus
	Winner             Winner // empty until settled
	Reward             int64
	CreatedAt          time.Time
	SettledAt          time.Time // zero until settled
}

// Settled reports whether the session has reached its terminal state.
func (g GameSession) Settled() bool {
	return g.Status == StatusSettled
}

// OracleResult is the settlement outcome derived from entry and settlement
// prices. It is recomputed from stored session state on demand, never cached
// separately, so it always agrees with the session record.
type OracleResult struct {
	EntryPrice      float64
	SettlementPrice float64
	PriceChange     float64 // percent
	Direction       Prediction
}

// ResultOf computes the OracleResult for a pair of prices.
func ResultOf(entryPrice, settlementPrice float64) OracleResult {
	return OracleResult{
		EntryPrice:      entryPrice,
		SettlementPrice: settlementPrice,
		PriceChange:     (settlementPrice - entryPrice) / entryPrice * 100,
		Direction:       DirectionOf(entryPrice, settlementPrice),
	}
}

// UserStats aggregates a user's settled sessions. Active sessions are not
// counted anywhere.
type UserStats struct {
	Wins           int
	Losses         int
	Ties           int
	TotalRewardWon int64
}
