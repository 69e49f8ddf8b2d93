// Package engine implements the opponent's decision heuristic: a weighted
// blend of momentum, mean reversion, and randomness derived from the 24h
// price change, with confidence damped in turbulent markets.
package engine

import (
	"math"
	"math/rand"

	"btcduel/internal/domain"
)

// Factor weights for the decision score.
const (
	momentumWeight   = 0.35
	contrarianWeight = 0.25
	randomWeight     = 0.40
)

// Factors are the four signals computed from a price snapshot. Momentum and
// contrarian are in (-1, 1); volatility and randomness in [0, 1].
type Factors struct {
	Momentum   float64
	Volatility float64
	Contrarian float64
	Randomness float64
}

// Engine produces the opponent's prediction, confidence, and rationale.
// Rand is the only source of nondeterminism; tests inject fixed draws.
type Engine struct {
	rand func() float64
}

// New creates an Engine using the given uniform [0, 1) source. A nil source
// falls back to math/rand.
func New(randSource func() float64) *Engine {
	if randSource == nil {
		randSource = rand.Float64
	}
	return &Engine{rand: randSource}
}

// Predict returns the opponent's directional call for the snapshot. A score
// of exactly zero resolves to domain.TieBreakDirection.
func (e *Engine) Predict(snap domain.PriceSnapshot) domain.Prediction {
	factors := ComputeFactors(snap, e.rand())
	if Score(factors) > 0 {
		return domain.PredictionUp
	}
	return domain.TieBreakDirection
}

// ComputeFactors derives the decision signals from the snapshot's 24h change
// and the given randomness draw.
func ComputeFactors(snap domain.PriceSnapshot, draw float64) Factors {
	change := snap.Change24h

	// Momentum follows the trend, squashed into (-1, 1).
	momentum := math.Tanh(change / 5)

	// Volatility estimate from the absolute change, capped at 1.
	volatility := math.Min(math.Abs(change)/10, 1)

	// Mean-reversion pressure: activates beyond a 3% move, saturates at 0.5
	// magnitude, always points against the move.
	contrarian := 0.0
	if math.Abs(change) > 3 {
		contrarian = -sign(change) * math.Min((math.Abs(change)-3)/5, 0.5)
	}

	return Factors{
		Momentum:   momentum,
		Volatility: volatility,
		Contrarian: contrarian,
		Randomness: draw,
	}
}

// Score combines the factors into the decision score. Positive means UP. The
// random draw is recentered to (-1, 1) before weighting, and high volatility
// scales the whole score down.
func Score(f Factors) float64 {
	score := f.Momentum*momentumWeight +
		f.Contrarian*contrarianWeight +
		(f.Randomness-0.5)*2*randomWeight

	if f.Volatility > 0.5 {
		score *= 1 - (f.Volatility - 0.5)
	}
	return score
}

// Confidence returns a display confidence percentage in [50, 85]. It is not
// derived from the decision score and carries no accuracy guarantee.
func (e *Engine) Confidence(snap domain.PriceSnapshot) int {
	volatility := math.Min(math.Abs(snap.Change24h)/10, 1)
	confidence := int(math.Round((0.5 + e.rand()*0.3 - volatility*0.2) * 100))

	if confidence < 50 {
		return 50
	}
	if confidence > 85 {
		return 85
	}
	return confidence
}

// Rationale returns a fixed explanation string keyed by the magnitude bucket
// of the 24h change and the prediction. Deterministic; no randomness.
func (e *Engine) Rationale(snap domain.PriceSnapshot, prediction domain.Prediction) string {
	change := snap.Change24h

	switch {
	case math.Abs(change) < 1:
		if prediction == domain.PredictionUp {
			return "Market is stable, expecting slight upward momentum"
		}
		return "Market is stable, anticipating minor correction"
	case change > 3:
		if prediction == domain.PredictionUp {
			return "Strong bullish momentum, riding the trend"
		}
		return "Overbought conditions, expecting pullback"
	case change < -3:
		if prediction == domain.PredictionUp {
			return "Oversold bounce expected"
		}
		return "Bearish momentum continues"
	default:
		if prediction == domain.PredictionUp {
			return "Technical indicators suggest upside"
		}
		return "Technical indicators point to downside"
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
