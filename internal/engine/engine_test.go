package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"btcduel/internal/domain"
)

// fixedRand returns a rand source that always draws v.
func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

func snap(change float64) domain.PriceSnapshot {
	return domain.PriceSnapshot{Price: 95000, Change24h: change}
}

func TestPredictZeroScoreTieBreak(t *testing.T) {
	// change 0 and a draw of exactly 0.5 zero out every factor; the score is
	// exactly 0 and must resolve DOWN.
	eng := New(fixedRand(0.5))

	assert.Equal(t, domain.PredictionDown, eng.Predict(snap(0)))
}

func TestPredictFollowsScoreSign(t *testing.T) {
	// Draw of 1 maximizes the random term: score > 0 for flat change.
	assert.Equal(t, domain.PredictionUp, New(fixedRand(0.99)).Predict(snap(0)))
	// Draw of 0 minimizes it: score < 0.
	assert.Equal(t, domain.PredictionDown, New(fixedRand(0)).Predict(snap(0)))
}

func TestComputeFactors(t *testing.T) {
	f := ComputeFactors(snap(5), 0.25)

	assert.InDelta(t, math.Tanh(1), f.Momentum, 1e-12)
	assert.InDelta(t, 0.5, f.Volatility, 1e-12)
	// 5% move: contrarian = -(5-3)/5 = -0.4.
	assert.InDelta(t, -0.4, f.Contrarian, 1e-12)
	assert.Equal(t, 0.25, f.Randomness)
}

func TestContrarianActivation(t *testing.T) {
	// Inside the 3% band the contrarian factor stays off.
	assert.Zero(t, ComputeFactors(snap(3), 0.5).Contrarian)
	assert.Zero(t, ComputeFactors(snap(-2.9), 0.5).Contrarian)

	// It saturates at magnitude 0.5 and always opposes the move.
	assert.InDelta(t, -0.5, ComputeFactors(snap(50), 0.5).Contrarian, 1e-12)
	assert.InDelta(t, 0.5, ComputeFactors(snap(-50), 0.5).Contrarian, 1e-12)
}

func TestScoreVolatilityDamping(t *testing.T) {
	base := Factors{Momentum: 0.8, Volatility: 0.5, Randomness: 0.5}
	damped := Factors{Momentum: 0.8, Volatility: 0.9, Randomness: 0.5}

	// Volatility at the 0.5 boundary leaves the score untouched; beyond it
	// the score shrinks by (volatility - 0.5).
	assert.InDelta(t, 0.8*momentumWeight, Score(base), 1e-12)
	assert.InDelta(t, 0.8*momentumWeight*0.6, Score(damped), 1e-12)
}

func TestConfidenceBounds(t *testing.T) {
	changes := []float64{0, 0.5, -3, 7.2, 100, -100, 1000, -1000}
	draws := []float64{0, 0.25, 0.5, 0.999}

	for _, change := range changes {
		for _, draw := range draws {
			conf := New(fixedRand(draw)).Confidence(snap(change))
			assert.GreaterOrEqual(t, conf, 50, "change=%v draw=%v", change, draw)
			assert.LessOrEqual(t, conf, 85, "change=%v draw=%v", change, draw)
		}
	}
}

func TestConfidenceDampedByVolatility(t *testing.T) {
	eng := New(fixedRand(0.5))

	calm := eng.Confidence(snap(0))       // 0.5 + 0.15 = 65%
	turbulent := eng.Confidence(snap(10)) // volatility 1 shaves 20 points

	assert.Equal(t, 65, calm)
	assert.Equal(t, 50, turbulent) // 45 clamps up to the floor
}

func TestRationaleBuckets(t *testing.T) {
	eng := New(nil)

	tests := []struct {
		change     float64
		prediction domain.Prediction
		want       string
	}{
		{0.4, domain.PredictionUp, "Market is stable, expecting slight upward momentum"},
		{-0.4, domain.PredictionDown, "Market is stable, anticipating minor correction"},
		{4, domain.PredictionUp, "Strong bullish momentum, riding the trend"},
		{4, domain.PredictionDown, "Overbought conditions, expecting pullback"},
		{-4, domain.PredictionUp, "Oversold bounce expected"},
		{-4, domain.PredictionDown, "Bearish momentum continues"},
		{2, domain.PredictionUp, "Technical indicators suggest upside"},
		{-2, domain.PredictionDown, "Technical indicators point to downside"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, eng.Rationale(snap(tt.change), tt.prediction))
	}
}

func TestRationaleDeterministic(t *testing.T) {
	eng := New(nil)
	first := eng.Rationale(snap(2.5), domain.PredictionUp)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, eng.Rationale(snap(2.5), domain.PredictionUp))
	}
}
