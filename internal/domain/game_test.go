package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, PredictionUp, DirectionOf(100, 110))
	assert.Equal(t, PredictionDown, DirectionOf(100, 90))

	// Equal prices resolve via the named tie-break rule.
	assert.Equal(t, TieBreakDirection, DirectionOf(100, 100))
	assert.Equal(t, PredictionDown, DirectionOf(100, 100))
}

func TestDetermineWinner(t *testing.T) {
	tests := []struct {
		name     string
		user     Prediction
		opponent Prediction
		actual   Prediction
		want     Winner
	}{
		{"user correct, opponent wrong", PredictionUp, PredictionDown, PredictionUp, WinnerUser},
		{"opponent correct, user wrong", PredictionUp, PredictionDown, PredictionDown, WinnerOpponent},
		{"both correct", PredictionDown, PredictionDown, PredictionDown, WinnerTie},
		{"both wrong", PredictionUp, PredictionUp, PredictionDown, WinnerTie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineWinner(tt.user, tt.opponent, tt.actual))
		})
	}
}

func TestResultOf(t *testing.T) {
	res := ResultOf(100, 110)
	assert.Equal(t, 100.0, res.EntryPrice)
	assert.Equal(t, 110.0, res.SettlementPrice)
	assert.InDelta(t, 10.0, res.PriceChange, 1e-9)
	assert.Equal(t, PredictionUp, res.Direction)

	res = ResultOf(100, 90)
	assert.InDelta(t, -10.0, res.PriceChange, 1e-9)
	assert.Equal(t, PredictionDown, res.Direction)
}

func TestPredictionHelpers(t *testing.T) {
	assert.True(t, PredictionUp.Valid())
	assert.True(t, PredictionDown.Valid())
	assert.False(t, Prediction("SIDEWAYS").Valid())

	assert.Equal(t, PredictionDown, PredictionUp.Opposite())
	assert.Equal(t, PredictionUp, PredictionDown.Opposite())
}
