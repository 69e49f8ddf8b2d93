package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcduel/internal/domain"
)

type recordingSender struct {
	name     string
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersEvents(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, []string{EventGameSettled}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), EventGameCreated, "a", "b"))
	assert.Empty(t, sender.titles)

	require.NoError(t, n.Notify(context.Background(), EventGameSettled, "a", "b"))
	assert.Equal(t, []string{"a"}, sender.titles)
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())

	for _, event := range []string{EventGameCreated, EventGameSettled, EventFeedDegraded, EventError} {
		require.NoError(t, n.Notify(context.Background(), event, event, "body"))
	}
	assert.Len(t, sender.titles, 4)
}

func TestDispatchCollectsSenderErrors(t *testing.T) {
	failing := &recordingSender{name: "telegram", err: errors.New("boom")}
	working := &recordingSender{name: "discord"}
	n := NewNotifier([]Sender{failing, working}, nil, discardLogger())

	err := n.Notify(context.Background(), EventError, "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram: boom")

	// The failing sender did not block delivery to the rest.
	assert.Equal(t, []string{"a"}, working.titles)
}

func TestGameSettledMessage(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())

	session := domain.GameSession{
		ID:                 "game_1",
		UserID:             42,
		UserPrediction:     domain.PredictionUp,
		OpponentPrediction: domain.PredictionDown,
		Status:             domain.StatusSettled,
		Winner:             domain.WinnerUser,
		Reward:             10,
		CreatedAt:          time.Now(),
	}
	result := domain.ResultOf(100, 110)

	require.NoError(t, n.GameSettled(context.Background(), session, result))
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "Duel settled: USER", sender.titles[0])
	assert.Contains(t, sender.messages[0], "$100 -> $110")
	assert.Contains(t, sender.messages[0], "direction UP")
}

func TestNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, discardLogger())
	assert.NoError(t, n.Notify(context.Background(), EventError, "a", "b"))
}
