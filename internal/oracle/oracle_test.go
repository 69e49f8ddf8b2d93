package oracle

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcduel/internal/domain"
	"btcduel/internal/store/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeFeed serves a fixed price and counts fetches.
type fakeFeed struct {
	price       float64
	placeholder bool
	calls       int
}

func (f *fakeFeed) Current(context.Context) domain.PriceSnapshot {
	f.calls++
	return domain.PriceSnapshot{
		Price:       f.price,
		ObservedAt:  time.Now(),
		Placeholder: f.placeholder,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOracle(price float64) (*Oracle, *memory.SessionStore, *fakeClock, *fakeFeed) {
	clock := &fakeClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewSessionStore(clock)
	feed := &fakeFeed{price: price}
	orc := New(store, feed, clock, time.Minute, discardLogger())
	return orc, store, clock, feed
}

func TestCheckAndSettleNotFound(t *testing.T) {
	orc, _, _, feed := newTestOracle(110)

	_, ok := orc.CheckAndSettle(context.Background(), "game_missing")
	assert.False(t, ok)
	assert.Zero(t, feed.calls)
}

func TestCheckAndSettleNotReady(t *testing.T) {
	orc, store, clock, feed := newTestOracle(110)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, domain.PredictionUp, domain.PredictionDown, 100, 10)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)

	_, ok := orc.CheckAndSettle(ctx, session.ID)
	assert.False(t, ok)
	assert.Zero(t, feed.calls, "not-ready check must not fetch")

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
}

func TestCheckAndSettleCommits(t *testing.T) {
	orc, store, clock, feed := newTestOracle(110)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, domain.PredictionUp, domain.PredictionDown, 100, 10)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	result, ok := orc.CheckAndSettle(ctx, session.ID)
	require.True(t, ok)
	assert.Equal(t, 100.0, result.EntryPrice)
	assert.Equal(t, 110.0, result.SettlementPrice)
	assert.InDelta(t, 10.0, result.PriceChange, 1e-9)
	assert.Equal(t, domain.PredictionUp, result.Direction)
	assert.Equal(t, 1, feed.calls)

	settled, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, settled.Status)
	assert.Equal(t, domain.WinnerUser, settled.Winner)
}

func TestCheckAndSettleIdempotent(t *testing.T) {
	orc, store, clock, feed := newTestOracle(110)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, domain.PredictionUp, domain.PredictionDown, 100, 10)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	first, ok := orc.CheckAndSettle(ctx, session.ID)
	require.True(t, ok)

	// Second call replays the stored outcome without a new fetch, even if
	// the live price has since moved.
	feed.price = 50
	second, ok := orc.CheckAndSettle(ctx, session.ID)
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, feed.calls)
}

func TestFlatPriceSettlesDown(t *testing.T) {
	orc, store, clock, _ := newTestOracle(100)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, domain.PredictionDown, domain.PredictionDown, 100, 10)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	result, ok := orc.CheckAndSettle(ctx, session.ID)
	require.True(t, ok)
	assert.Equal(t, domain.PredictionDown, result.Direction)

	settled, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WinnerTie, settled.Winner)
}

func TestTimeUntilSettlement(t *testing.T) {
	orc, store, clock, _ := newTestOracle(110)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, domain.PredictionUp, domain.PredictionDown, 100, 10)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, orc.TimeUntilSettlement(session))

	clock.Advance(45 * time.Second)
	assert.Equal(t, 15*time.Second, orc.TimeUntilSettlement(session))

	// Never negative, however long past due.
	clock.Advance(time.Hour)
	assert.Equal(t, time.Duration(0), orc.TimeUntilSettlement(session))
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "Ready to settle", FormatRemaining(0))
	assert.Equal(t, "Ready to settle", FormatRemaining(-5*time.Second))
	assert.Equal(t, "37s", FormatRemaining(37*time.Second))
	assert.Equal(t, "1s", FormatRemaining(200*time.Millisecond))
	assert.Equal(t, "1m 12s", FormatRemaining(72*time.Second))
	assert.Equal(t, "2m 0s", FormatRemaining(2*time.Minute))
}

func TestWinnings(t *testing.T) {
	userWin, opponentWin := Winnings(domain.GameSession{Reward: 10})
	assert.Equal(t, int64(10), userWin)
	assert.Zero(t, opponentWin)
}

func TestHealthy(t *testing.T) {
	orc, _, _, feed := newTestOracle(95000)
	assert.True(t, orc.Healthy(context.Background()))

	feed.placeholder = true
	assert.False(t, orc.Healthy(context.Background()))

	feed.placeholder = false
	feed.price = 0
	assert.False(t, orc.Healthy(context.Background()))
}
