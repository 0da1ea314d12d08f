package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
	"github.com/rovshanmuradov/token-sniper/internal/events"
)

func newPosition(t *testing.T, addr string, opened time.Time) *domain.Position {
	t.Helper()
	p, err := domain.NewPosition(domain.PositionParams{
		Token:            domain.TokenSnapshot{Address: addr, Symbol: "SYM"},
		Evaluation:       domain.EvaluationResult{Eligible: true, Category: domain.CategoryDegen, Score: 4.2},
		BuyPrice:         0.1,
		RiskAmount:       10,
		ProfitMultiplier: 2,
		StopLossRatio:    0.8,
		OpenedAt:         opened,
	})
	require.NoError(t, err)
	return p
}

func closed(p *domain.Position, state domain.PositionState, exit float64, after time.Duration) *domain.Position {
	c := p.Clone()
	c.State = state
	c.ExitPrice = exit
	c.ClosedAt = c.OpenedAt.Add(after)
	return c
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestJournal_WritesLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trades.csv")
	j, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	opened := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := newPosition(t, "A", opened)
	ctx := context.Background()

	require.NoError(t, j.Handle(ctx, events.NewPositionOpened(p)))
	require.NoError(t, j.Handle(ctx, events.NewPositionClosed(closed(p, domain.StateClosedProfit, 0.2, 90*time.Minute))))
	require.NoError(t, j.Handle(ctx, events.NewTradeFailed("B", "BBB", "buy", errors.New("rpc down"))))
	require.NoError(t, j.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, Headers(), rows[0])

	assert.Equal(t, "open", rows[1][4])
	assert.Equal(t, "A", rows[1][2])
	assert.Equal(t, "Degen", rows[1][5])
	assert.Equal(t, "0.1", rows[1][8])

	assert.Equal(t, "close", rows[2][4])
	assert.Equal(t, "0.2", rows[2][8])
	assert.Equal(t, "10", rows[2][10])
	assert.Equal(t, "100", rows[2][11])
	assert.Equal(t, "1h30m", rows[2][12])
	assert.Equal(t, "Closed_Profit", rows[2][13])

	assert.Equal(t, "failed", rows[3][4])
	assert.Equal(t, "rpc down", rows[3][16])

	sm := j.Summary()
	assert.Equal(t, 1, sm.Opened)
	assert.Equal(t, 1, sm.Closed)
	assert.Equal(t, 1, sm.Failed)
	assert.Equal(t, 1, sm.WinningTrades)
	assert.InDelta(t, 10.0, sm.NetPnL, 1e-9)
	assert.Equal(t, 90*time.Minute, sm.AvgHoldTime)
}

func TestJournal_AppendsWithoutSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	p := newPosition(t, "A", time.Now())

	for i := 0; i < 2; i++ {
		j, err := Open(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, j.Handle(context.Background(), events.NewPositionOpened(p)))
		require.NoError(t, j.Close())
	}

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "open", rows[2][4])
}

func TestJournal_AttachToBus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	j, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	bus := events.NewBus(zaptest.NewLogger(t), 16)
	j.Attach(bus)

	p := newPosition(t, "A", time.Now())
	require.NoError(t, bus.PublishSync(context.Background(), events.NewPositionOpened(p)))
	require.NoError(t, bus.PublishSync(context.Background(), events.NewTokenRejected(domain.TokenSnapshot{Address: "X"}, domain.EvaluationResult{}, "low volume")))

	require.NoError(t, j.Close())
	assert.Empty(t, bus.Stats().HandlersPerType)
	require.NoError(t, bus.Shutdown(context.Background()))

	rows := readRows(t, path)
	assert.Len(t, rows, 2)
}

func TestJournal_WriteAfterCloseFails(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "trades.csv"), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	err = j.Handle(context.Background(), events.NewPositionOpened(newPosition(t, "A", time.Now())))
	assert.Error(t, err)
}

func TestSummaryTracker(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewSummaryTracker(start)
	p := newPosition(t, "A", start)

	win := closed(p, domain.StateClosedProfit, 0.2, time.Minute)
	loss := closed(p, domain.StateClosedStopLoss, 0.05, 3*time.Minute)
	flat := closed(p, domain.StateClosedAbandoned, 0.1, 2*time.Minute)

	tr.recordClose(win, win.PnL(win.ExitPrice))
	tr.recordClose(loss, loss.PnL(loss.ExitPrice))
	tr.recordClose(flat, flat.PnL(flat.ExitPrice))

	sm := tr.Summary()
	assert.Equal(t, 3, sm.Closed)
	assert.Equal(t, 1, sm.WinningTrades)
	assert.Equal(t, 1, sm.LosingTrades)
	assert.InDelta(t, 33.33, sm.WinRate, 0.01)
	assert.InDelta(t, 10.0, sm.LargestWin, 1e-9)
	assert.InDelta(t, -5.0, sm.LargestLoss, 1e-9)
	assert.InDelta(t, 5.0, sm.NetPnL, 1e-9)
	assert.Equal(t, 2*time.Minute, sm.AvgHoldTime)
	assert.Equal(t, 1, sm.ByState[domain.StateClosedAbandoned])
}

func TestHoldTime(t *testing.T) {
	base := time.Now()
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
		{50 * time.Hour, "2d2h"},
		{-time.Second, "0s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HoldTime(base, base.Add(tc.d)))
	}
}
