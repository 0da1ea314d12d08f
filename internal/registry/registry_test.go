package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

func testPosition(t *testing.T, address string) *domain.Position {
	t.Helper()
	p, err := domain.NewPosition(domain.PositionParams{
		Token:            domain.TokenSnapshot{Address: address},
		BuyPrice:         0.1,
		RiskAmount:       10,
		ProfitMultiplier: 2,
		StopLossRatio:    0.8,
	})
	require.NoError(t, err)
	return p
}

func TestRegistry_InsertDiscoveredDedup(t *testing.T) {
	r := New(0)

	assert.True(t, r.InsertDiscovered("A"))
	assert.False(t, r.InsertDiscovered("A"))
	assert.True(t, r.IsDiscovered("A"))
	assert.False(t, r.IsDiscovered("B"))
	assert.Equal(t, 1, r.DiscoveredCount())
}

func TestRegistry_OpenAndClose(t *testing.T) {
	r := New(10)
	p := testPosition(t, "A")

	require.NoError(t, r.OpenPosition(p))
	assert.Equal(t, 1, r.OpenCount())

	err := r.OpenPosition(testPosition(t, "A"))
	assert.True(t, errors.Is(err, ErrAlreadyOpen))

	closed, err := r.ClosePosition("A", CloseRequest{State: domain.StateClosedProfit, ExitPrice: 0.2, Reason: "target"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateClosedProfit, closed.State)
	assert.Equal(t, 0.2, closed.ExitPrice)
	assert.False(t, closed.ClosedAt.IsZero())
	assert.Zero(t, r.OpenCount())

	_, err = r.ClosePosition("A", CloseRequest{State: domain.StateClosedStopLoss})
	assert.True(t, errors.Is(err, ErrNotOpen))

	recent := r.RecentClosed()
	require.Len(t, recent, 1)
	assert.Equal(t, domain.StateClosedProfit, recent[0].State)
}

func TestRegistry_CloseRejectsOpenState(t *testing.T) {
	r := New(10)
	require.NoError(t, r.OpenPosition(testPosition(t, "A")))

	_, err := r.ClosePosition("A", CloseRequest{State: domain.StateOpen})
	require.Error(t, err)
	assert.Equal(t, 1, r.OpenCount())
}

func TestRegistry_SnapshotsAreCopies(t *testing.T) {
	r := New(10)
	require.NoError(t, r.OpenPosition(testPosition(t, "A")))

	snap := r.SnapshotOpenPositions()
	require.Len(t, snap, 1)
	snap[0].State = domain.StateClosedError
	snap[0].TargetPrice = 99

	p, ok := r.Position("A")
	require.True(t, ok)
	assert.Equal(t, domain.StateOpen, p.State)
	assert.InDelta(t, 0.2, p.TargetPrice, 1e-12)
}

func TestRegistry_ClosedHistoryBounded(t *testing.T) {
	r := New(3)
	for i := 0; i < 5; i++ {
		addr := fmt.Sprintf("T%d", i)
		require.NoError(t, r.OpenPosition(testPosition(t, addr)))
		_, err := r.ClosePosition(addr, CloseRequest{State: domain.StateClosedStopLoss, ClosedAt: time.Now()})
		require.NoError(t, err)
	}

	recent := r.RecentClosed()
	require.Len(t, recent, 3)
	assert.Equal(t, "T4", recent[0].TokenAddress)
	assert.Equal(t, "T2", recent[2].TokenAddress)
}

func TestRegistry_ConcurrentCloseExactlyOnce(t *testing.T) {
	r := New(10)
	require.NoError(t, r.OpenPosition(testPosition(t, "A")))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.ClosePosition("A", CloseRequest{State: domain.StateClosedProfit}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Zero(t, r.OpenCount())
}
