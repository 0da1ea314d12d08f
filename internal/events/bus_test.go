package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

func TestBus_DeliversInOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var mu sync.Mutex
	var got []string
	bus.SubscribeFunc(TradeFailed, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(TradeFailedEvent).TokenAddress)
		return nil
	})

	for _, addr := range []string{"A", "B", "C"} {
		require.NoError(t, bus.Publish(NewTradeFailed(addr, "", "buy", errors.New("x"))))
	}
	require.NoError(t, bus.Shutdown(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	defer bus.Shutdown(context.Background())

	calls := 0
	sub := bus.SubscribeFunc(PositionOpened, func(context.Context, Event) error {
		calls++
		return nil
	})
	sub.Unsubscribe()

	p := &domain.Position{TokenAddress: "A"}
	require.NoError(t, bus.PublishSync(context.Background(), NewPositionOpened(p)))
	assert.Zero(t, calls)
	assert.Empty(t, bus.Stats().HandlersPerType)
}

func TestBus_PublishSyncJoinsErrors(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	defer bus.Shutdown(context.Background())

	boom := errors.New("boom")
	bus.SubscribeFunc(TokenRejected, func(context.Context, Event) error { return boom })

	err := bus.PublishSync(context.Background(), NewTokenRejected(domain.TokenSnapshot{Address: "A"}, domain.EvaluationResult{}, "low volume"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestBus_PublishAfterShutdown(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	require.NoError(t, bus.Shutdown(context.Background()))

	err := bus.Publish(NewTradeFailed("A", "", "sell", nil))
	assert.True(t, errors.Is(err, ErrBusClosed))
}

func TestBus_FullBufferDrops(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 1)
	defer bus.Shutdown(context.Background())

	block := make(chan struct{})
	bus.SubscribeFunc(TradeFailed, func(context.Context, Event) error {
		<-block
		return nil
	})

	// The first event is taken by the dispatcher and blocks it.
	require.NoError(t, bus.Publish(NewTradeFailed("A", "", "buy", nil)))
	require.Eventually(t, func() bool { return bus.Stats().PendingEvents == 0 }, time.Second, time.Millisecond)

	require.NoError(t, bus.Publish(NewTradeFailed("B", "", "buy", nil)))
	err := bus.Publish(NewTradeFailed("C", "", "buy", nil))
	assert.True(t, errors.Is(err, ErrBufferFull))

	close(block)
}

func TestNewPositionClosed_CarriesPnL(t *testing.T) {
	p := &domain.Position{TokenAddress: "A", BuyPrice: 0.1, Quantity: 100, ExitPrice: 0.2, State: domain.StateClosedProfit}
	e := NewPositionClosed(p)
	assert.Equal(t, PositionClosed, e.Type())
	assert.InDelta(t, 10.0, e.PnL, 1e-9)
	assert.NotSame(t, p, e.Position)
}
