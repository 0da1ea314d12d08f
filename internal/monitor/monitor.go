// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
	"github.com/rovshanmuradov/token-sniper/internal/events"
	"github.com/rovshanmuradov/token-sniper/internal/feed"
	"github.com/rovshanmuradov/token-sniper/internal/registry"
	"github.com/rovshanmuradov/token-sniper/internal/trade"
)

const (
	DefaultPollInterval    = 30 * time.Second
	DefaultMaxMissingTicks = 20
)

// Close reasons recorded on the position.
const (
	ReasonTarget    = "profit target reached"
	ReasonStopLoss  = "stop loss hit"
	ReasonAbandoned = "no market data"
	ReasonCancelled = "cancelled during close"
	ReasonPanicked  = "monitor panicked"
)

// Config tunes every monitor of a supervisor.
type Config struct {
	PollInterval time.Duration
	// MaxMissingTicks abandons a position after that many consecutive ticks
	// without data. Zero retries forever.
	MaxMissingTicks int
}

// Deps are the collaborators shared by all monitors.
type Deps struct {
	Feed     feed.Source
	Registry *registry.Registry
	Executor trade.Executor
	Events   events.Publisher
	Logger   *zap.Logger
}

// gate bounds concurrent feed checks across monitors.
type gate interface {
	Acquire(ctx context.Context, n int64) error
	Release(n int64)
}

// Monitor watches one open position until it reaches a terminal state.
type Monitor struct {
	position *domain.Position
	cfg      Config
	deps     Deps
	gate     gate
	logger   *zap.Logger

	lastPrice float64
	misses    int
}

func newMonitor(p *domain.Position, cfg Config, deps Deps, g gate) *Monitor {
	return &Monitor{
		position:  p.Clone(),
		cfg:       cfg,
		deps:      deps,
		gate:      g,
		lastPrice: p.BuyPrice,
		logger: deps.Logger.With(
			zap.String("position_id", p.ID),
			zap.String("token", p.DisplayName())),
	}
}

// Run checks immediately, then every PollInterval, until the position closes
// or ctx is cancelled. Cancellation leaves the position open.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("📊 Monitoring position",
		zap.Float64("buy_price", m.position.BuyPrice),
		zap.Float64("target", m.position.TargetPrice),
		zap.Float64("stop_loss", m.position.StopLossPrice))

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if done := m.tick(ctx); done {
			return
		}
		select {
		case <-ctx.Done():
			m.logger.Debug("Monitor stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
		}
	}
}

// tick performs one check and reports whether the monitor is finished.
func (m *Monitor) tick(ctx context.Context) bool {
	snapshot, found, err := m.lookup(ctx)
	if ctx.Err() != nil {
		return true
	}

	if err != nil || !found {
		if err != nil {
			m.logger.Warn("Feed unavailable", zap.Error(err))
		} else {
			m.logger.Info("No data for position")
		}
		m.misses++
		if m.cfg.MaxMissingTicks > 0 && m.misses >= m.cfg.MaxMissingTicks {
			m.logger.Warn("Abandoning position", zap.Int("missed_ticks", m.misses))
			m.close(ctx, domain.StateClosedAbandoned, m.lastPrice, ReasonAbandoned)
			return true
		}
		return false
	}

	m.misses = 0
	price := snapshot.PriceUSD
	m.lastPrice = price

	switch state := m.position.Decide(price); state {
	case domain.StateClosedProfit:
		m.close(ctx, state, price, ReasonTarget)
		return true
	case domain.StateClosedStopLoss:
		m.close(ctx, state, price, ReasonStopLoss)
		return true
	default:
		m.logger.Debug("Holding",
			zap.Float64("price", price),
			zap.Float64("pnl_percent", m.position.PnLPercent(price)))
		return false
	}
}

func (m *Monitor) lookup(ctx context.Context) (domain.TokenSnapshot, bool, error) {
	if err := m.gate.Acquire(ctx, 1); err != nil {
		return domain.TokenSnapshot{}, false, err
	}
	defer m.gate.Release(1)

	tokens, err := m.deps.Feed.Fetch(ctx)
	if err != nil {
		return domain.TokenSnapshot{}, false, err
	}
	snap, ok := domain.FindByAddress(tokens, m.position.TokenAddress)
	return snap, ok, nil
}

// close invokes Trade-Close once and records the terminal state. Once the
// executor has been called the outcome is recorded even if ctx was cancelled
// meanwhile.
func (m *Monitor) close(ctx context.Context, state domain.PositionState, price float64, reason string) {
	if ctx.Err() != nil {
		return
	}

	fill, err := m.deps.Executor.Close(trade.WithPriceHint(ctx, price), m.position)
	if err != nil {
		if ctx.Err() != nil {
			m.logger.Warn("Close interrupted by shutdown",
				zap.String("receipt", fill.Receipt), zap.Error(err))
			reason = fmt.Sprintf("%s; %s: %v", reason, ReasonCancelled, err)
		} else {
			m.logger.Error("Close failed", zap.Error(err))
			reason = fmt.Sprintf("%s; close failed: %v", reason, err)
		}
		m.publish(events.NewTradeFailed(m.position.TokenAddress, m.position.Symbol, string(trade.ActionSell), err))
		state = domain.StateClosedError
		fill = trade.Fill{Price: price, Receipt: fill.Receipt}
	}

	m.record(state, fill.Price, reason, fill.Receipt)
}

// fail closes the position without trading after the monitor crashed.
func (m *Monitor) fail(cause interface{}) {
	m.record(domain.StateClosedError, m.lastPrice, fmt.Sprintf("%s: %v", ReasonPanicked, cause), "")
}

func (m *Monitor) record(state domain.PositionState, price float64, reason, receipt string) {
	closed, err := m.deps.Registry.ClosePosition(m.position.TokenAddress, registry.CloseRequest{
		State:     state,
		ExitPrice: price,
		Reason:    reason,
		Receipt:   receipt,
		ClosedAt:  time.Now(),
	})
	if err != nil {
		if errors.Is(err, registry.ErrNotOpen) {
			m.logger.Debug("Position already closed")
			return
		}
		m.logger.Error("Failed to record close", zap.Error(err))
		return
	}

	m.logger.Info("✅ Position closed",
		zap.String("state", string(closed.State)),
		zap.Float64("exit_price", closed.ExitPrice),
		zap.Float64("pnl", closed.PnL(closed.ExitPrice)),
		zap.Float64("pnl_percent", closed.PnLPercent(closed.ExitPrice)))

	m.publish(events.NewPositionClosed(closed))
}

func (m *Monitor) publish(e events.Event) {
	if m.deps.Events == nil {
		return
	}
	if err := m.deps.Events.Publish(e); err != nil {
		m.logger.Debug("Event not published", zap.String("event_type", string(e.Type())), zap.Error(err))
	}
}
