// internal/discovery/loop.go
package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
	"github.com/rovshanmuradov/token-sniper/internal/events"
	"github.com/rovshanmuradov/token-sniper/internal/feed"
	"github.com/rovshanmuradov/token-sniper/internal/registry"
	"github.com/rovshanmuradov/token-sniper/internal/scoring"
	"github.com/rovshanmuradov/token-sniper/internal/trade"
)

const (
	DefaultPollInterval     = 60 * time.Second
	DefaultMaxOpenPositions = 50
)

// Skip reasons for eligible tokens that still do not qualify.
const (
	ReasonNoTier   = "no matching tier"
	ReasonLowScore = "score below threshold"
)

// Config controls discovery and the parameters of opened positions.
type Config struct {
	PollInterval time.Duration
	RiskAmount   float64
	// MinScore is applied as given; zero accepts any actionable token.
	MinScore         float64
	ProfitMultiplier float64
	StopLossRatio    float64
	// MaxOpenPositions caps concurrent positions. Zero means unlimited.
	MaxOpenPositions int
}

// Evaluator classifies a token.
type Evaluator interface {
	Evaluate(ctx context.Context, token domain.TokenSnapshot) domain.EvaluationResult
}

// Spawner starts monitoring a registered position.
type Spawner interface {
	Spawn(p *domain.Position)
	Active() int
}

type Deps struct {
	Feed      feed.Source
	Evaluator Evaluator
	Registry  *registry.Registry
	Executor  trade.Executor
	Monitors  Spawner
	Events    events.Publisher
	Logger    *zap.Logger
}

// Loop polls the feed and opens positions for newly seen, qualifying tokens.
// Every address is evaluated at most once.
type Loop struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
}

func New(cfg Config, deps Deps) *Loop {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	return &Loop{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.Named("discovery"),
	}
}

// Run ticks immediately and then every PollInterval until ctx is done.
// It never waits for monitors.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("🔍 Discovery started",
		zap.Duration("interval", l.cfg.PollInterval),
		zap.Float64("min_score", l.cfg.MinScore),
		zap.Int("max_open_positions", l.cfg.MaxOpenPositions))

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		l.Tick(ctx)

		select {
		case <-ctx.Done():
			l.logger.Info("Discovery stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one discovery pass.
func (l *Loop) Tick(ctx context.Context) {
	tokens, err := l.deps.Feed.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("Feed fetch failed", zap.Error(err))
		}
		return
	}

	considered := 0
	for _, tok := range tokens {
		if ctx.Err() != nil {
			return
		}
		if l.deps.Registry.IsDiscovered(tok.Address) {
			continue
		}
		if l.capReached() {
			l.logger.Info("Open position cap reached, deferring remaining tokens",
				zap.Int("open", l.deps.Registry.OpenCount()))
			break
		}
		if !l.deps.Registry.InsertDiscovered(tok.Address) {
			continue
		}
		considered++
		l.consider(ctx, tok)
	}

	l.logger.Info("Discovery tick",
		zap.Int("polled", len(tokens)),
		zap.Int("new", considered),
		zap.Int("discovered", l.deps.Registry.DiscoveredCount()),
		zap.Int("open_positions", l.deps.Registry.OpenCount()),
		zap.Int("monitors", l.deps.Monitors.Active()))
}

func (l *Loop) capReached() bool {
	return l.cfg.MaxOpenPositions > 0 && l.deps.Registry.OpenCount() >= l.cfg.MaxOpenPositions
}

func (l *Loop) consider(ctx context.Context, tok domain.TokenSnapshot) {
	eval := l.deps.Evaluator.Evaluate(ctx, tok)
	score := scoring.Score(tok)

	if !scoring.Accept(score, eval, l.cfg.MinScore) {
		reason := eval.RejectReason
		switch {
		case reason != "":
		case !eval.Category.Actionable():
			reason = ReasonNoTier
		default:
			reason = ReasonLowScore
		}
		l.logger.Debug("Token skipped",
			zap.String("token", tok.DisplayName()),
			zap.String("category", string(eval.Category)),
			zap.Float64("score", score),
			zap.String("reason", reason))
		l.publish(events.NewTokenRejected(tok, eval, reason))
		return
	}
	eval.Score = score

	l.open(ctx, tok, eval)
}

func (l *Loop) open(ctx context.Context, tok domain.TokenSnapshot, eval domain.EvaluationResult) {
	logger := l.logger.With(zap.String("token", tok.DisplayName()), zap.String("address", tok.Address))

	fill, err := l.deps.Executor.Open(trade.WithPriceHint(ctx, tok.PriceUSD), tok.Address, l.cfg.RiskAmount)
	if err != nil {
		logger.Error("Buy failed", zap.Error(err))
		l.publish(events.NewTradeFailed(tok.Address, tok.Symbol, string(trade.ActionBuy), err))
		return
	}

	pos, err := domain.NewPosition(domain.PositionParams{
		Token:            tok,
		Evaluation:       eval,
		BuyPrice:         fill.Price,
		RiskAmount:       l.cfg.RiskAmount,
		ProfitMultiplier: l.cfg.ProfitMultiplier,
		StopLossRatio:    l.cfg.StopLossRatio,
		Receipt:          fill.Receipt,
	})
	if err != nil {
		logger.Error("Invalid position", zap.Error(err))
		l.publish(events.NewTradeFailed(tok.Address, tok.Symbol, string(trade.ActionBuy), err))
		return
	}

	if err := l.deps.Registry.OpenPosition(pos); err != nil {
		logger.Error("Failed to register position", zap.Error(err))
		return
	}
	l.deps.Monitors.Spawn(pos)

	logger.Info("💰 Position opened",
		zap.String("category", string(eval.Category)),
		zap.Float64("score", eval.Score),
		zap.Float64("quantity", pos.Quantity),
		zap.Float64("buy_price", pos.BuyPrice),
		zap.Float64("target", pos.TargetPrice),
		zap.Float64("stop_loss", pos.StopLossPrice))

	l.publish(events.NewPositionOpened(pos))
}

func (l *Loop) publish(e events.Event) {
	if err := l.deps.Events.Publish(e); err != nil {
		l.logger.Debug("Event not published", zap.String("event_type", string(e.Type())), zap.Error(err))
	}
}
