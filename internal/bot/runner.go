// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/token-sniper/internal/blockchain/solbc"
	"github.com/rovshanmuradov/token-sniper/internal/config"
	"github.com/rovshanmuradov/token-sniper/internal/discovery"
	"github.com/rovshanmuradov/token-sniper/internal/events"
	"github.com/rovshanmuradov/token-sniper/internal/feed"
	"github.com/rovshanmuradov/token-sniper/internal/journal"
	"github.com/rovshanmuradov/token-sniper/internal/logger"
	"github.com/rovshanmuradov/token-sniper/internal/monitor"
	"github.com/rovshanmuradov/token-sniper/internal/notify"
	"github.com/rovshanmuradov/token-sniper/internal/registry"
	"github.com/rovshanmuradov/token-sniper/internal/risk"
	"github.com/rovshanmuradov/token-sniper/internal/trade"
	"github.com/rovshanmuradov/token-sniper/internal/ui"
	"github.com/rovshanmuradov/token-sniper/internal/wallet"
)

const busShutdownTimeout = 10 * time.Second

// Options tune how the runner presents itself.
type Options struct {
	// Dashboard replaces console logging with the terminal dashboard.
	Dashboard bool
	// LogTail feeds the dashboard log pane.
	LogTail *logger.LogBuffer
	// HTTPClient overrides the feed HTTP client.
	HTTPClient *http.Client
}

// Runner wires every component and owns the process lifecycle.
type Runner struct {
	logger *zap.Logger
	config *config.Config
	opts   Options

	feed      feed.Source
	evaluator *risk.Evaluator
	registry  *registry.Registry
	executor  trade.Executor
	bus       *events.Bus
	journal   *journal.Journal
	notifier  *notify.Telegram

	shutdown   *ShutdownHandler
	shutdownCh chan os.Signal
}

// NewRunner builds the component graph. Errors here are fatal for the
// process: bad key material or an unusable journal path.
func NewRunner(cfg *config.Config, log *zap.Logger, opts Options) (*Runner, error) {
	r := &Runner{
		logger:     log,
		config:     cfg,
		opts:       opts,
		registry:   registry.New(registry.DefaultClosedHistory),
		bus:        events.NewBus(log, events.DefaultBufferSize),
		shutdown:   NewShutdownHandler(log, DefaultShutdownTimeout),
		shutdownCh: make(chan os.Signal, 1),
	}

	client := feed.NewClient(feed.ClientConfig{
		URL:               cfg.FeedURL,
		RequestsPerMinute: cfg.FeedRequestsPerMinute,
		HTTPClient:        opts.HTTPClient,
	}, log)
	r.feed = feed.NewCachedSource(client, cfg.FeedCacheTTL)

	var rug risk.RugChecker
	if cfg.RugCheck.Enabled {
		rug = risk.NewRugCheckClient(cfg.RugCheck.URL, cfg.RugCheck.MaxScore, log)
	}
	r.evaluator = risk.NewEvaluator(risk.Config{
		MinMarketCap: cfg.MinMarketCap,
		MinVolume:    cfg.MinVolume,
		MinPrice:     cfg.MinPrice,
		Tiers:        cfg.Tiers,
	}, risk.NewBlacklist(cfg.CoinBlacklist), risk.NewBlacklist(cfg.DevBlacklist), rug, log)

	executor, err := r.buildExecutor()
	if err != nil {
		r.abort()
		return nil, err
	}
	r.executor = executor

	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath, log)
		if err != nil {
			r.abort()
			return nil, err
		}
		j.Attach(r.bus)
		r.journal = j
		r.shutdown.Add("journal", j)
	}

	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			// Alerts are optional for trading.
			log.Warn("Telegram alerts disabled", zap.Error(err))
		} else {
			tg.Attach(r.bus)
			r.notifier = tg
			r.shutdown.AddFunc("telegram", func() error {
				tg.Detach()
				return nil
			})
		}
	}

	if cfg.DebugLogging {
		rejected := log.Named("rejections")
		r.bus.SubscribeFunc(events.TokenRejected, func(_ context.Context, e events.Event) error {
			ev := e.(events.TokenRejectedEvent)
			rejected.Debug("Token rejected",
				zap.String("token", ev.Token.DisplayName()),
				zap.String("address", ev.Token.Address),
				zap.String("reason", ev.Reason))
			return nil
		})
	}

	// The bus closes first and drains pending events into the journal.
	r.shutdown.AddFunc("event_bus", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), busShutdownTimeout)
		defer cancel()
		return r.bus.Shutdown(ctx)
	})

	return r, nil
}

func (r *Runner) buildExecutor() (trade.Executor, error) {
	cfg := r.config
	tcfg := trade.Config{RealTransactions: cfg.RealTransactions, SimulatedPrice: cfg.SimulatedPrice}
	if !cfg.RealTransactions {
		return trade.New(tcfg, nil, r.logger)
	}

	w, err := wallet.Load(cfg.WalletPath)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	r.logger.Info("🔑 Wallet loaded", zap.String("public_key", w.String()))

	gw, err := solbc.NewGateway(solbc.NewClient(cfg.RPCURL, r.logger), w, solbc.GatewayConfig{
		RecipientAddress: cfg.RecipientAddress,
		TransferAmount:   cfg.TransferAmount,
		PriorityFee:      cfg.PriorityFee,
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	return trade.New(tcfg, gw, r.logger)
}

// abort releases what NewRunner already started.
func (r *Runner) abort() {
	_ = r.shutdown.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = r.bus.Shutdown(ctx)
}

// Run trades until ctx is cancelled, a SIGINT/SIGTERM arrives or the
// dashboard is closed, then shuts everything down in order.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(r.shutdownCh)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	cfg := r.config
	mode := "simulation"
	if cfg.RealTransactions {
		mode = "live"
	}
	r.logger.Info("🚀 Token sniper starting",
		zap.String("mode", mode),
		zap.String("rpc", cfg.RPCURL),
		zap.String("feed", cfg.FeedURL),
		zap.Float64("risk_amount", cfg.RiskAmount),
		zap.Float64("profit_multiplier", cfg.ProfitTargetMultiplier),
		zap.Float64("stop_loss_ratio", cfg.StopLossRatio))

	supervisor := monitor.NewSupervisor(runCtx, monitor.Config{
		PollInterval:    cfg.PositionPollInterval,
		MaxMissingTicks: cfg.MaxMissingTicks,
	}, cfg.MaxConcurrentChecks, monitor.Deps{
		Feed:     r.feed,
		Registry: r.registry,
		Executor: r.executor,
		Events:   r.bus,
		Logger:   r.logger,
	})

	loop := discovery.New(discovery.Config{
		PollInterval:     cfg.PollInterval,
		RiskAmount:       cfg.RiskAmount,
		MinScore:         cfg.MinScoreThreshold,
		ProfitMultiplier: cfg.ProfitTargetMultiplier,
		StopLossRatio:    cfg.StopLossRatio,
		MaxOpenPositions: cfg.MaxOpenPositions,
	}, discovery.Deps{
		Feed:      r.feed,
		Evaluator: r.evaluator,
		Registry:  r.registry,
		Executor:  r.executor,
		Monitors:  supervisor,
		Events:    r.bus,
		Logger:    r.logger,
	})

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if r.opts.Dashboard {
		var logs ui.LogSource
		if r.opts.LogTail != nil {
			logs = r.opts.LogTail
		}
		g.Go(func() error {
			err := ui.Run(gctx, ui.NewModel(r.registry, logs, ui.DefaultRefreshInterval))
			// Quitting the dashboard stops the bot.
			cancel()
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	runErr := g.Wait()
	cancel()

	r.logger.Info("🛑 Stopping monitors", zap.Int("active", supervisor.Active()))
	if err := supervisor.Wait(); err != nil {
		r.logger.Error("Monitor group failed", zap.Error(err))
	}

	if open := r.registry.SnapshotOpenPositions(); len(open) > 0 {
		r.logger.Warn("Positions left open at shutdown", zap.Int("count", len(open)))
		for _, p := range open {
			r.logger.Info("Open position",
				zap.String("token", p.DisplayName()),
				zap.String("address", p.TokenAddress),
				zap.Float64("buy_price", p.BuyPrice),
				zap.Float64("quantity", p.Quantity))
		}
	}

	if err := r.shutdown.Shutdown(); err != nil {
		r.logger.Error("Shutdown error", zap.Error(err))
	}
	if r.journal != nil {
		r.journal.Summary().Log(r.logger, time.Now())
	}
	r.logger.Info("👋 Bot stopped")

	return runErr
}
