// internal/monitor/supervisor.go
package monitor

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

const DefaultMaxConcurrentChecks = 8

// Supervisor owns every running monitor. Monitors run until their position
// closes or the supervisor context is cancelled.
type Supervisor struct {
	ctx    context.Context
	group  *errgroup.Group
	checks *semaphore.Weighted
	cfg    Config
	deps   Deps
	active atomic.Int64
	logger *zap.Logger
}

// NewSupervisor binds monitors to ctx. maxConcurrentChecks bounds how many
// monitors may poll the feed at the same time.
func NewSupervisor(ctx context.Context, cfg Config, maxConcurrentChecks int, deps Deps) *Supervisor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxMissingTicks < 0 {
		cfg.MaxMissingTicks = 0
	}
	if maxConcurrentChecks <= 0 {
		maxConcurrentChecks = DefaultMaxConcurrentChecks
	}

	logger := deps.Logger.Named("monitor")
	deps.Logger = logger

	group, gctx := errgroup.WithContext(ctx)
	return &Supervisor{
		ctx:    gctx,
		group:  group,
		checks: semaphore.NewWeighted(int64(maxConcurrentChecks)),
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// Spawn starts monitoring p. The position must already be registered.
func (s *Supervisor) Spawn(p *domain.Position) {
	m := newMonitor(p, s.cfg, s.deps, s.checks)

	s.active.Add(1)
	s.group.Go(func() error {
		defer s.active.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Monitor panicked",
					zap.String("token", p.TokenAddress),
					zap.Any("panic", r))
				m.fail(r)
			}
		}()
		m.Run(s.ctx)
		return nil
	})
}

// Active returns the number of running monitors.
func (s *Supervisor) Active() int {
	return int(s.active.Load())
}

// Wait blocks until every monitor has returned.
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}
