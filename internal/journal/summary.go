// internal/journal/summary.go
package journal

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

// Summary is a session-level performance overview of closed positions.
type Summary struct {
	StartTime     time.Time
	Opened        int
	Closed        int
	Failed        int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent
	NetPnL        float64
	LargestWin    float64
	LargestLoss   float64
	AvgHoldTime   time.Duration
	ByState       map[domain.PositionState]int
}

// SummaryTracker accumulates statistics from lifecycle events.
type SummaryTracker struct {
	mu        sync.Mutex
	start     time.Time
	opened    int
	failed    int
	closed    int
	wins      int
	losses    int
	netPnL    decimal.Decimal
	largestW  float64
	largestL  float64
	totalHold time.Duration
	byState   map[domain.PositionState]int
}

func NewSummaryTracker(start time.Time) *SummaryTracker {
	return &SummaryTracker{
		start:   start,
		netPnL:  decimal.Zero,
		byState: make(map[domain.PositionState]int),
	}
}

func (s *SummaryTracker) recordOpen() {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
}

func (s *SummaryTracker) recordFailure() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

func (s *SummaryTracker) recordClose(p *domain.Position, pnl float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed++
	s.byState[p.State]++
	s.netPnL = s.netPnL.Add(decimal.NewFromFloat(pnl))
	switch {
	case pnl > 0:
		s.wins++
		if pnl > s.largestW {
			s.largestW = pnl
		}
	case pnl < 0:
		s.losses++
		if pnl < s.largestL {
			s.largestL = pnl
		}
	}
	if hold := p.ClosedAt.Sub(p.OpenedAt); hold > 0 {
		s.totalHold += hold
	}
}

// Summary returns a copy of the current statistics.
func (s *SummaryTracker) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Summary{
		StartTime:     s.start,
		Opened:        s.opened,
		Closed:        s.closed,
		Failed:        s.failed,
		WinningTrades: s.wins,
		LosingTrades:  s.losses,
		NetPnL:        s.netPnL.InexactFloat64(),
		LargestWin:    s.largestW,
		LargestLoss:   s.largestL,
		ByState:       make(map[domain.PositionState]int, len(s.byState)),
	}
	for k, v := range s.byState {
		out.ByState[k] = v
	}
	if s.closed > 0 {
		out.WinRate = float64(s.wins) / float64(s.closed) * 100
		out.AvgHoldTime = s.totalHold / time.Duration(s.closed)
	}
	return out
}

// Log writes the summary as one structured line.
func (sm Summary) Log(logger *zap.Logger, now time.Time) {
	logger.Info("📊 Session summary",
		zap.Duration("uptime", now.Sub(sm.StartTime).Round(time.Second)),
		zap.Int("opened", sm.Opened),
		zap.Int("closed", sm.Closed),
		zap.Int("failed", sm.Failed),
		zap.Int("wins", sm.WinningTrades),
		zap.Int("losses", sm.LosingTrades),
		zap.Float64("win_rate_pct", sm.WinRate),
		zap.Float64("net_pnl", sm.NetPnL),
		zap.Float64("largest_win", sm.LargestWin),
		zap.Float64("largest_loss", sm.LargestLoss),
		zap.Duration("avg_hold", sm.AvgHoldTime.Round(time.Second)),
		zap.Int("abandoned", sm.ByState[domain.StateClosedAbandoned]),
	)
}
