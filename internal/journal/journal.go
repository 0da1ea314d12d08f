// internal/journal/journal.go
package journal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/events"
)

// Journal is an append-only CSV audit trail of trade lifecycle events and
// the session summary built from them. It is never read back.
type Journal struct {
	writer  *SafeCSVWriter
	summary *SummaryTracker
	logger  *zap.Logger
	subs    []events.Subscription
}

// Open creates (or appends to) the journal at path.
func Open(path string, logger *zap.Logger) (*Journal, error) {
	logger = logger.Named("journal")
	w, err := NewSafeCSVWriter(path, Headers(), DefaultFlushInterval, logger)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &Journal{
		writer:  w,
		summary: NewSummaryTracker(time.Now()),
		logger:  logger,
	}, nil
}

// Attach subscribes the journal to the lifecycle events it records.
func (j *Journal) Attach(bus *events.Bus) {
	for _, t := range []events.EventType{events.PositionOpened, events.PositionClosed, events.TradeFailed} {
		j.subs = append(j.subs, bus.Subscribe(t, j))
	}
}

// Handle implements events.Handler.
func (j *Journal) Handle(_ context.Context, event events.Event) error {
	var rec Record
	switch e := event.(type) {
	case events.PositionOpenedEvent:
		j.summary.recordOpen()
		rec = openRecord(e.Position)
	case events.PositionClosedEvent:
		j.summary.recordClose(e.Position, e.PnL)
		rec = closeRecord(e.Position, e.PnL)
	case events.TradeFailedEvent:
		j.summary.recordFailure()
		rec = Record{
			Timestamp: e.Timestamp(),
			Token:     e.TokenAddress,
			Symbol:    e.Symbol,
			Action:    "failed",
			Reason:    e.Action,
		}
		if e.Err != nil {
			rec.ErrorMsg = e.Err.Error()
		}
	default:
		return nil
	}

	if err := j.writer.WriteRecord(rec.ToCSV()); err != nil {
		j.logger.Warn("Failed to write journal record", zap.String("token", rec.Token), zap.Error(err))
		return err
	}
	return nil
}

func (j *Journal) Summary() Summary {
	return j.summary.Summary()
}

// Close detaches from the bus and flushes the file.
func (j *Journal) Close() error {
	for _, s := range j.subs {
		s.Unsubscribe()
	}
	j.subs = nil
	return j.writer.Close()
}
