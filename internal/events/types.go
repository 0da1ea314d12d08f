// internal/events/types.go
package events

import (
	"time"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

// EventType represents the type of event.
type EventType string

const (
	TokenRejected  EventType = "token.rejected"
	PositionOpened EventType = "position.opened"
	PositionClosed EventType = "position.closed"
	TradeFailed    EventType = "trade.failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// TokenRejectedEvent is emitted when discovery skips a token. Eligible
// tokens without a tier or below the score threshold are reported too.
type TokenRejectedEvent struct {
	BaseEvent
	Token      domain.TokenSnapshot
	Evaluation domain.EvaluationResult
	Reason     string
}

// PositionOpenedEvent is emitted after a position is registered.
type PositionOpenedEvent struct {
	BaseEvent
	Position *domain.Position
}

// PositionClosedEvent is emitted once per position on its terminal transition.
type PositionClosedEvent struct {
	BaseEvent
	Position *domain.Position
	PnL      float64
}

// TradeFailedEvent is emitted when a buy or sell could not be executed.
type TradeFailedEvent struct {
	BaseEvent
	TokenAddress string
	Symbol       string
	Action       string
	Err          error
}

func NewTokenRejected(token domain.TokenSnapshot, eval domain.EvaluationResult, reason string) TokenRejectedEvent {
	return TokenRejectedEvent{BaseEvent: newBase(TokenRejected), Token: token, Evaluation: eval, Reason: reason}
}

func NewPositionOpened(p *domain.Position) PositionOpenedEvent {
	return PositionOpenedEvent{BaseEvent: newBase(PositionOpened), Position: p.Clone()}
}

func NewPositionClosed(p *domain.Position) PositionClosedEvent {
	return PositionClosedEvent{
		BaseEvent: newBase(PositionClosed),
		Position:  p.Clone(),
		PnL:       p.PnL(p.ExitPrice),
	}
}

func NewTradeFailed(tokenAddress, symbol, action string, err error) TradeFailedEvent {
	return TradeFailedEvent{
		BaseEvent:    newBase(TradeFailed),
		TokenAddress: tokenAddress,
		Symbol:       symbol,
		Action:       action,
		Err:          err,
	}
}
