// internal/domain/position.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionState is the lifecycle state of a position.
type PositionState string

const (
	StateOpen            PositionState = "Open"
	StateClosedProfit    PositionState = "Closed_Profit"
	StateClosedStopLoss  PositionState = "Closed_StopLoss"
	StateClosedError     PositionState = "Closed_Error"
	StateClosedAbandoned PositionState = "Closed_Abandoned"
)

// Terminal reports whether no further transition is possible.
func (s PositionState) Terminal() bool {
	return s != StateOpen
}

// ErrInvalidPosition is returned when position parameters break the
// stopLoss < buy < target invariant.
var ErrInvalidPosition = errors.New("invalid position parameters")

// Position is an open or closed trade. After registration only its owning
// monitor mutates it, and only through the registry.
type Position struct {
	ID            string
	TokenAddress  string
	Symbol        string
	Category      Category
	Score         float64
	BuyPrice      float64
	Quantity      float64
	RiskAmount    float64
	TargetPrice   float64
	StopLossPrice float64
	State         PositionState
	OpenedAt      time.Time
	ClosedAt      time.Time
	ExitPrice     float64
	CloseReason   string
	OpenReceipt   string
	CloseReceipt  string
}

// PositionParams carries what is needed to open a position.
type PositionParams struct {
	Token            TokenSnapshot
	Evaluation       EvaluationResult
	BuyPrice         float64
	RiskAmount       float64
	ProfitMultiplier float64
	StopLossRatio    float64
	Receipt          string
	OpenedAt         time.Time
}

// NewPosition derives quantity, target and stop-loss from the fill.
func NewPosition(p PositionParams) (*Position, error) {
	if p.Token.Address == "" {
		return nil, fmt.Errorf("%w: empty token address", ErrInvalidPosition)
	}
	if p.BuyPrice <= 0 {
		return nil, fmt.Errorf("%w: buy price %v", ErrInvalidPosition, p.BuyPrice)
	}
	if p.RiskAmount <= 0 {
		return nil, fmt.Errorf("%w: risk amount %v", ErrInvalidPosition, p.RiskAmount)
	}
	if p.ProfitMultiplier <= 1 || p.StopLossRatio <= 0 || p.StopLossRatio >= 1 {
		return nil, fmt.Errorf("%w: multiplier %v stop-loss ratio %v",
			ErrInvalidPosition, p.ProfitMultiplier, p.StopLossRatio)
	}

	openedAt := p.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	return &Position{
		ID:            uuid.New().String(),
		TokenAddress:  p.Token.Address,
		Symbol:        p.Token.Symbol,
		Category:      p.Evaluation.Category,
		Score:         p.Evaluation.Score,
		BuyPrice:      p.BuyPrice,
		Quantity:      p.RiskAmount / p.BuyPrice,
		RiskAmount:    p.RiskAmount,
		TargetPrice:   p.BuyPrice * p.ProfitMultiplier,
		StopLossPrice: p.BuyPrice * p.StopLossRatio,
		State:         StateOpen,
		OpenedAt:      openedAt,
		OpenReceipt:   p.Receipt,
	}, nil
}

// Decide maps the current price to the next state. It does not mutate p.
func (p *Position) Decide(currentPrice float64) PositionState {
	switch {
	case currentPrice >= p.TargetPrice:
		return StateClosedProfit
	case currentPrice <= p.StopLossPrice:
		return StateClosedStopLoss
	default:
		return StateOpen
	}
}

// DisplayName returns the symbol when present, otherwise the address.
func (p *Position) DisplayName() string {
	if p.Symbol != "" {
		return p.Symbol
	}
	return p.TokenAddress
}

// PnL returns the realized profit of selling the whole quantity at exit.
func (p *Position) PnL(exit float64) float64 {
	qty := decimal.NewFromFloat(p.Quantity)
	diff := decimal.NewFromFloat(exit).Sub(decimal.NewFromFloat(p.BuyPrice))
	pnl, _ := diff.Mul(qty).Float64()
	return pnl
}

// PnLPercent returns the price change from entry in percent.
func (p *Position) PnLPercent(exit float64) float64 {
	if p.BuyPrice <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(p.BuyPrice)).
		Div(decimal.NewFromFloat(p.BuyPrice)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return pct
}

// Clone returns a copy safe to hand to other goroutines.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
