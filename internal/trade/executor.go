// internal/trade/executor.go
package trade

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

// DefaultSimulatedPrice is the fill price used when no market price is known.
const DefaultSimulatedPrice = 0.1

var (
	ErrDuplicateSubmission = errors.New("trade already submitted")
	ErrNoPrice             = errors.New("no reference price for fill")
)

// Action is the trade direction sent to a gateway.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Fill is the outcome of an executed trade. Receipt is empty in simulation.
type Fill struct {
	Price    float64
	Quantity float64
	Receipt  string
}

// Executor opens and closes positions.
type Executor interface {
	Open(ctx context.Context, tokenAddress string, riskAmount float64) (Fill, error)
	Close(ctx context.Context, p *domain.Position) (Fill, error)
}

// Gateway submits a real trade and returns its receipt.
type Gateway interface {
	Execute(ctx context.Context, action Action, tokenAddress string, amount float64) (string, error)
}

// Config selects and tunes the executor.
type Config struct {
	RealTransactions bool
	SimulatedPrice   float64
}

// New returns a Live executor when real transactions are enabled, otherwise
// a Simulator.
func New(cfg Config, gateway Gateway, logger *zap.Logger) (Executor, error) {
	if cfg.SimulatedPrice <= 0 {
		cfg.SimulatedPrice = DefaultSimulatedPrice
	}
	if !cfg.RealTransactions {
		return NewSimulator(cfg.SimulatedPrice, logger), nil
	}
	if gateway == nil {
		return nil, fmt.Errorf("real transactions enabled without a gateway")
	}
	return NewLive(gateway, cfg.SimulatedPrice, logger), nil
}

type priceHintKey struct{}

// WithPriceHint attaches the last observed market price to ctx.
func WithPriceHint(ctx context.Context, price float64) context.Context {
	return context.WithValue(ctx, priceHintKey{}, price)
}

// PriceHint returns the price attached by WithPriceHint.
func PriceHint(ctx context.Context) (float64, bool) {
	p, ok := ctx.Value(priceHintKey{}).(float64)
	if !ok || p <= 0 {
		return 0, false
	}
	return p, true
}

func fillPrice(ctx context.Context, fallback float64) (float64, error) {
	if p, ok := PriceHint(ctx); ok {
		return p, nil
	}
	if fallback > 0 {
		return fallback, nil
	}
	return 0, ErrNoPrice
}
