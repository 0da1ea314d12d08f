// internal/trade/simulator.go
package trade

import (
	"context"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

// Simulator fills every order locally without side effects.
type Simulator struct {
	price  float64
	logger *zap.Logger
}

func NewSimulator(price float64, logger *zap.Logger) *Simulator {
	if price <= 0 {
		price = DefaultSimulatedPrice
	}
	return &Simulator{price: price, logger: logger.Named("simulator")}
}

func (s *Simulator) Open(ctx context.Context, tokenAddress string, riskAmount float64) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}
	price, err := fillPrice(ctx, s.price)
	if err != nil {
		return Fill{}, err
	}

	s.logger.Info("Simulated buy",
		zap.String("token", tokenAddress),
		zap.Float64("amount", riskAmount),
		zap.Float64("price", price))

	return Fill{Price: price, Quantity: riskAmount / price}, nil
}

func (s *Simulator) Close(ctx context.Context, p *domain.Position) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}
	price, err := fillPrice(ctx, s.price)
	if err != nil {
		return Fill{}, err
	}

	s.logger.Info("Simulated sell",
		zap.String("token", p.TokenAddress),
		zap.Float64("quantity", p.Quantity),
		zap.Float64("price", price))

	return Fill{Price: price, Quantity: p.Quantity}, nil
}
