// internal/trade/live.go
package trade

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

// Live forwards orders to a Gateway. Submissions are not idempotent, so a
// second concurrent order for the same action and token is refused, and a
// token is sold at most once.
type Live struct {
	gateway       Gateway
	fallbackPrice float64
	logger        *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	sold     map[string]struct{}
}

func NewLive(gateway Gateway, fallbackPrice float64, logger *zap.Logger) *Live {
	return &Live{
		gateway:       gateway,
		fallbackPrice: fallbackPrice,
		logger:        logger.Named("live_trade"),
		inFlight:      make(map[string]struct{}),
		sold:          make(map[string]struct{}),
	}
}

func (l *Live) Open(ctx context.Context, tokenAddress string, riskAmount float64) (Fill, error) {
	price, err := fillPrice(ctx, l.fallbackPrice)
	if err != nil {
		return Fill{}, err
	}

	receipt, err := l.submit(ctx, ActionBuy, tokenAddress, riskAmount)
	if err != nil {
		return Fill{}, err
	}
	return Fill{Price: price, Quantity: riskAmount / price, Receipt: receipt}, nil
}

func (l *Live) Close(ctx context.Context, p *domain.Position) (Fill, error) {
	price, err := fillPrice(ctx, p.BuyPrice)
	if err != nil {
		return Fill{}, err
	}

	receipt, err := l.submit(ctx, ActionSell, p.TokenAddress, p.Quantity)
	if err != nil {
		// A receipt with an error is a sell of unknown outcome.
		return Fill{Price: price, Quantity: p.Quantity, Receipt: receipt}, err
	}
	return Fill{Price: price, Quantity: p.Quantity, Receipt: receipt}, nil
}

func (l *Live) submit(ctx context.Context, action Action, token string, amount float64) (string, error) {
	key := string(action) + ":" + token

	l.mu.Lock()
	if _, busy := l.inFlight[key]; busy {
		l.mu.Unlock()
		return "", fmt.Errorf("%w: %s %s in flight", ErrDuplicateSubmission, action, token)
	}
	if _, done := l.sold[token]; done && action == ActionSell {
		l.mu.Unlock()
		return "", fmt.Errorf("%w: %s already sold", ErrDuplicateSubmission, token)
	}
	l.inFlight[key] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.inFlight, key)
		l.mu.Unlock()
	}()

	l.logger.Info("Submitting trade",
		zap.String("action", string(action)),
		zap.String("token", token),
		zap.Float64("amount", amount))

	receipt, err := l.gateway.Execute(ctx, action, token, amount)
	if action == ActionSell && receipt != "" {
		l.mu.Lock()
		l.sold[token] = struct{}{}
		l.mu.Unlock()
	}
	if err != nil {
		return receipt, fmt.Errorf("%s %s: %w", action, token, err)
	}

	l.logger.Info("Trade confirmed",
		zap.String("action", string(action)),
		zap.String("token", token),
		zap.String("receipt", receipt))
	return receipt, nil
}
