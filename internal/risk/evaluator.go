// internal/risk/evaluator.go
package risk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
	"github.com/rovshanmuradov/token-sniper/internal/scoring"
)

// Reject reasons.
const (
	ReasonMissingAddress  = "missing address"
	ReasonCoinBlacklisted = "coin blacklisted"
	ReasonDevBlacklisted  = "dev blacklisted"
	ReasonSupplyBundled   = "supply bundled"
	ReasonNoVolume        = "no verified volume"
	ReasonRugCheck        = "rug check failed"
	ReasonMarketCapFloor  = "market cap floor"
	ReasonLowVolume       = "low volume"
	ReasonDustPrice       = "dust price"
	ReasonMalformed       = "malformed record"
	ReasonFailure         = "evaluation failure"
)

// Config holds the hard floors and tier thresholds.
type Config struct {
	MinMarketCap float64
	MinVolume    float64
	MinPrice     float64
	Tiers        Tiers
}

// Evaluator applies reject rules in a fixed order, then assigns a tier and
// a score.
type Evaluator struct {
	cfg       Config
	coins     *Blacklist
	devs      *Blacklist
	rugChecks RugChecker
	logger    *zap.Logger
}

// NewEvaluator creates an evaluator. A nil rug checker passes every token.
func NewEvaluator(cfg Config, coins, devs *Blacklist, rug RugChecker, logger *zap.Logger) *Evaluator {
	if rug == nil {
		rug = PassRugChecker{}
	}
	return &Evaluator{
		cfg:       cfg,
		coins:     coins,
		devs:      devs,
		rugChecks: rug,
		logger:    logger.Named("evaluator"),
	}
}

// Evaluate never panics and never accepts a record it could not fully
// process.
func (e *Evaluator) Evaluate(ctx context.Context, token domain.TokenSnapshot) (result domain.EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Evaluation panicked",
				zap.String("token", token.Address),
				zap.Any("panic", r))
			result = domain.Reject(ReasonFailure)
		}
	}()

	if reason := e.rejectReason(ctx, token); reason != "" {
		r := domain.Reject(reason)
		r.Score = scoring.Score(token)
		return r
	}

	return domain.EvaluationResult{
		Eligible: true,
		Category: e.cfg.Tiers.Categorize(token),
		Score:    scoring.Score(token),
	}
}

func (e *Evaluator) rejectReason(ctx context.Context, t domain.TokenSnapshot) string {
	switch {
	case t.Address == "":
		return ReasonMissingAddress
	case e.coins.Contains(t.Address):
		return ReasonCoinBlacklisted
	case e.devs.Contains(t.DevAddress):
		return ReasonDevBlacklisted
	case t.SupplyBundled:
		return ReasonSupplyBundled
	case t.VolumeUSD24h <= 0:
		return ReasonNoVolume
	}

	passed, err := e.rugChecks.Check(ctx, t.Address)
	if err != nil {
		e.logger.Warn("Rug check error",
			zap.String("token", t.Address),
			zap.Error(err))
		return fmt.Sprintf("%s: %v", ReasonRugCheck, err)
	}
	if !passed {
		return ReasonRugCheck
	}

	switch {
	case t.MarketCapUSD < e.cfg.MinMarketCap:
		return ReasonMarketCapFloor
	case t.VolumeUSD24h < e.cfg.MinVolume:
		return ReasonLowVolume
	case t.PriceUSD < e.cfg.MinPrice:
		return ReasonDustPrice
	case t.IsMalformed():
		return ReasonMalformed
	}
	return ""
}
