// Package scoring ranks tokens by size and activity.
package scoring

import (
	"math"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

const DefaultMinScore = 2.0

const (
	marketCapUnit = 100_000
	liquidityUnit = 50_000
	volumeUnit    = 1_000_000
)

// Score is marketCap/100k + liquidity/50k + volume24h/1M. Negative or
// non-finite inputs count as zero, so the result is always >= 0.
func Score(t domain.TokenSnapshot) float64 {
	return clean(t.MarketCapUSD)/marketCapUnit +
		clean(t.LiquidityUSD)/liquidityUnit +
		clean(t.VolumeUSD24h)/volumeUnit
}

// Accept reports whether a position may be opened.
func Accept(score float64, eval domain.EvaluationResult, minScore float64) bool {
	return score >= minScore && eval.Eligible && eval.Category.Actionable()
}

func clean(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
