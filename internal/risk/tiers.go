// internal/risk/tiers.go
package risk

import "github.com/rovshanmuradov/token-sniper/internal/domain"

// TierRule holds the inclusive thresholds of one tier. A zero maximum means
// unbounded.
type TierRule struct {
	MinLiquidity float64 `mapstructure:"min_liquidity"`
	MinFDV       float64 `mapstructure:"min_fdv"`
	MaxFDV       float64 `mapstructure:"max_fdv"`
	MinAgeHours  float64 `mapstructure:"min_age_hours"`
	MaxAgeHours  float64 `mapstructure:"max_age_hours"`
	MinTxns1h    float64 `mapstructure:"min_txns_1h"`
	MinTxns24h   float64 `mapstructure:"min_txns_24h"`
	MinVolume24h float64 `mapstructure:"min_volume_24h"`
	MinVolume6h  float64 `mapstructure:"min_volume_6h"`
}

// Tiers are checked in field order; the first match wins.
type Tiers struct {
	VeryDegen    TierRule `mapstructure:"very_degen"`
	Degen        TierRule `mapstructure:"degen"`
	MidCap       TierRule `mapstructure:"mid_cap"`
	OldMidCap    TierRule `mapstructure:"old_mid_cap"`
	LargerMidCap TierRule `mapstructure:"larger_mid_cap"`
}

// DefaultTiers returns the stock thresholds.
func DefaultTiers() Tiers {
	return Tiers{
		VeryDegen: TierRule{
			MinLiquidity: 10_000,
			MinFDV:       100_000,
			MinAgeHours:  0,
			MaxAgeHours:  48,
			MinTxns1h:    30,
		},
		Degen: TierRule{
			MinLiquidity: 15_000,
			MinFDV:       100_000,
			MinAgeHours:  1,
			MaxAgeHours:  72,
			MinTxns1h:    100,
		},
		MidCap: TierRule{
			MinLiquidity: 100_000,
			MinFDV:       1_000_000,
			MinVolume24h: 1_200_000,
			MinTxns24h:   30,
		},
		OldMidCap: TierRule{
			MinLiquidity: 100_000,
			MinFDV:       200_000,
			MaxFDV:       100_000_000,
			MinAgeHours:  720,
			MaxAgeHours:  2800,
			MinVolume24h: 200_000,
			MinTxns24h:   2000,
		},
		LargerMidCap: TierRule{
			MinLiquidity: 200_000,
			MinFDV:       1_000_000,
			MinVolume6h:  150_000,
		},
	}
}

type namedRule struct {
	category domain.Category
	rule     TierRule
}

func (t Tiers) ordered() []namedRule {
	return []namedRule{
		{domain.CategoryVeryDegen, t.VeryDegen},
		{domain.CategoryDegen, t.Degen},
		{domain.CategoryMidCap, t.MidCap},
		{domain.CategoryOldMidCap, t.OldMidCap},
		{domain.CategoryLargerMidCap, t.LargerMidCap},
	}
}

// Categorize returns the first tier the token satisfies, or CategoryNone.
func (t Tiers) Categorize(token domain.TokenSnapshot) domain.Category {
	for _, nr := range t.ordered() {
		if nr.rule.matches(token) {
			return nr.category
		}
	}
	return domain.CategoryNone
}

func (r TierRule) matches(t domain.TokenSnapshot) bool {
	fdv := t.FDVUSD
	if fdv == 0 {
		fdv = t.MarketCapUSD
	}

	switch {
	case t.LiquidityUSD < r.MinLiquidity:
		return false
	case fdv < r.MinFDV:
		return false
	case r.MaxFDV > 0 && fdv > r.MaxFDV:
		return false
	case t.PairAgeHours < r.MinAgeHours:
		return false
	case r.MaxAgeHours > 0 && t.PairAgeHours > r.MaxAgeHours:
		return false
	case t.Txns1h < r.MinTxns1h:
		return false
	case t.Txns24h < r.MinTxns24h:
		return false
	case t.VolumeUSD24h < r.MinVolume24h:
		return false
	case t.VolumeUSD6h < r.MinVolume6h:
		return false
	}
	return true
}
