package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

func TestTiers_Categorize(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		name  string
		token domain.TokenSnapshot
		want  domain.Category
	}{
		{
			name:  "very degen",
			token: domain.TokenSnapshot{LiquidityUSD: 10_000, FDVUSD: 100_000, PairAgeHours: 0, Txns1h: 30},
			want:  domain.CategoryVeryDegen,
		},
		{
			name:  "degen by age",
			token: domain.TokenSnapshot{LiquidityUSD: 20_000, FDVUSD: 200_000, PairAgeHours: 60, Txns1h: 150},
			want:  domain.CategoryDegen,
		},
		{
			name: "mid cap",
			token: domain.TokenSnapshot{LiquidityUSD: 150_000, FDVUSD: 2_000_000, PairAgeHours: 500,
				VolumeUSD24h: 1_300_000, Txns24h: 40},
			want: domain.CategoryMidCap,
		},
		{
			name: "old mid cap",
			token: domain.TokenSnapshot{LiquidityUSD: 150_000, FDVUSD: 500_000, PairAgeHours: 1000,
				VolumeUSD24h: 250_000, Txns24h: 2500},
			want: domain.CategoryOldMidCap,
		},
		{
			name:  "larger mid cap",
			token: domain.TokenSnapshot{LiquidityUSD: 250_000, FDVUSD: 200_000_000, PairAgeHours: 5000, VolumeUSD6h: 160_000},
			want:  domain.CategoryLargerMidCap,
		},
		{
			name:  "fdv falls back to market cap",
			token: domain.TokenSnapshot{LiquidityUSD: 60_000, MarketCapUSD: 500_000, PairAgeHours: 10, Txns1h: 40},
			want:  domain.CategoryVeryDegen,
		},
		{
			name:  "nothing matches",
			token: domain.TokenSnapshot{LiquidityUSD: 1_000, FDVUSD: 10_000},
			want:  domain.CategoryNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tiers.Categorize(tt.token))
		})
	}
}

func TestTiers_FirstMatchWins(t *testing.T) {
	// Satisfies both VeryDegen and Degen.
	token := domain.TokenSnapshot{LiquidityUSD: 20_000, FDVUSD: 200_000, PairAgeHours: 10, Txns1h: 200}
	assert.Equal(t, domain.CategoryVeryDegen, DefaultTiers().Categorize(token))

	tiers := DefaultTiers()
	tiers.VeryDegen.MinTxns1h = 1_000
	assert.Equal(t, domain.CategoryDegen, tiers.Categorize(token))
}

func TestBlacklist(t *testing.T) {
	bl := NewBlacklist([]string{"AbC", " ", "abc", "Def "})
	assert.Equal(t, 2, bl.Len())
	assert.True(t, bl.Contains("ABC"))
	assert.True(t, bl.Contains("def"))
	assert.False(t, bl.Contains(""))
	assert.False(t, bl.Contains("xyz"))

	var empty *Blacklist
	assert.False(t, empty.Contains("abc"))
}
