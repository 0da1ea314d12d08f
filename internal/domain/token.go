// internal/domain/token.go
package domain

// TokenSnapshot is one normalized record of a token's market state as
// returned by a single feed poll. Values are never mutated after decoding.
type TokenSnapshot struct {
	Address       string
	Symbol        string
	PriceUSD      float64
	LiquidityUSD  float64
	VolumeUSD24h  float64
	VolumeUSD6h   float64
	MarketCapUSD  float64
	FDVUSD        float64
	PairAgeHours  float64
	Txns1h        float64
	Txns24h       float64
	DevAddress    string
	SupplyBundled bool

	// Malformed lists the numeric fields that were present but could not be
	// parsed. They were zeroed during decoding.
	Malformed []string
}

// DisplayName returns the symbol when present, otherwise the address.
func (t TokenSnapshot) DisplayName() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	if t.Address != "" {
		return t.Address
	}
	return "Unknown"
}

// IsMalformed reports whether any numeric field failed to parse.
func (t TokenSnapshot) IsMalformed() bool {
	return len(t.Malformed) > 0
}

// FindByAddress returns the snapshot for address from a polled list.
func FindByAddress(tokens []TokenSnapshot, address string) (TokenSnapshot, bool) {
	for _, t := range tokens {
		if t.Address == address {
			return t, true
		}
	}
	return TokenSnapshot{}, false
}
