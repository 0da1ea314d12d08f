package feed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ListBody(t *testing.T) {
	body := []byte(`[
		{"tokenAddress":"A","symbol":"AAA","priceUsd":0.5,"liquidityUsd":100000,
		 "volumeUsd24Hr":1500000,"marketCapUsd":500000,"pairAgeHours":10,"txns1h":50},
		{"address":"B","symbol":"BBB","priceUsd":"0.25","volumeUsd24h":"2000"}
	]`)

	tokens, err := Decode(body)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	a := tokens[0]
	assert.Equal(t, "A", a.Address)
	assert.Equal(t, "AAA", a.Symbol)
	assert.Equal(t, 0.5, a.PriceUSD)
	assert.Equal(t, 100000.0, a.LiquidityUSD)
	assert.Equal(t, 1500000.0, a.VolumeUSD24h)
	assert.Equal(t, 500000.0, a.MarketCapUSD)
	assert.Equal(t, 10.0, a.PairAgeHours)
	assert.Equal(t, 50.0, a.Txns1h)
	assert.False(t, a.IsMalformed())

	b := tokens[1]
	assert.Equal(t, "B", b.Address)
	assert.Equal(t, 0.25, b.PriceUSD)
	assert.Equal(t, 2000.0, b.VolumeUSD24h)
}

func TestDecode_DataEnvelope(t *testing.T) {
	tokens, err := Decode([]byte(`{"data":[{"tokenAddress":"X","priceUsd":1}]}`))
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "X", tokens[0].Address)
}

func TestDecode_UnexpectedShapes(t *testing.T) {
	for _, body := range []string{`{}`, `{"data":"nope"}`, `42`, `"text"`, `null`, `[1,2,"x"]`} {
		tokens, err := Decode([]byte(body))
		require.NoError(t, err, body)
		assert.Empty(t, tokens, body)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`[{"tokenAddress":`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecode_SkipsRecordsWithoutAddress(t *testing.T) {
	tokens, err := Decode([]byte(`[{"symbol":"NOADDR"},{"tokenAddress":"  "},{"tokenAddress":"OK"}]`))
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "OK", tokens[0].Address)
}

func TestDecodeSnapshot_MarketCapFallsBackToFDV(t *testing.T) {
	snap := DecodeSnapshot(map[string]interface{}{
		"tokenAddress": "A",
		"fdvUsd":       "250000",
	})
	assert.Equal(t, 250000.0, snap.MarketCapUSD)
	assert.Equal(t, 250000.0, snap.FDVUSD)
}

func TestDecodeSnapshot_MalformedFields(t *testing.T) {
	snap := DecodeSnapshot(map[string]interface{}{
		"tokenAddress":  "A",
		"priceUsd":      "abc",
		"liquidityUsd":  -5.0,
		"volumeUsd24Hr": "1000",
		"supplyBundled": "maybe",
	})

	assert.Equal(t, 0.0, snap.PriceUSD)
	assert.Equal(t, 0.0, snap.LiquidityUSD)
	assert.Equal(t, 1000.0, snap.VolumeUSD24h)
	assert.False(t, snap.SupplyBundled)
	assert.True(t, snap.IsMalformed())
	assert.ElementsMatch(t, []string{"priceUsd", "liquidityUsd", "supplyBundled"}, snap.Malformed)
}

func TestDecodeSnapshot_MissingFieldsAreZero(t *testing.T) {
	snap := DecodeSnapshot(map[string]interface{}{"tokenAddress": "A", "priceUsd": nil})
	assert.Equal(t, 0.0, snap.PriceUSD)
	assert.Equal(t, 0.0, snap.VolumeUSD24h)
	assert.False(t, snap.IsMalformed())
}

func TestDecodeSnapshot_SupplyBundled(t *testing.T) {
	tokens, err := Decode([]byte(`[{"tokenAddress":"A","supplyBundled":true},{"tokenAddress":"B","supplyBundled":"false"}]`))
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.True(t, tokens[0].SupplyBundled)
	assert.False(t, tokens[1].SupplyBundled)
}
