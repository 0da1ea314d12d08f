// internal/feed/decode.go
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

// ErrMalformed is returned when the response body is not valid JSON.
var ErrMalformed = errors.New("malformed feed response")

// UseNumber keeps numeric precision until the lenient conversion below.
var jsonAPI = jsoniter.Config{
	UseNumber:              true,
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// Field keys of a feed record.
const (
	keyTokenAddress  = "tokenAddress"
	keyAddress       = "address"
	keySymbol        = "symbol"
	keyPriceUSD      = "priceUsd"
	keyLiquidityUSD  = "liquidityUsd"
	keyVolume24h     = "volumeUsd24Hr"
	keyVolume24hAlt  = "volumeUsd24h"
	keyVolume6h      = "volumeUsd6h"
	keyMarketCapUSD  = "marketCapUsd"
	keyFDVUSD        = "fdvUsd"
	keyPairAgeHours  = "pairAgeHours"
	keyTxns1h        = "txns1h"
	keyTxns24h       = "txns24h"
	keyDevAddress    = "devAddress"
	keySupplyBundled = "supplyBundled"
)

// Decode parses a feed response body. The body is either a JSON list of
// records or an object carrying the list under "data". Any other shape
// yields an empty list. Records without an address are skipped.
func Decode(body []byte) ([]domain.TokenSnapshot, error) {
	var root interface{}
	if err := jsonAPI.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var items []interface{}
	switch v := root.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		if data, ok := v["data"].([]interface{}); ok {
			items = data
		}
	}

	tokens := make([]domain.TokenSnapshot, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		snap := DecodeSnapshot(record)
		if snap.Address == "" {
			continue
		}
		tokens = append(tokens, snap)
	}
	return tokens, nil
}

// DecodeSnapshot converts one raw feed record. Missing numeric fields become
// zero; present but unparsable ones become zero and are listed in Malformed.
func DecodeSnapshot(record map[string]interface{}) domain.TokenSnapshot {
	d := recordDecoder{record: record}

	snap := domain.TokenSnapshot{
		Address:       d.str(keyTokenAddress, keyAddress),
		Symbol:        d.str(keySymbol),
		PriceUSD:      d.num(keyPriceUSD),
		LiquidityUSD:  d.num(keyLiquidityUSD),
		VolumeUSD24h:  d.num(keyVolume24h, keyVolume24hAlt),
		VolumeUSD6h:   d.num(keyVolume6h),
		MarketCapUSD:  d.num(keyMarketCapUSD),
		FDVUSD:        d.num(keyFDVUSD),
		PairAgeHours:  d.num(keyPairAgeHours),
		Txns1h:        d.num(keyTxns1h),
		Txns24h:       d.num(keyTxns24h),
		DevAddress:    d.str(keyDevAddress),
		SupplyBundled: d.flag(keySupplyBundled),
	}
	if snap.MarketCapUSD == 0 {
		snap.MarketCapUSD = snap.FDVUSD
	}
	snap.Malformed = d.malformed
	return snap
}

type recordDecoder struct {
	record    map[string]interface{}
	malformed []string
}

// lookup returns the first non-null value among keys.
func (d *recordDecoder) lookup(keys ...string) (string, interface{}, bool) {
	for _, k := range keys {
		if v, ok := d.record[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

func (d *recordDecoder) str(keys ...string) string {
	_, v, ok := d.lookup(keys...)
	if !ok {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (d *recordDecoder) num(keys ...string) float64 {
	key, v, ok := d.lookup(keys...)
	if !ok {
		return 0
	}
	if n, isNumber := v.(json.Number); isNumber {
		v = n.String()
	}
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
		if v == "" {
			return 0
		}
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		d.malformed = append(d.malformed, key)
		return 0
	}
	return f
}

func (d *recordDecoder) flag(keys ...string) bool {
	key, v, ok := d.lookup(keys...)
	if !ok {
		return false
	}
	if n, isNumber := v.(json.Number); isNumber {
		v = n.String()
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		d.malformed = append(d.malformed, key)
		return false
	}
	return b
}
