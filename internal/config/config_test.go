package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultPositionPollInterval, cfg.PositionPollInterval)
	assert.Equal(t, 10.0, cfg.RiskAmount)
	assert.Equal(t, 1.4, cfg.ProfitTargetMultiplier)
	assert.Equal(t, 0.8, cfg.StopLossRatio)
	assert.Equal(t, 2.0, cfg.MinScoreThreshold)
	assert.Equal(t, 50, cfg.MaxOpenPositions)
	assert.Equal(t, 20, cfg.MaxMissingTicks)
	assert.False(t, cfg.RealTransactions)
	assert.Equal(t, rpc.DevNet_RPC, cfg.RPCURL)
	assert.Equal(t, 10_000.0, cfg.Tiers.VeryDegen.MinLiquidity)
	assert.Equal(t, 100_000_000.0, cfg.Tiers.OldMidCap.MaxFDV)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
poll_interval: 90s
position_poll_interval: 10s
risk_amount: 25
profit_target_multiplier: 2.0
stop_loss_ratio: 0.5
coin_blacklist:
  - BadCoin
  - " "
tiers:
  very_degen:
    min_liquidity: 20000
telegram:
  token: abc
  chat_id: 42
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.PositionPollInterval)
	assert.Equal(t, 25.0, cfg.RiskAmount)
	assert.Equal(t, 2.0, cfg.ProfitTargetMultiplier)
	assert.Equal(t, 0.5, cfg.StopLossRatio)
	assert.Equal(t, []string{"BadCoin"}, cfg.CoinBlacklist)
	assert.Equal(t, 20_000.0, cfg.Tiers.VeryDegen.MinLiquidity)
	assert.Equal(t, 100_000.0, cfg.Tiers.VeryDegen.MinFDV, "unset tier keys keep defaults")
	assert.True(t, cfg.Telegram.Enabled())
}

func TestLoadConfig_JSONFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"min_score_threshold": 3.5, "dev_blacklist": ["dev1"]}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3.5, cfg.MinScoreThreshold)
	assert.Equal(t, []string{"dev1"}, cfg.DevBlacklist)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SNIPER_RISK_AMOUNT", "7.5")
	t.Setenv("SNIPER_POLL_INTERVAL", "2m")
	t.Setenv("SNIPER_COIN_BLACKLIST", "a, b")
	t.Setenv("SNIPER_TIERS_DEGEN_MIN_TXNS_1H", "150")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7.5, cfg.RiskAmount)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, []string{"a", "b"}, cfg.CoinBlacklist)
	assert.Equal(t, 150.0, cfg.Tiers.Degen.MinTxns1h)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := map[string]string{
		"multiplier not above one": "profit_target_multiplier: 1.0",
		"stop loss ratio too high": "stop_loss_ratio: 1.0",
		"stop loss ratio zero":     "stop_loss_ratio: 0",
		"negative risk":            "risk_amount: -1",
		"zero poll interval":       "poll_interval: 0s",
		"negative floor":           "min_volume: -5",
		"bad feed url":             "feed_url: ftp://example.com",
		"negative missing ticks":   "max_missing_ticks: -1",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, "config.yaml", content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_LiveMode(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	recipient := key.PublicKey().String()

	_, err = LoadConfig(writeConfig(t, "c.yaml", "real_transactions: true\nwallet_path: key.json"))
	assert.ErrorContains(t, err, "recipient_address")

	_, err = LoadConfig(writeConfig(t, "c.yaml", "real_transactions: true\nwallet_path: key.json\nrecipient_address: nope"))
	assert.ErrorContains(t, err, "invalid recipient_address")

	_, err = LoadConfig(writeConfig(t, "c.yaml", "real_transactions: true\nrecipient_address: "+recipient))
	assert.ErrorContains(t, err, "wallet_path")

	cfg, err := LoadConfig(writeConfig(t, "c.yaml", "real_transactions: true\nwallet_path: key.json\nrecipient_address: "+recipient))
	require.NoError(t, err)
	assert.Equal(t, rpc.MainNetBeta_RPC, cfg.RPCURL)
}
