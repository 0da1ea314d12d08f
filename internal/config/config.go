// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/token-sniper/internal/risk"
)

const EnvPrefix = "SNIPER"

type Config struct {
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	PositionPollInterval time.Duration `mapstructure:"position_poll_interval"`

	RiskAmount             float64 `mapstructure:"risk_amount"`
	ProfitTargetMultiplier float64 `mapstructure:"profit_target_multiplier"`
	StopLossRatio          float64 `mapstructure:"stop_loss_ratio"`
	MinScoreThreshold      float64 `mapstructure:"min_score_threshold"`

	MinMarketCap  float64  `mapstructure:"min_market_cap"`
	MinVolume     float64  `mapstructure:"min_volume"`
	MinPrice      float64  `mapstructure:"min_price"`
	CoinBlacklist []string `mapstructure:"coin_blacklist"`
	DevBlacklist  []string `mapstructure:"dev_blacklist"`

	RealTransactions bool    `mapstructure:"real_transactions"`
	RecipientAddress string  `mapstructure:"recipient_address"`
	TransferAmount   float64 `mapstructure:"transfer_amount"`
	PriorityFee      uint64  `mapstructure:"priority_fee"`
	RPCURL           string  `mapstructure:"rpc_url"`
	WalletPath       string  `mapstructure:"wallet_path"`
	SimulatedPrice   float64 `mapstructure:"simulated_price"`

	FeedURL               string        `mapstructure:"feed_url"`
	FeedRequestsPerMinute int           `mapstructure:"feed_requests_per_minute"`
	FeedCacheTTL          time.Duration `mapstructure:"feed_cache_ttl"`

	MaxOpenPositions    int `mapstructure:"max_open_positions"`
	MaxMissingTicks     int `mapstructure:"max_missing_ticks"`
	MaxConcurrentChecks int `mapstructure:"max_concurrent_checks"`

	Tiers    risk.Tiers     `mapstructure:"tiers"`
	RugCheck RugCheckConfig `mapstructure:"rug_check"`
	Telegram TelegramConfig `mapstructure:"telegram"`

	JournalPath  string    `mapstructure:"journal_path"`
	Log          LogConfig `mapstructure:"log"`
	DebugLogging bool      `mapstructure:"debug_logging"`
}

type RugCheckConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	URL      string  `mapstructure:"url"`
	MaxScore float64 `mapstructure:"max_score"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// Enabled reports whether alerts can be sent.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Development bool   `mapstructure:"development"`
}

const (
	DefaultPollInterval           = 60 * time.Second
	DefaultPositionPollInterval   = 30 * time.Second
	DefaultRiskAmount             = 10.0
	DefaultProfitTargetMultiplier = 1.4
	DefaultStopLossRatio          = 0.8
	DefaultMinScoreThreshold      = 2.0
	DefaultMinMarketCap           = 100_000.0
	DefaultMinVolume              = 1_000.0
	DefaultMinPrice               = 0.0001
	DefaultTransferAmount         = 0.01
	DefaultSimulatedPrice         = 0.1
	DefaultFeedURL                = "https://api.dexscreener.com/token-profiles/latest/v1"
	DefaultFeedRequestsPerMinute  = 60
	DefaultFeedCacheTTL           = 5 * time.Second
	DefaultMaxOpenPositions       = 50
	DefaultMaxMissingTicks        = 20
	DefaultMaxConcurrentChecks    = 8
	DefaultRugCheckURL            = "https://api.rugcheck.xyz"
	DefaultRugCheckMaxScore       = 5000.0
	DefaultJournalPath            = "logs/trades.csv"
	DefaultLogFile                = "logs/sniper.log"
)

// LoadConfig reads path (if non-empty), an optional .env file and SNIPER_*
// environment variables, in increasing priority.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.CoinBlacklist = cleanList(cfg.CoinBlacklist)
	cfg.DevBlacklist = cleanList(cfg.DevBlacklist)
	if cfg.RPCURL == "" {
		cfg.RPCURL = DefaultRPCURL(cfg.RealTransactions)
	}

	return &cfg, validateConfig(&cfg)
}

// DefaultRPCURL picks devnet for simulation and mainnet for real trades.
func DefaultRPCURL(real bool) string {
	if real {
		return rpc.MainNetBeta_RPC
	}
	return rpc.DevNet_RPC
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"poll_interval":            DefaultPollInterval,
		"position_poll_interval":   DefaultPositionPollInterval,
		"risk_amount":              DefaultRiskAmount,
		"profit_target_multiplier": DefaultProfitTargetMultiplier,
		"stop_loss_ratio":          DefaultStopLossRatio,
		"min_score_threshold":      DefaultMinScoreThreshold,
		"min_market_cap":           DefaultMinMarketCap,
		"min_volume":               DefaultMinVolume,
		"min_price":                DefaultMinPrice,
		"coin_blacklist":           []string{},
		"dev_blacklist":            []string{},
		"real_transactions":        false,
		"recipient_address":        "",
		"transfer_amount":          DefaultTransferAmount,
		"priority_fee":             0,
		"rpc_url":                  "",
		"wallet_path":              "",
		"simulated_price":          DefaultSimulatedPrice,
		"feed_url":                 DefaultFeedURL,
		"feed_requests_per_minute": DefaultFeedRequestsPerMinute,
		"feed_cache_ttl":           DefaultFeedCacheTTL,
		"max_open_positions":       DefaultMaxOpenPositions,
		"max_missing_ticks":        DefaultMaxMissingTicks,
		"max_concurrent_checks":    DefaultMaxConcurrentChecks,
		"rug_check.enabled":        false,
		"rug_check.url":            DefaultRugCheckURL,
		"rug_check.max_score":      DefaultRugCheckMaxScore,
		"telegram.token":           "",
		"telegram.chat_id":         0,
		"journal_path":             DefaultJournalPath,
		"log.level":                "info",
		"log.file":                 DefaultLogFile,
		"log.max_size_mb":          100,
		"log.max_backups":          5,
		"log.max_age_days":         30,
		"log.development":          false,
		"debug_logging":            false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	tiers := risk.DefaultTiers()
	setTierDefaults(v, "tiers.very_degen", tiers.VeryDegen)
	setTierDefaults(v, "tiers.degen", tiers.Degen)
	setTierDefaults(v, "tiers.mid_cap", tiers.MidCap)
	setTierDefaults(v, "tiers.old_mid_cap", tiers.OldMidCap)
	setTierDefaults(v, "tiers.larger_mid_cap", tiers.LargerMidCap)
}

func setTierDefaults(v *viper.Viper, prefix string, r risk.TierRule) {
	v.SetDefault(prefix+".min_liquidity", r.MinLiquidity)
	v.SetDefault(prefix+".min_fdv", r.MinFDV)
	v.SetDefault(prefix+".max_fdv", r.MaxFDV)
	v.SetDefault(prefix+".min_age_hours", r.MinAgeHours)
	v.SetDefault(prefix+".max_age_hours", r.MaxAgeHours)
	v.SetDefault(prefix+".min_txns_1h", r.MinTxns1h)
	v.SetDefault(prefix+".min_txns_24h", r.MinTxns24h)
	v.SetDefault(prefix+".min_volume_24h", r.MinVolume24h)
	v.SetDefault(prefix+".min_volume_6h", r.MinVolume6h)
}

func validateConfig(cfg *Config) error {
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	if err := validateURL(cfg.FeedURL, "http"); err != nil {
		return fmt.Errorf("invalid feed_url: %w", err)
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if cfg.RugCheck.Enabled {
		if err := validateURL(cfg.RugCheck.URL, "http"); err != nil {
			return fmt.Errorf("invalid rug_check.url: %w", err)
		}
	}
	if cfg.RealTransactions {
		return validateLiveMode(cfg)
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	switch {
	case cfg.PollInterval <= 0:
		return errors.New("invalid poll_interval")
	case cfg.PositionPollInterval <= 0:
		return errors.New("invalid position_poll_interval")
	case cfg.RiskAmount <= 0:
		return errors.New("risk_amount must be positive")
	case cfg.ProfitTargetMultiplier <= 1:
		return errors.New("profit_target_multiplier must be greater than 1")
	case cfg.StopLossRatio <= 0 || cfg.StopLossRatio >= 1:
		return errors.New("stop_loss_ratio must be between 0 and 1")
	case cfg.MinScoreThreshold < 0:
		return errors.New("invalid min_score_threshold")
	case cfg.MinMarketCap < 0 || cfg.MinVolume < 0 || cfg.MinPrice < 0:
		return errors.New("floors must not be negative")
	case cfg.SimulatedPrice <= 0:
		return errors.New("simulated_price must be positive")
	case cfg.FeedRequestsPerMinute <= 0:
		return errors.New("invalid feed_requests_per_minute")
	case cfg.FeedCacheTTL < 0:
		return errors.New("invalid feed_cache_ttl")
	case cfg.MaxOpenPositions < 0:
		return errors.New("invalid max_open_positions")
	case cfg.MaxMissingTicks < 0:
		return errors.New("invalid max_missing_ticks")
	case cfg.MaxConcurrentChecks <= 0:
		return errors.New("invalid max_concurrent_checks")
	}
	return nil
}

func validateLiveMode(cfg *Config) error {
	if cfg.RecipientAddress == "" {
		return errors.New("recipient_address is required for real transactions")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.RecipientAddress); err != nil {
		return fmt.Errorf("invalid recipient_address: %w", err)
	}
	if cfg.TransferAmount <= 0 {
		return errors.New("transfer_amount must be positive for real transactions")
	}
	if cfg.WalletPath == "" {
		return errors.New("wallet_path is required for real transactions")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if clean := strings.TrimSpace(part); clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}
