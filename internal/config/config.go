package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/analyze"
	"github.com/Alias1177/ProfitForge/internal/database"
	"github.com/Alias1177/ProfitForge/internal/trading/backtest"
	"github.com/Alias1177/ProfitForge/models"
)

// Supported market data providers
const (
	ProviderBinance    = "binance"
	ProviderTwelveData = "twelvedata"
)

// DefaultSymbols is the watch list used when SYMBOLS is not set
var DefaultSymbols = []string{
	"BTC/USDT", "ETH/USDT", "SOL/USDT", "BNB/USDT",
	"XRP/USDT", "ADA/USDT", "LTC/USDT",
}

// Config holds all application configuration
type Config struct {
	Provider       string   `env:"PROVIDER" envDefault:"binance"`
	TwelveAPIKey   string   `env:"TWELVE_API_KEY"`
	BinanceBaseURL string   `env:"BINANCE_BASE_URL"`
	Symbols        []string `env:"SYMBOLS"`
	Symbol         string   `env:"SYMBOL" envDefault:"BTC/USDT"`

	EntryResolution string `env:"ENTRY_RESOLUTION" envDefault:"1h"`
	MidResolution   string `env:"MID_RESOLUTION" envDefault:"4h"`
	HighResolution  string `env:"HIGH_RESOLUTION" envDefault:"1d"`
	CandleLimit     int    `env:"CANDLE_LIMIT" envDefault:"500"`

	ATRPeriod          int `env:"ATR_PERIOD" envDefault:"10"`
	RSIPeriod          int `env:"RSI_PERIOD" envDefault:"10"`
	MACDFastPeriod     int `env:"MACD_FAST_PERIOD" envDefault:"8"`
	MACDSlowPeriod     int `env:"MACD_SLOW_PERIOD" envDefault:"24"`
	MACDSignalPeriod   int `env:"MACD_SIGNAL_PERIOD" envDefault:"9"`
	IchimokuConversion int `env:"ICHIMOKU_CONVERSION" envDefault:"9"`
	IchimokuBase       int `env:"ICHIMOKU_BASE" envDefault:"26"`
	IchimokuSpan       int `env:"ICHIMOKU_SPAN" envDefault:"52"`

	BacktestDays      int    `env:"BACKTEST_DAYS" envDefault:"30"`
	BacktestOffset    int    `env:"BACKTEST_OFFSET" envDefault:"60"`
	BacktestFill      string `env:"BACKTEST_FILL" envDefault:"same_bar"`
	BacktestOpenAtEnd string `env:"BACKTEST_OPEN_AT_END" envDefault:"exclude"`
	GridWorkers       int    `env:"GRID_WORKERS" envDefault:"4"`

	RequestTimeout int `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec int `env:"REQUESTS_PER_SEC" envDefault:"0"`
	MaxRetries     int `env:"MAX_RETRIES" envDefault:"3"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	Database database.ConnectionParams

	CachePath       string        `env:"CACHE_PATH"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9090"`
	ScanInterval    time.Duration `env:"SCAN_INTERVAL" envDefault:"15m"`
	ScanConcurrency int           `env:"SCAN_CONCURRENCY" envDefault:"4"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the configuration from the process environment without validating it
func FromEnv() *Config {
	var cfg Config

	cfg.Provider = strings.ToLower(getEnvWithDefault("PROVIDER", ProviderBinance))
	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.BinanceBaseURL = os.Getenv("BINANCE_BASE_URL")
	cfg.Symbols = getEnvListWithDefault("SYMBOLS", DefaultSymbols)
	cfg.Symbol = getEnvWithDefault("SYMBOL", cfg.Symbols[0])

	cfg.EntryResolution = getEnvWithDefault("ENTRY_RESOLUTION", models.Resolution1h)
	cfg.MidResolution = getEnvWithDefault("MID_RESOLUTION", models.Resolution4h)
	cfg.HighResolution = getEnvWithDefault("HIGH_RESOLUTION", models.Resolution1d)
	cfg.CandleLimit = getEnvIntWithDefault("CANDLE_LIMIT", 500)

	defaults := models.DefaultParams()
	cfg.ATRPeriod = getEnvIntWithDefault("ATR_PERIOD", defaults.ATRPeriod)
	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", defaults.RSIPeriod)
	cfg.MACDFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", defaults.MACDFast)
	cfg.MACDSlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", defaults.MACDSlow)
	cfg.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", defaults.MACDSignal)
	cfg.IchimokuConversion = getEnvIntWithDefault("ICHIMOKU_CONVERSION", defaults.IchimokuConversion)
	cfg.IchimokuBase = getEnvIntWithDefault("ICHIMOKU_BASE", defaults.IchimokuBase)
	cfg.IchimokuSpan = getEnvIntWithDefault("ICHIMOKU_SPAN", defaults.IchimokuSpan)

	cfg.BacktestDays = getEnvIntWithDefault("BACKTEST_DAYS", 30)
	cfg.BacktestOffset = getEnvIntWithDefault("BACKTEST_OFFSET", backtest.DefaultOffset)
	cfg.BacktestFill = getEnvWithDefault("BACKTEST_FILL", string(backtest.FillSameBar))
	cfg.BacktestOpenAtEnd = getEnvWithDefault("BACKTEST_OPEN_AT_END", string(backtest.ExcludeOpen))
	cfg.GridWorkers = getEnvIntWithDefault("GRID_WORKERS", 4)

	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 0)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", 3)

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.Database = database.ConnectionParams{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.CachePath = os.Getenv("CACHE_PATH")
	cfg.MetricsAddr = getEnvWithDefault("METRICS_ADDR", ":9090")
	cfg.ScanInterval = getEnvDurationWithDefault("SCAN_INTERVAL", 15*time.Minute)
	cfg.ScanConcurrency = getEnvIntWithDefault("SCAN_CONCURRENCY", 4)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg
}

// Validate checks that the configuration can drive the analysis pipeline
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderBinance, ProviderTwelveData:
	default:
		return fmt.Errorf("unknown PROVIDER %q", c.Provider)
	}
	if c.Provider == ProviderTwelveData && c.TwelveAPIKey == "" {
		return fmt.Errorf("TWELVE_API_KEY is required for provider %s", ProviderTwelveData)
	}

	for _, r := range []struct{ key, value string }{
		{"ENTRY_RESOLUTION", c.EntryResolution},
		{"MID_RESOLUTION", c.MidResolution},
		{"HIGH_RESOLUTION", c.HighResolution},
	} {
		if _, ok := models.ResolutionDuration(r.value); !ok {
			return fmt.Errorf("%s: unsupported resolution %q", r.key, r.value)
		}
	}

	if c.CandleLimit <= 0 {
		return fmt.Errorf("CANDLE_LIMIT must be positive, got %d", c.CandleLimit)
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if err := c.BacktestOptions().Validate(); err != nil {
		return fmt.Errorf("backtest options: %w", err)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive, got %s", c.ScanInterval)
	}
	return nil
}

// Params returns the indicator parameter set
func (c *Config) Params() models.Params {
	return models.Params{
		ATRPeriod:          c.ATRPeriod,
		RSIPeriod:          c.RSIPeriod,
		MACDFast:           c.MACDFastPeriod,
		MACDSlow:           c.MACDSlowPeriod,
		MACDSignal:         c.MACDSignalPeriod,
		IchimokuConversion: c.IchimokuConversion,
		IchimokuBase:       c.IchimokuBase,
		IchimokuSpan:       c.IchimokuSpan,
	}
}

// BacktestOptions returns the replay options
func (c *Config) BacktestOptions() backtest.Options {
	return backtest.Options{
		Offset:    c.BacktestOffset,
		Fill:      backtest.FillMode(c.BacktestFill),
		OpenAtEnd: backtest.OpenAtEnd(c.BacktestOpenAtEnd),
	}
}

// Resolutions returns the entry, mid and high resolutions
func (c *Config) Resolutions() analyze.Resolutions {
	return analyze.Resolutions{
		Entry: c.EntryResolution,
		Mid:   c.MidResolution,
		High:  c.HighResolution,
	}
}

// RequestTimeoutDuration returns REQUEST_TIMEOUT as a duration
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToUpper(item))
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
