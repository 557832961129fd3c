package venue

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	brokerservice "github.com/zappabad/safetrade/internal/broker/service"
	"github.com/zappabad/safetrade/internal/market"
	marketservice "github.com/zappabad/safetrade/internal/market/service"
	"github.com/zappabad/safetrade/internal/trader"
	"github.com/zappabad/safetrade/internal/trader/runner"
	"github.com/zappabad/safetrade/internal/trader/strategy"
)

// Config holds configuration for the venue.
type Config struct {
	// HTTPAddr is where the API server listens.
	HTTPAddr string
	// DataDir holds the account database. Empty keeps accounts in memory.
	DataDir string
	// LogLevel is the zap level name.
	LogLevel string
	// LogFile, when set, also receives log output.
	LogFile string
	// AllowedOrigins lists CORS origins for the API.
	AllowedOrigins []string

	// Listings are the instruments listed at startup.
	Listings []market.Listing
	// MailboxSize bounds each participant's undelivered notices.
	MailboxSize int

	// Bots is the number of simulated participants.
	Bots int
	// BotConfig is the configuration for each bot runner.
	BotConfig runner.Config
	// BotStrategy tunes the bots' random quoting.
	BotStrategy strategy.RandomConfig

	// MarketConfig is the configuration for the directory.
	MarketConfig marketservice.Config
	// BrokerConfig is the configuration for the brokerage.
	BrokerConfig brokerservice.Config
}

// DefaultListings are the instruments a fresh venue trades.
func DefaultListings() []market.Listing {
	return []market.Listing{
		{Symbol: "GGGL", Company: "Giggle.com", OpeningPrice: decimal.RequireFromString("10.00")},
		{Symbol: "NSTL", Company: "Nasty Loops Inc.", OpeningPrice: decimal.RequireFromString("0.25")},
		{Symbol: "SAFE", Company: "SafeTrade Holdings", OpeningPrice: decimal.RequireFromString("42.50")},
	}
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:       ":8080",
		LogLevel:       "info",
		AllowedOrigins: []string{"*"},
		Listings:       DefaultListings(),
		MailboxSize:    trader.DefaultMailboxSize,
		Bots:           0,
		BotConfig:      runner.DefaultConfig(),
		BotStrategy:    strategy.DefaultRandomConfig(),
		MarketConfig:   marketservice.DefaultConfig(),
		BrokerConfig:   brokerservice.DefaultConfig(),
	}
}

// LoadFromEnv loads configuration from a .env file (if it exists) and
// environment variables.
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) (Config, error) {
	cfg := DefaultConfig()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.HTTPAddr = getEnv("SAFETRADE_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DataDir = getEnv("SAFETRADE_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = getEnv("SAFETRADE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("SAFETRADE_LOG_FILE", cfg.LogFile)

	if origins := os.Getenv("SAFETRADE_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	if listings := os.Getenv("SAFETRADE_LISTINGS"); listings != "" {
		parsed, err := market.ParseListings(listings)
		if err != nil {
			return cfg, fmt.Errorf("SAFETRADE_LISTINGS: %w", err)
		}
		cfg.Listings = parsed
	}

	if v := os.Getenv("SAFETRADE_MAILBOX_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("SAFETRADE_MAILBOX_SIZE: invalid value %q", v)
		}
		cfg.MailboxSize = n
	}

	if v := os.Getenv("SAFETRADE_BOTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("SAFETRADE_BOTS: invalid value %q", v)
		}
		cfg.Bots = n
	}

	if v := os.Getenv("SAFETRADE_BOT_TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return cfg, fmt.Errorf("SAFETRADE_BOT_TICK_MS: invalid value %q", v)
		}
		cfg.BotConfig.TickInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
