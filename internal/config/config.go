package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/liamashdown/buyalert/internal/secrets"
)

// Alert modes accepted in ALERT_MODE
const (
	AlertModeLog      = "log"
	AlertModeTelegram = "telegram"
	AlertModeDiscord  = "discord"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Token
	TokenAddress string
	TokenName    string
	TokenSymbol  string

	// Chain / upstream APIs
	ChainID           string // DexScreener chain id used to pick the pair
	ExplorerURL       string // Blockscout base URL
	DexScreenerAPIURL string
	DexScreenerWebURL string
	HTTPTimeout       time.Duration

	// Fetch pacing
	APICooldown      time.Duration // minimum spacing between any two fetches
	FetchRetries     int
	FetchRetryBase   time.Duration
	PreloadRetryBase time.Duration

	// Detection
	MinBuyUSD float64

	// Polling
	PollInterval time.Duration
	InitialDelay time.Duration
	AlertSpacing time.Duration
	Preload      bool

	// Ledger bounds
	LedgerMax  int
	LedgerKeep int

	// Alert formatting
	AlertEmoji     string
	EmojiValueUSD  float64
	MaxEmojis      int
	AlertImageURL  string
	AlertImageType string // photo or animation

	// Alerts
	AlertMode          string // comma-separated: log, telegram, discord
	TelegramBotToken   string
	TelegramChatID     string
	TelegramAPIURL     string
	DiscordWebhookURLs []string

	// Database (optional alert history)
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Health/metrics
	HealthPort int
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present;
// real environment variables always win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "production"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		TokenAddress:        strings.TrimSpace(getEnv("TOKEN_ADDRESS", "")),
		TokenName:           getEnv("TOKEN_NAME", ""),
		TokenSymbol:         getEnv("TOKEN_SYMBOL", ""),
		ChainID:             getEnv("CHAIN_ID", "megaeth"),
		ExplorerURL:         strings.TrimRight(getEnv("EXPLORER_URL", "https://megaeth.blockscout.com"), "/"),
		DexScreenerAPIURL:   strings.TrimRight(getEnv("DEXSCREENER_API_URL", "https://api.dexscreener.com"), "/"),
		DexScreenerWebURL:   strings.TrimRight(getEnv("DEXSCREENER_WEB_URL", "https://dexscreener.com"), "/"),
		HTTPTimeout:         time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 10)) * time.Second,
		APICooldown:         getEnvMillis("API_COOLDOWN_MS", 500),
		FetchRetries:        getEnvInt("FETCH_RETRIES", 3),
		FetchRetryBase:      getEnvMillis("FETCH_RETRY_BASE_MS", 1000),
		PreloadRetryBase:    getEnvMillis("PRELOAD_RETRY_BASE_MS", 2000),
		MinBuyUSD:           getEnvFloat("MIN_BUY_USD", 10),
		PollInterval:        getEnvMillis("POLL_INTERVAL", 5000),
		InitialDelay:        getEnvMillis("INITIAL_DELAY_MS", 1000),
		AlertSpacing:        getEnvMillis("ALERT_SPACING_MS", 500),
		Preload:             getEnvBool("PRELOAD", true),
		LedgerMax:           getEnvInt("LEDGER_MAX", 1000),
		LedgerKeep:          getEnvInt("LEDGER_KEEP", 500),
		AlertEmoji:          getEnv("ALERT_EMOJI", "🟢"),
		EmojiValueUSD:       getEnvFloat("EMOJI_VALUE", 10),
		MaxEmojis:           getEnvInt("MAX_EMOJIS", 30),
		AlertImageURL:       getEnv("ALERT_IMAGE", ""),
		AlertImageType:      getEnv("IMAGE_TYPE", "photo"),
		AlertMode:           getEnv("ALERT_MODE", AlertModeLog),
		TelegramBotToken:    secrets.GetOptionalSecret("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:      getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIURL:      strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		DatabaseDSN:         secrets.GetOptionalSecret("DATABASE_DSN", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseMaxIdleTime: time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		HealthPort:          getEnvInt("HEALTH_PORT", 8080),
	}

	// DISCORD_WEBHOOK_URLS is comma-separated
	if urls := secrets.GetOptionalSecret("DISCORD_WEBHOOK_URLS", ""); urls != "" {
		cfg.DiscordWebhookURLs = parseCSV(urls)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AlertModes returns the configured alert modes, trimmed
func (c *Config) AlertModes() []string {
	return parseCSV(c.AlertMode)
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.TokenAddress) {
		return fmt.Errorf("TOKEN_ADDRESS must be a hex address, got %q", c.TokenAddress)
	}

	if c.ExplorerURL == "" {
		return fmt.Errorf("EXPLORER_URL is required")
	}
	if c.DexScreenerAPIURL == "" {
		return fmt.Errorf("DEXSCREENER_API_URL is required")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.FetchRetries < 1 {
		return fmt.Errorf("FETCH_RETRIES must be at least 1")
	}
	if c.MinBuyUSD < 0 {
		return fmt.Errorf("MIN_BUY_USD must not be negative")
	}

	if c.LedgerKeep <= 0 || c.LedgerKeep >= c.LedgerMax {
		return fmt.Errorf("LEDGER_KEEP (%d) must be positive and below LEDGER_MAX (%d)", c.LedgerKeep, c.LedgerMax)
	}

	switch c.AlertImageType {
	case "photo", "animation":
	default:
		return fmt.Errorf("invalid IMAGE_TYPE: %s (must be photo or animation)", c.AlertImageType)
	}

	modes := c.AlertModes()
	if len(modes) == 0 {
		return fmt.Errorf("ALERT_MODE is required")
	}
	for _, mode := range modes {
		switch mode {
		case AlertModeLog:
		case AlertModeTelegram:
			if c.TelegramBotToken == "" || c.TelegramChatID == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when telegram is in ALERT_MODE")
			}
		case AlertModeDiscord:
			if len(c.DiscordWebhookURLs) == 0 {
				return fmt.Errorf("DISCORD_WEBHOOK_URLS is required when discord is in ALERT_MODE")
			}
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: log, telegram, discord)", mode)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Millisecond
}

func parseCSV(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
