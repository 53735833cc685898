package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		TokenAddress:      "0x1234567890abcdef1234567890abcdef12345678",
		ExplorerURL:       "https://explorer.example",
		DexScreenerAPIURL: "https://api.dexscreener.com",
		PollInterval:      5000,
		FetchRetries:      3,
		MinBuyUSD:         10,
		LedgerMax:         1000,
		LedgerKeep:        500,
		AlertImageType:    "photo",
		AlertMode:         AlertModeLog,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad token address", func(c *Config) { c.TokenAddress = "0xYOUR_TOKEN_ADDRESS_HERE" }, "TOKEN_ADDRESS"},
		{"keep equals max", func(c *Config) { c.LedgerKeep = 1000 }, "LEDGER_KEEP"},
		{"zero keep", func(c *Config) { c.LedgerKeep = 0 }, "LEDGER_KEEP"},
		{"unknown alert mode", func(c *Config) { c.AlertMode = "log,pager" }, "invalid ALERT_MODE"},
		{"telegram without token", func(c *Config) { c.AlertMode = "telegram"; c.TelegramChatID = "-100" }, "TELEGRAM_BOT_TOKEN"},
		{"telegram configured", func(c *Config) {
			c.AlertMode = "log, telegram"
			c.TelegramBotToken = "123:abc"
			c.TelegramChatID = "-100"
		}, ""},
		{"discord without urls", func(c *Config) { c.AlertMode = "discord" }, "DISCORD_WEBHOOK_URLS"},
		{"bad image type", func(c *Config) { c.AlertImageType = "video" }, "IMAGE_TYPE"},
		{"no retries", func(c *Config) { c.FetchRetries = 0 }, "FETCH_RETRIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOKEN_ADDRESS", "0xABCDEF1234567890abcdef1234567890ABCDEF12")
	t.Setenv("MIN_BUY_USD", "25.5")
	t.Setenv("POLL_INTERVAL", "2500")
	t.Setenv("ALERT_MODE", "log")
	t.Setenv("PRELOAD", "false")
	t.Setenv("EXPLORER_URL", "https://explorer.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25.5, cfg.MinBuyUSD)
	assert.Equal(t, int64(2500), cfg.PollInterval.Milliseconds())
	assert.False(t, cfg.Preload)
	assert.Equal(t, "https://explorer.example", cfg.ExplorerURL)
	assert.Equal(t, 1000, cfg.LedgerMax)
	assert.Equal(t, 500, cfg.LedgerKeep)
	assert.Equal(t, []string{"log"}, cfg.AlertModes())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("TOKEN_ADDRESS", "0xABCDEF1234567890abcdef1234567890ABCDEF12")
	t.Setenv("ALERT_MODE", "log")

	t.Run("missing file", func(t *testing.T) {
		chdir(t, t.TempDir())
		_, err := Load()
		assert.NoError(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TOKEN_NAME=\"Mega\n"), 0o600))
		chdir(t, dir)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load .env")
	})
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseCSV(" a, ,b ,"))
	assert.Nil(t, parseCSV(""))
}
