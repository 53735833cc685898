package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liamashdown/buyalert/internal/alerts"
	"github.com/liamashdown/buyalert/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type staticReadiness bool

func (r staticReadiness) Ready() bool { return bool(r) }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestCreateAlertSender(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		expected string
	}{
		{"log", config.Config{AlertMode: "log"}, "log"},
		{"telegram", config.Config{AlertMode: "telegram", TelegramBotToken: "t", TelegramChatID: "1"}, "telegram"},
		{"telegram without credentials", config.Config{AlertMode: "telegram"}, "log"},
		{"single discord webhook", config.Config{AlertMode: "discord", DiscordWebhookURLs: []string{"https://a"}}, "discord"},
		{"several discord webhooks", config.Config{AlertMode: "discord", DiscordWebhookURLs: []string{"https://a", "https://b"}}, "multi"},
		{"mixed", config.Config{AlertMode: "log,telegram", TelegramBotToken: "t", TelegramChatID: "1"}, "multi"},
		{"unknown", config.Config{AlertMode: "pager"}, "log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := createAlertSender(&tt.cfg, quietLogger())
			assert.Equal(t, tt.expected, alerts.NameOf(sender))
		})
	}
}

func TestHTTPServer(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		path   string
		status int
	}{
		{"health", false, "/health", http.StatusOK},
		{"loading", false, "/ready", http.StatusServiceUnavailable},
		{"ready", true, "/ready", http.StatusOK},
		{"metrics", true, "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newHTTPServer(0, staticReadiness(tt.ready))
			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	log := quietLogger()
	configureLogger(log, &config.Config{LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	configureLogger(log, &config.Config{LogLevel: "loud", Environment: "development"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
