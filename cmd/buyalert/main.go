package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liamashdown/buyalert/internal/alerts"
	"github.com/liamashdown/buyalert/internal/blockscout"
	"github.com/liamashdown/buyalert/internal/config"
	"github.com/liamashdown/buyalert/internal/dexscreener"
	"github.com/liamashdown/buyalert/internal/fetch"
	"github.com/liamashdown/buyalert/internal/metrics"
	"github.com/liamashdown/buyalert/internal/processor"
	"github.com/liamashdown/buyalert/internal/ratelimit"
	"github.com/liamashdown/buyalert/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	demo := flag.Bool("demo", false, "send one demo alert using live market data and exit")
	flag.Parse()

	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(log, cfg)

	log.Info("Starting buyalert service...")

	log.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"token":          cfg.TokenAddress,
		"chain":          cfg.ChainID,
		"min_buy_usd":    cfg.MinBuyUSD,
		"poll_interval":  cfg.PollInterval.String(),
		"api_cooldown":   cfg.APICooldown.String(),
		"alert_mode":     cfg.AlertMode,
		"alert_history":  cfg.DatabaseDSN != "",
		"preload_on_run": cfg.Preload,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional alert history
	var store processor.AlertStore
	if cfg.DatabaseDSN != "" {
		db, err := storage.New(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.AutoMigrate(); err != nil {
			log.WithError(err).Fatal("Failed to run database migrations")
		}
		log.Info("Database connected")
		store = db
	}

	// Every upstream call shares one spacing gate
	gate := ratelimit.New(cfg.APICooldown)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	policy := fetch.DefaultPolicy(cfg.FetchRetries, cfg.FetchRetryBase)

	market := dexscreener.NewClient(cfg.DexScreenerAPIURL, fetch.New("dexscreener", httpClient, gate, policy, log))
	transfers := blockscout.NewClient(cfg.ExplorerURL, fetch.New("blockscout", httpClient, gate, policy, log))

	log.Info("API clients initialized")

	alertSender := createAlertSender(cfg, log)
	log.WithField("alert_mode", cfg.AlertMode).Info("Alert sender initialized")

	proc := processor.New(cfg, market, transfers, alertSender, store, log)

	if *demo {
		if err := proc.SendDemoAlert(ctx); err != nil {
			log.WithError(err).Fatal("Demo alert failed")
		}
		return
	}

	// Start HTTP server (health + metrics)
	server := newHTTPServer(cfg.HealthPort, proc)
	go func() {
		log.WithField("port", cfg.HealthPort).Info("Starting HTTP server (health + metrics)")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
		}
	}()

	if cfg.Preload {
		if err := proc.Preload(ctx); err != nil {
			log.WithError(err).Warn("Starting without a full preload")
		}
	} else {
		proc.MarkReady()
	}

	log.WithField("token", cfg.TokenAddress).Info("Monitoring buys")
	proc.Run(ctx)

	log.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown")
	}
	log.Info("Graceful shutdown complete")
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.Environment == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		return
	}
	log.SetLevel(level)
}

func createAlertSender(cfg *config.Config, log *logrus.Logger) alerts.Sender {
	style := alerts.Style{
		Emoji:         cfg.AlertEmoji,
		EmojiValueUSD: cfg.EmojiValueUSD,
		MaxEmojis:     cfg.MaxEmojis,
	}

	senders := []alerts.Sender{}
	for _, mode := range cfg.AlertModes() {
		switch mode {
		case config.AlertModeLog:
			senders = append(senders, alerts.NewLogSender(log))
		case config.AlertModeTelegram:
			if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
				log.Warn("Telegram mode specified but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set")
				continue
			}
			senders = append(senders, alerts.NewTelegramSender(
				cfg.TelegramAPIURL,
				cfg.TelegramBotToken,
				cfg.TelegramChatID,
				cfg.AlertImageURL,
				cfg.AlertImageType,
				style,
			))
		case config.AlertModeDiscord:
			if len(cfg.DiscordWebhookURLs) == 0 {
				log.Warn("Discord mode specified but DISCORD_WEBHOOK_URLS not set")
				continue
			}
			for _, url := range cfg.DiscordWebhookURLs {
				senders = append(senders, alerts.NewDiscordSender(url, style))
			}
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, skipping")
		}
	}

	switch len(senders) {
	case 0:
		log.Warn("No valid alert senders configured, using log")
		return alerts.NewLogSender(log)
	case 1:
		return senders[0]
	default:
		return alerts.NewMultiSender(senders...)
	}
}

type readiness interface {
	Ready() bool
}

func newHTTPServer(port int, proc readiness) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordHealthCheck(true)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ready := proc.Ready()
		metrics.RecordHealthCheck(ready)
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"loading"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ready"}`)
	})

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}
