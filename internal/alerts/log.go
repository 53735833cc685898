package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender sends alerts to the logger
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Name implements Named
func (s *LogSender) Name() string { return "log" }

// Send logs the alert
func (s *LogSender) Send(ctx context.Context, payload *BuyPayload) error {
	s.log.WithFields(logrus.Fields{
		"token":           payload.TokenSymbol,
		"buyer":           ShortenAddress(payload.Buyer),
		"amount_usd":      payload.AmountUSD,
		"amount_native":   payload.AmountNative,
		"tokens_received": payload.TokensReceived,
		"price_usd":       payload.PriceUSD,
		"market_cap_usd":  payload.MarketCapUSD,
		"tx_hash":         ShortenHash(payload.TxHash),
	}).Info("Buy alert")
	return nil
}
