package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DiscordSender sends alerts to Discord via webhook
type DiscordSender struct {
	webhookURL string
	style      Style
	httpClient *http.Client
}

// NewDiscordSender creates a new Discord sender
func NewDiscordSender(webhookURL string, style Style) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		style:      style,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Named
func (s *DiscordSender) Name() string { return "discord" }

// Send sends the alert to Discord
func (s *DiscordSender) Send(ctx context.Context, payload *BuyPayload) error {
	embed := s.buildEmbed(payload)

	webhookPayload := map[string]interface{}{
		"embeds": []interface{}{embed},
	}

	body, err := json.Marshal(webhookPayload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (s *DiscordSender) buildEmbed(payload *BuyPayload) map[string]interface{} {
	description := fmt.Sprintf("%s\n**%s** (%s %s)",
		s.style.EmojiBar(payload.AmountUSD),
		FormatUSD(payload.AmountUSD),
		FormatNumber(payload.AmountNative, 4),
		payload.QuoteSymbol,
	)

	fields := []map[string]interface{}{
		{
			"name":   "Got",
			"value":  fmt.Sprintf("%s %s", FormatNumber(payload.TokensReceived, 2), payload.TokenSymbol),
			"inline": true,
		},
		{
			"name":   "Position",
			"value":  fmt.Sprintf("+%s%%", FormatNumber(payload.Position, 2)),
			"inline": true,
		},
		{
			"name":   "Price",
			"value":  "$" + FormatPrice(payload.PriceUSD),
			"inline": true,
		},
		{
			"name":   "Market Cap",
			"value":  FormatUSD(payload.MarketCapUSD),
			"inline": true,
		},
		{
			"name":   "Buyer",
			"value":  markdownLink(payload.BuyerURL, fmt.Sprintf("`%s`", ShortenAddress(payload.Buyer))),
			"inline": true,
		},
		{
			"name":   "Tx",
			"value":  markdownLink(payload.TxURL, fmt.Sprintf("`%s`", ShortenHash(payload.TxHash))),
			"inline": true,
		},
	}

	links := strings.Join([]string{
		markdownLink(payload.ChartURL, "Dexs"),
		markdownLink(payload.ChartURL, "Buy "+payload.TokenSymbol),
	}, " | ")
	fields = append(fields, map[string]interface{}{
		"name":   "Links",
		"value":  links,
		"inline": false,
	})

	footer := map[string]interface{}{
		"text": fmt.Sprintf("Buy Alert • %s • %s", payload.Environment, payload.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
	}

	return map[string]interface{}{
		"title":       Title(payload),
		"url":         payload.ChartURL,
		"description": description,
		"color":       0x00C853, // Green
		"fields":      fields,
		"footer":      footer,
		"timestamp":   payload.Timestamp.Format(time.RFC3339),
	}
}
