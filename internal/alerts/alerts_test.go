package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() *BuyPayload {
	return &BuyPayload{
		TokenName:      "Mega",
		TokenSymbol:    "MEGA",
		QuoteSymbol:    "ETH",
		AmountUSD:      150,
		AmountNative:   0.05,
		TokensReceived: 1000000,
		PriceUSD:       0.00005,
		MarketCapUSD:   2500000,
		Buyer:          "0xabcdef1234567890abcdef1234567890abcdef12",
		TxHash:         "0x" + strings.Repeat("ab", 32),
		BuyerURL:       "https://explorer.example/address/0xabcdef1234567890abcdef1234567890abcdef12",
		TxURL:          "https://explorer.example/tx/0xabab",
		ChartURL:       "https://dexscreener.com/megaeth/0xtoken",
		Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Environment:    "test",
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n        float64
		decimals int
		want     string
	}{
		{2500000000, 2, "2.50B"},
		{1500000, 2, "1.50M"},
		{1234.5, 2, "1.23K"},
		{10, 2, "10"},
		{12.3456, 2, "12.35"},
		{0.05, 4, "0.05"},
		{0, 2, "0"},
		{999.996, 2, "1,000"},
		{999.5, 0, "1,000"},
		{999.99, 2, "999.99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.n, tt.decimals), "%v", tt.n)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{2, "2.00"},
		{0.005, "0.0050"},
		{0.00005, "0.000050"},
		{0.0000005, "0.00000050"},
		{0.00000005, "0.0000000500"},
		{0.000000005, "0.000000005000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.p), "%v", tt.p)
	}
}

func TestEmojiCount(t *testing.T) {
	s := Style{Emoji: "🟢", EmojiValueUSD: 10, MaxEmojis: 30}
	assert.Equal(t, 1, s.EmojiCount(5))
	assert.Equal(t, 1, s.EmojiCount(10))
	assert.Equal(t, 15, s.EmojiCount(150))
	assert.Equal(t, 30, s.EmojiCount(100000))
	assert.Equal(t, strings.Repeat("🟢", 15), s.EmojiBar(150))

	// zero style falls back to defaults
	assert.Equal(t, 15, Style{}.EmojiCount(150))
}

func TestHTMLMessage(t *testing.T) {
	msg := HTMLMessage(samplePayload(), DefaultStyle)

	assert.True(t, strings.HasPrefix(msg, "<b>Mega Buy!</b>\n"+strings.Repeat("🟢", 15)+"\n"))
	assert.Contains(t, msg, "💰 Spent $150 (0.05 ETH)")
	assert.Contains(t, msg, "🪙 Got 1.00M MEGA")
	assert.Contains(t, msg, "🎯 Position +0%")
	assert.Contains(t, msg, "🏷 Price $0.000050")
	assert.Contains(t, msg, "💸 Market Cap $2.50M")
	assert.Contains(t, msg, `<a href="https://dexscreener.com/megaeth/0xtoken">Buy MEGA</a>`)
	assert.Contains(t, msg, `<a href="https://explorer.example/tx/0xabab">Tx</a>`)
}

func TestHTMLMessageEscapes(t *testing.T) {
	p := samplePayload()
	p.TokenName = "<script>"
	p.BuyerURL = ""

	msg := HTMLMessage(p, DefaultStyle)
	assert.Contains(t, msg, "<b>&lt;script&gt; Buy!</b>")
	assert.Contains(t, msg, "Buyer | ")
}

func TestTelegramSender(t *testing.T) {
	tests := []struct {
		name      string
		chatID    string
		imageURL  string
		imageType string
		wantPath  string
		wantField string
		textField string
	}{
		{"text message", "-100", "", ImagePhoto, "/bot123:abc/sendMessage", "disable_web_page_preview", "text"},
		{"photo caption", "-100", "https://img.example/a.png", ImagePhoto, "/bot123:abc/sendPhoto", "photo", "caption"},
		{"animation caption", "-100", "https://img.example/a.gif", ImageAnimation, "/bot123:abc/sendAnimation", "animation", "caption"},
		{"channel username", "@megabuys", "", ImagePhoto, "/bot123:abc/sendMessage", "disable_web_page_preview", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				require.NoError(t, r.ParseForm())
				got = r.PostForm
				w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-100,"type":"channel"}}}`))
			}))
			defer srv.Close()

			s := NewTelegramSender(srv.URL, "123:abc", tt.chatID, tt.imageURL, tt.imageType, DefaultStyle)
			require.NoError(t, s.Send(context.Background(), samplePayload()))

			assert.Equal(t, tt.chatID, got.Get("chat_id"))
			assert.Equal(t, "HTML", got.Get("parse_mode"))
			assert.NotEmpty(t, got.Get(tt.wantField))
			assert.Contains(t, got.Get(tt.textField), "Mega Buy!")
			if tt.imageURL != "" {
				assert.Equal(t, tt.imageURL, got.Get(tt.wantField))
			}
		})
	}
}

func TestTelegramSenderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	s := NewTelegramSender(srv.URL, "123:abc", "-100", "", "", DefaultStyle)
	err := s.Send(context.Background(), samplePayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.NotContains(t, err.Error(), "123:abc")
}

func TestTelegramSenderHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s := NewTelegramSender(srv.URL, "123:abc", "-100", "", "", DefaultStyle)
	err := s.Send(context.Background(), samplePayload())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "123:abc")
}

func TestTelegramSenderHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewTelegramSender(srv.URL, "123:abc", "-100", "", "", DefaultStyle)
	assert.ErrorIs(t, s.Send(ctx, samplePayload()), context.Canceled)
}

func TestDiscordSender(t *testing.T) {
	var got struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Fields      []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL, DefaultStyle)
	require.NoError(t, s.Send(context.Background(), samplePayload()))

	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Mega Buy!", got.Embeds[0].Title)
	assert.Contains(t, got.Embeds[0].Description, "**$150**")
	assert.Equal(t, "Got", got.Embeds[0].Fields[0].Name)
	assert.Equal(t, "1.00M MEGA", got.Embeds[0].Fields[0].Value)
}

func TestDiscordSenderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL, DefaultStyle).Send(context.Background(), samplePayload())
	assert.EqualError(t, err, "unexpected status 429")
}

type stubSender struct {
	name  string
	err   error
	calls int
}

func (s *stubSender) Send(ctx context.Context, payload *BuyPayload) error {
	s.calls++
	return s.err
}

func (s *stubSender) Name() string { return s.name }

func TestMultiSenderTriesAll(t *testing.T) {
	boom := errors.New("boom")
	a := &stubSender{name: "a", err: boom}
	b := &stubSender{name: "b"}

	err := NewMultiSender(a, b).Send(context.Background(), samplePayload())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.NoError(t, NewMultiSender(b).Send(context.Background(), samplePayload()))
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "telegram", NameOf(&TelegramSender{}))
	assert.Equal(t, "multi", NameOf(NewMultiSender()))
}
