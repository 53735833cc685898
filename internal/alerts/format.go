package alerts

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// Style controls the emoji bar that scales with the buy size
type Style struct {
	Emoji         string
	EmojiValueUSD float64 // USD per emoji
	MaxEmojis     int
}

// DefaultStyle is one green dot per $10, at most 30
var DefaultStyle = Style{Emoji: "🟢", EmojiValueUSD: 10, MaxEmojis: 30}

func (s Style) withDefaults() Style {
	if s.Emoji == "" {
		s.Emoji = DefaultStyle.Emoji
	}
	if s.EmojiValueUSD <= 0 {
		s.EmojiValueUSD = DefaultStyle.EmojiValueUSD
	}
	if s.MaxEmojis <= 0 {
		s.MaxEmojis = DefaultStyle.MaxEmojis
	}
	return s
}

// EmojiCount returns floor(usd/value) clamped to [1, max]
func (s Style) EmojiCount(usd float64) int {
	s = s.withDefaults()
	n := int(math.Floor(usd / s.EmojiValueUSD))
	if n < 1 {
		n = 1
	}
	if n > s.MaxEmojis {
		n = s.MaxEmojis
	}
	return n
}

// EmojiBar repeats the emoji EmojiCount times
func (s Style) EmojiBar(usd float64) string {
	s = s.withDefaults()
	return strings.Repeat(s.Emoji, s.EmojiCount(usd))
}

// FormatNumber abbreviates with B/M/K suffixes above a thousand.
// Smaller values are grouped and keep at most decimals fraction digits,
// trailing zeros trimmed.
func FormatNumber(n float64, decimals int) string {
	switch abs := math.Abs(n); {
	case abs >= 1e9:
		return strconv.FormatFloat(n/1e9, 'f', decimals, 64) + "B"
	case abs >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', decimals, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', decimals, 64) + "K"
	}

	s := numberPrinter.Sprintf(fmt.Sprintf("%%.%df", decimals), n)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// FormatPrice picks enough fraction digits to show a meaningful price
func FormatPrice(p float64) string {
	var digits int
	switch {
	case p < 0.00000001:
		digits = 12
	case p < 0.0000001:
		digits = 10
	case p < 0.000001:
		digits = 8
	case p < 0.0001:
		digits = 6
	case p < 0.01:
		digits = 4
	default:
		digits = 2
	}
	return strconv.FormatFloat(p, 'f', digits, 64)
}

// FormatUSD formats a dollar amount
func FormatUSD(n float64) string {
	return "$" + FormatNumber(n, 2)
}

// ShortenAddress turns 0x1234...abcd style addresses into a short form
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// ShortenHash shortens a transaction hash for display
func ShortenHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-8:]
}

// Title returns "<name> Buy!"
func Title(p *BuyPayload) string {
	return p.TokenName + " Buy!"
}

// HTMLMessage renders the Telegram HTML message for a buy
func HTMLMessage(p *BuyPayload, style Style) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(Title(p)))
	b.WriteString(style.EmojiBar(p.AmountUSD))
	b.WriteString("\n")
	fmt.Fprintf(&b, "💰 Spent %s (%s %s)\n", FormatUSD(p.AmountUSD), FormatNumber(p.AmountNative, 4), html.EscapeString(p.QuoteSymbol))
	fmt.Fprintf(&b, "🪙 Got %s %s\n", FormatNumber(p.TokensReceived, 2), html.EscapeString(p.TokenSymbol))
	fmt.Fprintf(&b, "🎯 Position +%s%%\n", FormatNumber(p.Position, 2))
	fmt.Fprintf(&b, "🏷 Price $%s\n", FormatPrice(p.PriceUSD))
	fmt.Fprintf(&b, "💸 Market Cap %s\n\n", FormatUSD(p.MarketCapUSD))

	links := []string{
		htmlLink(p.BuyerURL, "Buyer"),
		htmlLink(p.TxURL, "Tx"),
		htmlLink(p.ChartURL, "Dexs"),
		htmlLink(p.ChartURL, "Buy "+p.TokenSymbol),
	}
	b.WriteString(strings.Join(links, " | "))

	return b.String()
}

func htmlLink(href, text string) string {
	if href == "" {
		return html.EscapeString(text)
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(text))
}

func markdownLink(href, text string) string {
	if href == "" {
		return text
	}
	return fmt.Sprintf("[%s](%s)", text, href)
}
