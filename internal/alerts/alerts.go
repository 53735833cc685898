package alerts

import (
	"context"
	"time"
)

// BuyPayload contains all information for one buy alert
type BuyPayload struct {
	TokenName   string
	TokenSymbol string
	QuoteSymbol string

	AmountUSD      float64
	AmountNative   float64
	TokensReceived float64
	Position       float64 // percent change of the buyer's position

	PriceUSD     float64
	MarketCapUSD float64

	Buyer    string
	TxHash   string
	BuyerURL string
	TxURL    string
	ChartURL string

	Timestamp   time.Time
	Environment string
}

// Sender defines the interface for alert senders
type Sender interface {
	Send(ctx context.Context, payload *BuyPayload) error
}

// Named is implemented by senders that report a metrics label
type Named interface {
	Name() string
}

// NameOf returns the sender's label, or "custom"
func NameOf(s Sender) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "custom"
}
