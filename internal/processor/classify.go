package processor

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liamashdown/buyalert/internal/blockscout"
)

// Verdict is the outcome of classifying one transfer
type Verdict int

const (
	VerdictNotABuy Verdict = iota
	VerdictBelowThreshold
	VerdictBuy
)

func (v Verdict) String() string {
	switch v {
	case VerdictBuy:
		return "buy"
	case VerdictBelowThreshold:
		return "below_threshold"
	default:
		return "not_buy"
	}
}

// PairContext is the market snapshot for one cycle
type PairContext struct {
	PairAddress  string // canonical lowercase
	PriceUSD     float64
	PriceNative  float64
	MarketCapUSD float64

	TokenName   string
	TokenSymbol string
	QuoteSymbol string
}

// Trade is a transfer accepted as a buy
type Trade struct {
	TxHash         string
	Buyer          string
	AmountUSD      float64
	AmountNative   float64
	TokensReceived float64
	Position       float64 // always 0, filled by enrichment if ever added
}

// CanonicalAddress lowercases an address. Hex addresses are first
// normalized to their 20-byte 0x form.
func CanonicalAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if common.IsHexAddress(addr) {
		return strings.ToLower(common.HexToAddress(addr).Hex())
	}
	return strings.ToLower(addr)
}

// ResolveDecimals picks the transfer total's decimals, then the token's,
// then DefaultDecimals
func ResolveDecimals(t *blockscout.Transfer) int {
	if d, ok := t.Total.Decimals.Int(); ok {
		return d
	}
	if d, ok := t.Token.Decimals.Int(); ok {
		return d
	}
	return DefaultDecimals
}

// Classify decides whether t is a buy from the pair. A transfer is a buy
// when it leaves the pair for any other address and is worth at least minUSD.
// Transfers without a transaction id are never buys.
func Classify(t *blockscout.Transfer, pair PairContext, minUSD float64) (Trade, Verdict) {
	txHash := t.ID()
	if txHash == "" {
		return Trade{}, VerdictNotABuy
	}

	pairAddr := CanonicalAddress(pair.PairAddress)
	from := CanonicalAddress(t.From.Hash)
	to := CanonicalAddress(t.To.Hash)

	if pairAddr == "" || from != pairAddr || to == pairAddr {
		return Trade{}, VerdictNotABuy
	}

	// unusable amounts count as zero tokens
	tokens, err := NormalizeAmount(string(t.Total.Value), ResolveDecimals(t))
	if err != nil {
		tokens = 0
	}

	amountUSD := tokens * pair.PriceUSD
	if amountUSD < minUSD {
		return Trade{TxHash: txHash, Buyer: to, AmountUSD: amountUSD, TokensReceived: tokens}, VerdictBelowThreshold
	}

	priceNative := pair.PriceNative
	if priceNative <= 0 {
		priceNative = 1
	}

	return Trade{
		TxHash:         txHash,
		Buyer:          to,
		AmountUSD:      amountUSD,
		AmountNative:   amountUSD / priceNative,
		TokensReceived: tokens,
		Position:       0,
	}, VerdictBuy
}
