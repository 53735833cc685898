package dexscreener

// Pair represents a DexScreener trading pair
type Pair struct {
	ChainID     string  `json:"chainId"`
	DexID       string  `json:"dexId"`
	URL         string  `json:"url"`
	PairAddress string  `json:"pairAddress"`
	BaseToken   Token   `json:"baseToken"`
	QuoteToken  Token   `json:"quoteToken"`
	PriceNative string  `json:"priceNative"`
	PriceUSD    string  `json:"priceUsd"`
	FDV         float64 `json:"fdv"`
	MarketCap   float64 `json:"marketCap"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

// Token is the base or quote side of a pair
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TokenPairsResponse wraps the /latest/dex/tokens response
type TokenPairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}
