package dexscreener

import (
	"context"
	"net/url"

	"github.com/liamashdown/buyalert/internal/fetch"
)

// Client handles communication with the DexScreener API
type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
}

// NewClient creates a new DexScreener client
func NewClient(baseURL string, fetcher *fetch.Fetcher) *Client {
	return &Client{
		baseURL: baseURL,
		fetcher: fetcher,
	}
}

// GetPairs fetches every pair that trades the token. No pairs is not an error.
func (c *Client) GetPairs(ctx context.Context, token string) ([]Pair, error) {
	u := c.baseURL + "/latest/dex/tokens/" + url.PathEscape(token)

	var resp TokenPairsResponse
	if err := c.fetcher.GetJSON(ctx, "tokens", u, &resp); err != nil {
		return nil, err
	}

	return resp.Pairs, nil
}

// SelectPair returns the first pair on chainID, falling back to the
// first pair overall. Returns nil when pairs is empty.
func SelectPair(pairs []Pair, chainID string) *Pair {
	if len(pairs) == 0 {
		return nil
	}
	for i := range pairs {
		if pairs[i].ChainID == chainID {
			return &pairs[i]
		}
	}
	return &pairs[0]
}
