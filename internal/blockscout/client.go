package blockscout

import (
	"context"
	"fmt"
	"net/url"

	"github.com/liamashdown/buyalert/internal/fetch"
)

// TokenTransferType filters the feed to fungible token transfers
const TokenTransferType = "ERC-20"

// Client handles communication with a Blockscout explorer
type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
}

// NewClient creates a new Blockscout client
func NewClient(baseURL string, fetcher *fetch.Fetcher) *Client {
	return &Client{
		baseURL: baseURL,
		fetcher: fetcher,
	}
}

// GetTransfers fetches the most recent transfers of a token
func (c *Client) GetTransfers(ctx context.Context, token string) ([]Transfer, error) {
	return c.getTransfers(ctx, token, c.fetcher.Policy())
}

// GetTransfersWithPolicy is GetTransfers with an explicit retry policy
func (c *Client) GetTransfersWithPolicy(ctx context.Context, token string, policy fetch.RetryPolicy) ([]Transfer, error) {
	return c.getTransfers(ctx, token, policy)
}

func (c *Client) getTransfers(ctx context.Context, token string, policy fetch.RetryPolicy) ([]Transfer, error) {
	u, err := url.Parse(c.baseURL + "/api/v2/tokens/" + url.PathEscape(token) + "/transfers")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	q.Set("type", TokenTransferType)
	u.RawQuery = q.Encode()

	var resp TransfersResponse
	if err := c.fetcher.GetJSONWithPolicy(ctx, "transfers", u.String(), &resp, policy); err != nil {
		return nil, err
	}

	return resp.Items, nil
}
