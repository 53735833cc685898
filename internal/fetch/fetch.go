package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liamashdown/buyalert/internal/metrics"
	"github.com/liamashdown/buyalert/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

// maxErrorBody caps how much of an error response is kept in StatusError
const maxErrorBody = 512

// Fetcher issues paced, retried JSON GETs against one upstream API
type Fetcher struct {
	api        string
	httpClient *http.Client
	gate       *ratelimit.Gate
	policy     RetryPolicy
	log        *logrus.Logger
}

// New creates a fetcher. api labels metrics and logs ("dexscreener", "blockscout").
// gate is shared between fetchers so spacing holds across all upstream calls.
func New(api string, httpClient *http.Client, gate *ratelimit.Gate, policy RetryPolicy, log *logrus.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if gate == nil {
		gate = ratelimit.New(0)
	}
	return &Fetcher{
		api:        api,
		httpClient: httpClient,
		gate:       gate,
		policy:     policy,
		log:        log,
	}
}

// Policy returns the fetcher's default retry policy
func (f *Fetcher) Policy() RetryPolicy {
	return f.policy
}

// GetJSON fetches url and decodes the body into out using the default policy
func (f *Fetcher) GetJSON(ctx context.Context, endpoint, url string, out interface{}) error {
	return f.GetJSONWithPolicy(ctx, endpoint, url, out, f.policy)
}

// GetJSONWithPolicy is GetJSON with an explicit retry policy
func (f *Fetcher) GetJSONWithPolicy(ctx context.Context, endpoint, url string, out interface{}, policy RetryPolicy) error {
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			metrics.APIRetries.WithLabelValues(f.api, endpoint).Inc()
			f.log.WithFields(logrus.Fields{
				"api":      f.api,
				"endpoint": endpoint,
				"attempt":  attempt,
				"max":      policy.MaxAttempts,
				"delay_ms": delay.Milliseconds(),
			}).WithError(err).Info("Upstream busy, retrying")
		}
	}

	return policy.Do(ctx, func(ctx context.Context) error {
		return f.getOnce(ctx, endpoint, url, out)
	})
}

func (f *Fetcher) getOnce(ctx context.Context, endpoint, url string, out interface{}) (err error) {
	if err := f.gate.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest(f.api, endpoint, time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
