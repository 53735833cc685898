package fetch

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy describes how a fetch is retried
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(err error) bool

	// OnRetry is called before each backoff sleep, if set
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy retries HTTP 429/502/503 up to attempts times
func DefaultPolicy(attempts int, base time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   base,
		Retryable:   IsRetryableStatus,
	}
}

// Backoff returns the delay before retry n (0-based): BaseDelay * 2^n
func (p RetryPolicy) Backoff(n int) time.Duration {
	return p.BaseDelay << uint(n)
}

// Do runs op until it succeeds, returns a non-retryable error,
// or MaxAttempts is reached. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryableStatus
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || i == attempts-1 {
			return err
		}

		delay := p.Backoff(i)
		if p.OnRetry != nil {
			p.OnRetry(i+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
