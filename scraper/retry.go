package scraper

import (
	"context"
	"time"

	"github.com/aluiziolira/go-scrape-products/config"
)

// retryPolicy retries a blocking call in place. Workers fetch sequentially,
// so a retry simply waits out the backoff before the next attempt.
type retryPolicy struct {
	maxRetries int
	base       time.Duration
	max        time.Duration
}

func newRetryPolicy(cfg *config.Config) retryPolicy {
	return retryPolicy{
		maxRetries: cfg.PageRetries,
		base:       cfg.RetryBackoff,
		max:        cfg.RetryBackoffMax,
	}
}

// do runs fn until it succeeds or maxRetries retries were spent. It returns
// the number of attempts made and the last error. onRetry runs before each
// retry.
func (rp retryPolicy) do(ctx context.Context, fn func() error, onRetry func(attempt int, err error)) (int, error) {
	attempt := 0
	for {
		attempt++
		err := fn()
		if err == nil {
			return attempt, nil
		}
		if attempt > rp.maxRetries || ctx.Err() != nil {
			return attempt, err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		if werr := sleepContext(ctx, rp.backoff(attempt)); werr != nil {
			return attempt, err
		}
	}
}

func (rp retryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rp.base
	if base <= 0 {
		return 0
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := rp.max; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
