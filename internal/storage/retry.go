package storage

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// do runs op until it succeeds, returns a non-retryable error, attempts run
// out or ctx is done. The last error is returned unchanged.
func (p RetryPolicy) do(ctx context.Context, log *zap.Logger, name string, retryable func(error) bool, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) || ctx.Err() != nil {
			return err
		}

		delay := p.backoff(attempt)
		log.Warn("transient backend error, retrying",
			zap.String("op", name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	// Up to 20% jitter.
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d + jitter
}
