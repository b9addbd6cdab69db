package downloader

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	boterrors "github.com/komuzik/media-bot/internal/domain/bot/errors"
)

// Retrier wraps a single extraction attempt with bounded retries and
// pure exponential backoff: sleep n after attempt n is base^n seconds.
// Only transient failures are retried; everything else stops the loop.
type Retrier struct {
	attempts int
	base     float64
	timer    backoff.Timer
}

// NewRetrier creates a retrier for the given per-platform settings
func NewRetrier(attempts int, base float64) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrier{attempts: attempts, base: base}
}

// WithTimer replaces the sleep timer, used by tests to observe
// backoff durations without sleeping
func (r *Retrier) WithTimer(timer backoff.Timer) *Retrier {
	r.timer = timer
	return r
}

// Do runs op until it succeeds, fails terminally, exhausts attempts,
// or ctx is done
func (r *Retrier) Do(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if boterrors.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = time.Second
	eb.Multiplier = r.base
	eb.RandomizationFactor = 0
	eb.MaxInterval = 24 * time.Hour
	eb.MaxElapsedTime = 0
	eb.Reset()

	var policy backoff.BackOff = backoff.WithMaxRetries(eb, uint64(r.attempts-1))
	policy = backoff.WithContext(policy, ctx)

	return backoff.RetryNotifyWithTimer(wrapped, policy, nil, r.timer)
}
