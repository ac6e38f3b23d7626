package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/dkeye/steward/internal/clock"
)

// RetryPolicy bounds retries of an operation that may fail transiently.
// Waits start at BaseDelay and grow by Multiplier after every failed
// attempt, without jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = time.Duration(math.MaxInt64)
	}
	return p
}

func (p RetryPolicy) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	b.Reset()
	return b
}

// Do runs op until it succeeds, returns a non-transient error, or the
// attempt budget is spent. Non-transient errors are returned unchanged;
// running out of attempts yields an error wrapping both
// ErrRetriesExhausted and the last failure. onRetry, if set, is called
// before each wait.
func (p RetryPolicy) Do(
	ctx context.Context,
	clk clock.Clock,
	op func(ctx context.Context) error,
	onRetry func(attempt int, wait time.Duration, err error),
) error {
	p = p.normalized()
	schedule := p.schedule()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}

		wait := schedule.NextBackOff()
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(wait):
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.MaxAttempts, lastErr)
}
