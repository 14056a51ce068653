package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions controls how Atomic retries conflicting transactions.
type RetryOptions struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryOptions returns the retry policy used when none is configured.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries: 3,
		Backoff:    20 * time.Millisecond,
	}
}

func (o RetryOptions) policy(ctx context.Context) backoff.BackOffContext {
	initial := o.Backoff
	if initial <= 0 {
		initial = DefaultRetryOptions().Backoff
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	b.MaxElapsedTime = 0

	retries := o.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// withRetry runs attempt until it succeeds, fails with a non-conflict error
// or the retry budget is spent.
func withRetry(ctx context.Context, opts RetryOptions, attempt func() error) error {
	err := backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := attempt()
		if err != nil && !errors.Is(err, ErrConflict) {
			return backoff.Permanent(err)
		}
		return err
	}, opts.policy(ctx))

	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, err)
	}
	return err
}
