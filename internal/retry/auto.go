package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/runger/ghexplorer/internal/failure"
)

// Defaults for the automatic variant.
const (
	DefaultAutoRetries = 2
	DefaultAutoDelay   = time.Second
)

// Auto configures Do.
type Auto struct {
	// Retries is the number of extra attempts after the first one.
	Retries int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// OnRetry is called before each pause with the failure that caused it.
	OnRetry func(err error, next time.Duration)
}

// DefaultAuto returns the background-fetch settings.
func DefaultAuto() Auto {
	return Auto{Retries: DefaultAutoRetries, Delay: DefaultAutoDelay}
}

// Do calls fn until it succeeds, fails with a non-retryable error, ctx is
// cancelled, or the retries run out. The last failure is returned. Aborted
// outcomes are never retried.
func Do[T any](ctx context.Context, a Auto, fn func(context.Context) (T, error)) (T, error) {
	retries := a.Retries
	if retries < 0 {
		retries = 0
	}
	var b backoff.BackOff = backoff.NewConstantBackOff(a.Delay)
	b = backoff.WithMaxRetries(b, uint64(retries))
	b = backoff.WithContext(b, ctx)

	op := func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !failure.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	v, err := backoff.RetryNotifyWithData(op, b, a.OnRetry)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Cancelled while waiting between attempts.
		return v, context.Cause(ctx)
	}
	return v, err
}
