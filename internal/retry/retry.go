// Package retry wraps calls to external AI capabilities in a bounded,
// exponentially backed off retry loop.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/newsreach/contact-discovery/internal/model"
)

// Policy is an explicit retry value for provider calls: bounded attempts,
// exponential backoff, per-attempt timeout. Exhaustion returns a
// *model.AIProviderError carrying the last underlying error.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	CallTimeout    time.Duration
}

// Do runs fn until it succeeds, attempts are exhausted, or ctx is done.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialBackoff
	bo.Multiplier = 2
	bo.MaxInterval = p.MaxBackoff
	bo.RandomizationFactor = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		var (
			callCtx context.Context
			cancel  context.CancelFunc
		)
		if p.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		} else {
			callCtx, cancel = context.WithCancel(ctx)
		}
		out, err := fn(callCtx)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, &model.AIProviderError{Op: op, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(bo.NextBackOff()):
		}
	}
	return zero, &model.AIProviderError{Op: op, Attempts: p.MaxAttempts, Err: lastErr}
}
