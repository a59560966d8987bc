package retry

import (
	"context"
	"errors"
)

// Policy describes how often a single fallible operation may be re-attempted.
// Re-attempts happen immediately; there is no backoff or jitter.
type Policy struct {
	// MaxRetries is the amount of additional attempts after the first one; values < 0 are treated as 0
	MaxRetries int

	// Retryable decides whether an error is worth another attempt.
	// If nil, every error except a context cancellation or deadline is retried.
	Retryable func(err error) bool

	// OnRetry is called before every re-attempt with the number of the failed attempt (starting at 1)
	OnRetry func(attempt int, err error)
}

// None returns a policy that never retries
func None() Policy {
	return Policy{}
}

// Times returns a policy that retries up to n times
func Times(n int) Policy {
	return Policy{MaxRetries: n}
}

// Attempts returns the maximum amount of invocations the policy allows
func (policy Policy) Attempts() int {
	if policy.MaxRetries < 0 {
		return 1
	}
	return policy.MaxRetries + 1
}

// Do invokes op until it succeeds, a non-retryable error occurs, ctx is done or the policy is exhausted.
// The last observed error is returned unchanged.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	retryable := policy.Retryable
	if retryable == nil {
		retryable = notContextError
	}

	var zero T
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		if attempt >= policy.Attempts() || ctx.Err() != nil || !retryable(err) {
			return zero, err
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
	}
}

func notContextError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
