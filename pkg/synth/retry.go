package synth

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds re-attempts against a throttling provider.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// NewRetryPolicy builds a policy with sane floors.
func NewRetryPolicy(maxRetries int, backoff time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return RetryPolicy{MaxRetries: maxRetries, Backoff: backoff}
}

// RetryGateway wraps a Gateway and re-attempts rate-limited requests
// with linear backoff. Other failures pass through untouched: a bad
// request does not become less bad by repeating it.
type RetryGateway struct {
	inner  Gateway
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry decorates a gateway with the given policy.
func WithRetry(inner Gateway, policy RetryPolicy) *RetryGateway {
	return &RetryGateway{inner: inner, policy: policy, sleep: sleepCtx}
}

func (g *RetryGateway) Name() string { return g.inner.Name() }

func (g *RetryGateway) Speak(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := g.inner.Speak(ctx, req)
		if err == nil {
			return result, nil
		}
		var rle RateLimitError
		if !errors.As(err, &rle) {
			return Result{}, err
		}
		lastErr = err
		if attempt >= g.policy.MaxRetries {
			return Result{}, lastErr
		}
		if err := g.sleep(ctx, g.policy.Backoff*time.Duration(attempt+1)); err != nil {
			return Result{}, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Gateway = (*RetryGateway)(nil)
