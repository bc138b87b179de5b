package synth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// throttledGateway rate-limits the first N calls.
type throttledGateway struct {
	remaining int
	calls     int
}

func (g *throttledGateway) Name() string { return "throttled" }

func (g *throttledGateway) Speak(ctx context.Context, req Request) (Result, error) {
	g.calls++
	if g.remaining > 0 {
		g.remaining--
		return Result{}, RateLimitError{Provider: "throttled", Message: "slow down"}
	}
	return Result{Audio: []byte("ok"), Format: req.Format}, nil
}

func noSleep(slept *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestRetryRecoversFromRateLimit(t *testing.T) {
	inner := &throttledGateway{remaining: 2}
	g := WithRetry(inner, NewRetryPolicy(2, 100*time.Millisecond))
	var slept []time.Duration
	g.sleep = noSleep(&slept)

	result, err := g.Speak(context.Background(), Request{Text: "hi", Format: "mp3"})
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if string(result.Audio) != "ok" {
		t.Fatalf("unexpected result %+v", result)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
	// Linear backoff grows per attempt.
	if len(slept) != 2 || slept[0] != 100*time.Millisecond || slept[1] != 200*time.Millisecond {
		t.Fatalf("unexpected backoff sequence %v", slept)
	}
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	inner := &throttledGateway{remaining: 10}
	g := WithRetry(inner, NewRetryPolicy(2, time.Millisecond))
	var slept []time.Duration
	g.sleep = noSleep(&slept)

	_, err := g.Speak(context.Background(), Request{Text: "hi"})
	var rle RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected initial attempt plus 2 retries, got %d", inner.calls)
	}
}

func TestRetryDoesNotRepeatHardFailures(t *testing.T) {
	inner := &failingGateway{}
	g := WithRetry(inner, NewRetryPolicy(3, time.Millisecond))
	if _, err := g.Speak(context.Background(), Request{Text: "hi"}); err == nil {
		t.Fatalf("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("non-throttle failure retried %d times", inner.calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	inner := &throttledGateway{remaining: 10}
	g := WithRetry(inner, NewRetryPolicy(5, time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Speak(ctx, Request{Text: "hi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

type failingGateway struct {
	calls int
}

func (g *failingGateway) Name() string { return "failing" }

func (g *failingGateway) Speak(context.Context, Request) (Result, error) {
	g.calls++
	return Result{}, errors.New("invalid voice")
}
