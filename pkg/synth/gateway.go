package synth

import (
	"context"
	"fmt"
)

// Request is one synthesis call: text plus delivery parameters.
type Request struct {
	Text   string
	Voice  string
	Format string
	Model  string
}

// Result carries the synthesized audio. DurationSeconds is zero when
// the provider does not report it; callers estimate from byte length.
type Result struct {
	Audio           []byte
	Format          string
	DurationSeconds int
}

// Gateway defines the contract for any TTS vendor implementation.
// Providers have unpredictable latency and failure modes; callers own
// retry policy.
type Gateway interface {
	// Name returns the provider name for logging/metrics.
	Name() string
	// Speak converts text to audio bytes, or fails.
	Speak(ctx context.Context, req Request) (Result, error)
}

// RateLimitError indicates the provider rejected the request for
// exceeding its rate limits.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit: %s", e.Provider, e.Message)
}
