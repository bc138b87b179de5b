package mock

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lessoncast/lessoncast/pkg/synth"
)

// Gateway is a deterministic in-memory synthesis provider for tests.
// It emits BytesPerChar silent bytes per input character and fails any
// request whose text contains a configured marker.
type Gateway struct {
	mu           sync.Mutex
	calls        []synth.Request
	failMarkers  []string
	BytesPerChar int
	Format       string
}

// New creates a mock gateway with mp3 output.
func New() *Gateway {
	return &Gateway{BytesPerChar: 160, Format: "mp3"}
}

func (g *Gateway) Name() string { return "mock" }

// FailOn makes any request whose text contains marker return an error.
func (g *Gateway) FailOn(marker string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failMarkers = append(g.failMarkers, marker)
}

// Calls returns a copy of every request seen so far.
func (g *Gateway) Calls() []synth.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]synth.Request, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *Gateway) Speak(ctx context.Context, req synth.Request) (synth.Result, error) {
	if err := ctx.Err(); err != nil {
		return synth.Result{}, err
	}
	g.mu.Lock()
	g.calls = append(g.calls, req)
	markers := make([]string, len(g.failMarkers))
	copy(markers, g.failMarkers)
	g.mu.Unlock()

	for _, marker := range markers {
		if marker != "" && strings.Contains(req.Text, marker) {
			return synth.Result{}, errors.New("synthesis rejected: " + marker)
		}
	}
	format := req.Format
	if format == "" {
		format = g.Format
	}
	size := len(req.Text) * g.BytesPerChar
	if size == 0 {
		size = g.BytesPerChar
	}
	return synth.Result{Audio: make([]byte, size), Format: format}, nil
}

var _ synth.Gateway = (*Gateway)(nil)
