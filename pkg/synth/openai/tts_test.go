package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lessoncast/lessoncast/pkg/synth"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL}), srv
}

func TestSpeakSendsSpeechRequest(t *testing.T) {
	var got map[string]any
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte("mp3bytes"))
	})
	defer srv.Close()

	result, err := c.Speak(context.Background(), synth.Request{Text: "hello", Voice: "alloy", Format: "mp3"})
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if string(result.Audio) != "mp3bytes" || result.Format != "mp3" {
		t.Fatalf("unexpected result %+v", result)
	}
	if got["input"] != "hello" || got["voice"] != "alloy" || got["model"] != "tts-1" {
		t.Fatalf("unexpected payload %v", got)
	}
	if got["response_format"] != "mp3" {
		t.Fatalf("unexpected response_format %v", got["response_format"])
	}
}

func TestSpeakMapsThrottlingToRateLimitError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	defer srv.Close()

	_, err := c.Speak(context.Background(), synth.Request{Text: "hello", Voice: "alloy"})
	var rle synth.RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if rle.Provider != "openai" {
		t.Fatalf("unexpected provider %q", rle.Provider)
	}
}

func TestSpeakSurfacesAPIErrors(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid voice"}`, http.StatusBadRequest)
	})
	defer srv.Close()

	if _, err := c.Speak(context.Background(), synth.Request{Text: "hello", Voice: "nope"}); err == nil {
		t.Fatalf("expected error for 400 response")
	}
}

func TestSpeakRequiresAPIKey(t *testing.T) {
	c := New(Config{})
	if _, err := c.Speak(context.Background(), synth.Request{Text: "hello"}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
