package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lessoncast/lessoncast/pkg/logging"
	"github.com/lessoncast/lessoncast/pkg/synth"
)

// Config holds OpenAI speech API settings.
type Config struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// Client calls the OpenAI speech endpoint and returns raw audio bytes.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates an OpenAI synthesis client.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logging.NewComponentLogger(slog.Default(), "openai_tts"),
	}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Speak(ctx context.Context, req synth.Request) (synth.Result, error) {
	if c.cfg.APIKey == "" {
		return synth.Result{}, errors.New("missing openai api key")
	}
	format := req.Format
	if format == "" {
		format = "mp3"
	}
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	payload, err := json.Marshal(map[string]any{
		"model":           model,
		"input":           req.Text,
		"voice":           req.Voice,
		"response_format": format,
	})
	if err != nil {
		return synth.Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return synth.Result{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return synth.Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(resp.Body)
		return synth.Result{}, synth.RateLimitError{Provider: "openai", Message: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return synth.Result{}, errors.New(string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return synth.Result{}, err
	}

	c.logger.Debug("speech synthesized",
		slog.String("voice", req.Voice),
		slog.String("format", format),
		slog.Int("text_chars", len(req.Text)),
		slog.Int("size_bytes", len(audio)),
		slog.Duration("elapsed", time.Since(start)))

	return synth.Result{Audio: audio, Format: format}, nil
}

var _ synth.Gateway = (*Client)(nil)
