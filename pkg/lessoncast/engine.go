package lessoncast

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/lessoncast/lessoncast/pkg/blob"
	"github.com/lessoncast/lessoncast/pkg/configutil"
	"github.com/lessoncast/lessoncast/pkg/generate"
	"github.com/lessoncast/lessoncast/pkg/httpapi"
	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/logging"
	"github.com/lessoncast/lessoncast/pkg/manifest"
	"github.com/lessoncast/lessoncast/pkg/metrics"
	"github.com/lessoncast/lessoncast/pkg/notify"
	"github.com/lessoncast/lessoncast/pkg/playlist"
	"github.com/lessoncast/lessoncast/pkg/redact"
	"github.com/lessoncast/lessoncast/pkg/synth"
	"github.com/lessoncast/lessoncast/pkg/synth/mock"
	"github.com/lessoncast/lessoncast/pkg/synth/openai"
)

// Engine assembles the pipeline from configuration and owns the HTTP
// server's lifecycle.
type Engine struct {
	cfg      Config
	server   *http.Server
	blobs    blob.Store
	obs      metrics.Observer
	asyncObs *metrics.AsyncObserver
	metrics  *os.File
	logger   *slog.Logger
}

// NewEngine wires providers, stores and the HTTP API.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	logging.SetDefault(cfg.LogLevel, cfg.LogFormat)
	redact.SetEnabled(cfg.LogRedactPII)
	logger := logging.NewComponentLogger(slog.Default(), "engine")

	blobs, err := buildStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	gateway, err := buildGateway(cfg.TTS)
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}
	notifier, err := buildNotifier(cfg.Notifications)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}

	e := &Engine{cfg: cfg, blobs: blobs, obs: metrics.NoopObserver{}, logger: logger}
	if cfg.Observability.MetricsPath != "" {
		f, err := os.OpenFile(cfg.Observability.MetricsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		e.metrics = f
		e.asyncObs = metrics.NewAsyncObserver(metrics.NewJSONLObserver(f), 512)
		e.obs = e.asyncObs
	}

	manifests := manifest.NewStore(blobs)
	progress := httpapi.NewProgressHub()
	orch := generate.New(gateway, blobs, manifests,
		generate.WithFormat(cfg.Audio.Format),
		generate.WithObserver(e.obs),
		generate.WithListener(progress),
	)

	var resolver playlist.URLResolver = playlist.PathResolver{BasePath: cfg.HTTP.BasePath}
	if cfg.Audio.PresignURLs {
		resolver = playlist.PresignResolver{
			Store:    blobs,
			Expiry:   time.Duration(cfg.Audio.PresignExpiryMinutes) * time.Minute,
			Fallback: playlist.PathResolver{BasePath: cfg.HTTP.BasePath},
		}
	}

	api := httpapi.NewServer(httpapi.Options{
		Lessons:      lesson.NewBlobSource(blobs),
		Orchestrator: orch,
		Manifests:    manifests,
		Assembler:    playlist.NewAssembler(resolver),
		Blobs:        blobs,
		Notifier:     notifier,
		Progress:     progress,
		Observer:     e.obs,
	})
	e.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("engine initialized",
		slog.String("environment", cfg.Environment),
		slog.String("tts_provider", cfg.TTS.Provider),
		slog.String("storage_provider", cfg.Storage.Provider),
		slog.String("addr", cfg.HTTP.Addr))
	return e, nil
}

// Serve runs the HTTP listener until Drain is called.
func (e *Engine) Serve() error {
	err := e.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Drain shuts the HTTP server down gracefully and flushes metrics.
func (e *Engine) Drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := e.server.Shutdown(ctx)
	if e.asyncObs != nil {
		e.asyncObs.Close()
	}
	if e.metrics != nil {
		_ = e.metrics.Close()
	}
	return err
}

func buildStorage(ctx context.Context, cfg VendorConfig) (blob.Store, error) {
	switch cfg.Provider {
	case "minio":
		if err := configutil.ValidateSettings(cfg.Settings, configutil.Schema{
			Required: []string{"endpoint", "access_key", "secret_key"},
			Optional: []string{"bucket", "secure"},
		}); err != nil {
			return nil, err
		}
		var mc blob.MinioConfig
		if err := configutil.DecodeSettings(cfg.Settings, &mc); err != nil {
			return nil, err
		}
		return blob.NewMinioStore(ctx, mc)
	case "fs", "":
		var fc struct {
			Dir string `mapstructure:"dir"`
		}
		if err := configutil.DecodeSettings(cfg.Settings, &fc); err != nil {
			return nil, err
		}
		if fc.Dir == "" {
			fc.Dir = "lesson_audio"
		}
		return blob.NewFSStore(afero.NewOsFs(), fc.Dir), nil
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

func buildGateway(cfg VendorConfig) (synth.Gateway, error) {
	switch cfg.Provider {
	case "openai", "":
		if err := configutil.ValidateSettings(cfg.Settings, configutil.Schema{
			Required: []string{"api_key"},
			Optional: []string{"model", "base_url", "max_retries", "retry_backoff_ms"},
		}); err != nil {
			return nil, err
		}
		var oc openai.Config
		if err := configutil.DecodeSettings(cfg.Settings, &oc); err != nil {
			return nil, err
		}
		var rc struct {
			MaxRetries     int `mapstructure:"max_retries"`
			RetryBackoffMS int `mapstructure:"retry_backoff_ms"`
		}
		if err := configutil.DecodeSettings(cfg.Settings, &rc); err != nil {
			return nil, err
		}
		policy := synth.NewRetryPolicy(rc.MaxRetries, time.Duration(rc.RetryBackoffMS)*time.Millisecond)
		return synth.WithRetry(openai.New(oc), policy), nil
	case "mock":
		return mock.New(), nil
	}
	return nil, fmt.Errorf("unknown tts provider %q", cfg.Provider)
}

func buildNotifier(cfg VendorConfig) (notify.Notifier, error) {
	switch cfg.Provider {
	case "":
		return notify.Noop{}, nil
	case "twilio":
		if err := configutil.ValidateSettings(cfg.Settings, configutil.Schema{
			Required: []string{"account_sid", "auth_token", "from", "to"},
		}); err != nil {
			return nil, err
		}
		var tc notify.TwilioConfig
		if err := configutil.DecodeSettings(cfg.Settings, &tc); err != nil {
			return nil, err
		}
		return notify.NewTwilioSMS(tc), nil
	}
	return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
}
