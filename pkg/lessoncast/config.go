package lessoncast

import (
	"fmt"

	"github.com/spf13/viper"
)

// VendorConfig selects a provider plus its free-form settings.
type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
}

// AudioConfig holds synthesis output settings.
type AudioConfig struct {
	Format               string `mapstructure:"format"`
	PresignURLs          bool   `mapstructure:"presign_urls"`
	PresignExpiryMinutes int    `mapstructure:"presign_expiry_minutes"`
}

// ObservabilityConfig holds metrics output settings.
type ObservabilityConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
}

// Config is the whole service configuration.
type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	LogFormat     string              `mapstructure:"log_format"`
	LogRedactPII  bool                `mapstructure:"log_redact_pii"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Audio         AudioConfig         `mapstructure:"audio"`
	TTS           VendorConfig        `mapstructure:"tts"`
	Storage       VendorConfig        `mapstructure:"storage"`
	Notifications VendorConfig        `mapstructure:"notifications"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// LoadConfig reads configuration from the given file path.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_redact_pii", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.base_path", "")
	v.SetDefault("audio.format", "mp3")
	v.SetDefault("audio.presign_urls", false)
	v.SetDefault("audio.presign_expiry_minutes", 60)
	v.SetDefault("tts.provider", "openai")
	v.SetDefault("storage.provider", "fs")
	v.SetDefault("notifications.provider", "")
	v.SetDefault("observability.metrics_path", "")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	return cfg, nil
}
