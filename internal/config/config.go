// Package config provides configuration loading for secondbrain.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. Secrets (API keys, signing secrets) are wrapped in the Secret
// type so they cannot leak through logs or serialization.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete secondbrain configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Slack     SlackConfig     `koanf:"slack"`
	Notion    NotionConfig    `koanf:"notion"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Cron      CronConfig      `koanf:"cron"`
	Capture   CaptureConfig   `koanf:"capture"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// RateLimit is the sustained request rate allowed per client IP on the
	// API endpoints, in requests per second. Zero disables throttling.
	RateLimit float64 `koanf:"rate_limit"`
	// RateBurst is the burst each client IP may spend above the sustained
	// rate.
	RateBurst int `koanf:"rate_burst"`
}

// LoggingConfig holds the log level/format knobs exposed through the main
// config file. The logging package expands these into its full config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol"` // "grpc" or "http"
	Insecure bool   `koanf:"insecure"`
	// TLSSkipVerify disables certificate verification for collectors with
	// internal CAs. Ignored when Insecure is set.
	TLSSkipVerify bool `koanf:"tls_skip_verify"`
}

// SlackConfig holds Slack workspace credentials and routing.
type SlackConfig struct {
	BotToken       Secret `koanf:"bot_token"`
	SigningSecret  Secret `koanf:"signing_secret"`
	InboxChannelID string `koanf:"inbox_channel_id"`
	UserID         string `koanf:"user_id"` // DM target for digests
	APIRoot        string `koanf:"api_root"`
}

// NotionConfig holds the Notion integration token and database ids.
type NotionConfig struct {
	APIKey  Secret            `koanf:"api_key"`
	APIRoot string            `koanf:"api_root"`
	// Databases maps category name (tasks, work, people, admin) and
	// "inbox_log" to Notion database ids.
	Databases map[string]string `koanf:"databases"`
}

// OpenAIConfig holds the classifier/transcription/digest model settings.
type OpenAIConfig struct {
	APIKey         Secret `koanf:"api_key"`
	ClassifyModel  string `koanf:"classify_model"`
	DigestModel    string `koanf:"digest_model"`
	WhisperModel   string `koanf:"whisper_model"`
}

// CronConfig holds the shared secret protecting scheduled HTTP triggers.
type CronConfig struct {
	Secret Secret `koanf:"secret"`
}

// CaptureConfig holds tunables for the capture pipeline.
type CaptureConfig struct {
	ConfidenceThreshold float64  `koanf:"confidence_threshold"`
	DedupeWindow        Duration `koanf:"dedupe_window"`
}

// NewDefaultConfig returns config with production-ready defaults.
// Credentials have no defaults; they must come from file or environment.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
			RateLimit:       1,
			RateBurst:       10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Protocol: "grpc",
			Insecure: true,
		},
		Slack: SlackConfig{
			APIRoot: "https://slack.com/api",
		},
		Notion: NotionConfig{
			APIRoot:   "https://api.notion.com/v1",
			Databases: map[string]string{},
		},
		OpenAI: OpenAIConfig{
			ClassifyModel: "gpt-4o-mini",
			DigestModel:   "gpt-4o-mini",
			WhisperModel:  "whisper-1",
		},
		Capture: CaptureConfig{
			ConfidenceThreshold: 0.7,
			DedupeWindow:        Duration(5 * time.Minute),
		},
	}
}

// Validate checks config for errors. Credential checks are deferred to the
// components that need them so read-only commands can run without a full
// credential set.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate_limit must not be negative, got %f", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("server rate_burst must be at least 1 when rate_limit is set, got %d", c.Server.RateBurst)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry endpoint required when telemetry is enabled")
		}
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http" {
			return fmt.Errorf("telemetry protocol must be 'grpc' or 'http', got %q", c.Telemetry.Protocol)
		}
	}
	if c.Capture.ConfidenceThreshold < 0 || c.Capture.ConfidenceThreshold > 1 {
		return fmt.Errorf("capture confidence_threshold must be in [0,1], got %f", c.Capture.ConfidenceThreshold)
	}
	if c.Capture.DedupeWindow.Duration() <= 0 {
		return fmt.Errorf("capture dedupe_window must be positive")
	}
	for key := range c.Notion.Databases {
		switch key {
		case "tasks", "work", "people", "admin", "inbox_log":
		default:
			return fmt.Errorf("unknown notion database key %q", key)
		}
	}
	return nil
}
