package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all environment backed configuration for pepper-server.
type Config struct {
	// HTTP Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9091"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Provider credentials. Each provider is registered only when its key is set,
	// but at least one must be present.
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`

	// Generation
	ProviderTimeout  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"120s"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"500ms"`
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`

	// Observability / Logging
	ServiceName string `env:"SERVICE_NAME" envDefault:"pepper-server"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.OpenAIAPIKey == "" && cfg.AnthropicAPIKey == "" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY must be set")
	}

	for name, base := range map[string]string{
		"OPENAI_BASE_URL":    cfg.OpenAIBaseURL,
		"ANTHROPIC_BASE_URL": cfg.AnthropicBaseURL,
		"GEMINI_BASE_URL":    cfg.GeminiBaseURL,
	} {
		if _, err := url.ParseRequestURI(base); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if cfg.RetryMaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, nil
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
