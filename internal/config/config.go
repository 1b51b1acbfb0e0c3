package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/companionhq/companion/backend/internal/service/ai"
)

// Config aggregates every setting of the service. All values come
// from the environment; main loads a .env file first when present.
type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	// CallerHeader names the header the fronting identity proxy uses
	// to pass the resolved caller id.
	CallerHeader  string `env:"CALLER_HEADER" envDefault:"X-Caller-Id"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`

	// Free-tier quota: messages per rolling window for callers without
	// an active entitlement.
	FreeMessageQuota int           `env:"FREE_MESSAGE_QUOTA" envDefault:"10"`
	FreeQuotaWindow  time.Duration `env:"FREE_QUOTA_WINDOW" envDefault:"24h"`

	HistoryLimit      int           `env:"HISTORY_LIMIT" envDefault:"20"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`

	AI AIConfig `envPrefix:"ARK_"`
}

// AIConfig describes the Ark completion model settings.
type AIConfig struct {
	APIKey      string   `env:"API_KEY"`
	Model       string   `env:"MODEL"`
	BaseURL     string   `env:"BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region      string   `env:"REGION" envDefault:"cn-beijing"`
	Temperature *float64 `env:"TEMPERATURE"`
	MaxTokens   *int     `env:"MAX_TOKENS"`
}

// Completer converts the settings into the ai package's config.
func (c AIConfig) Completer() ai.Config {
	return ai.Config{
		APIKey:      c.APIKey,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
