package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	// Gemini AI
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
	GeminiTimeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"30s"`

	GeminiConcurrentReqs int `envconfig:"GEMINI_CONCURRENT_REQS" default:"5"`

	// Sessions
	SessionSecret        string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTokenTTL      time.Duration `envconfig:"SESSION_TOKEN_TTL" default:"24h"`
	SessionIdleTimeout   time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`

	// Redis (optional, pub/sub only)
	RedisURL string `envconfig:"REDIS_URL"`

	// Profile
	ProfilePath string `envconfig:"PROFILE_PATH"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`

	// Frontend
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive, got %s", c.GeminiTimeout)
	}
	if c.GeminiConcurrentReqs <= 0 {
		return fmt.Errorf("GEMINI_CONCURRENT_REQS must be positive, got %d", c.GeminiConcurrentReqs)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", c.SessionSweepInterval)
	}
	if c.SessionTokenTTL <= 0 {
		return fmt.Errorf("SESSION_TOKEN_TTL must be positive, got %s", c.SessionTokenTTL)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// JSONLogs reports whether logs should be JSON. Production always is.
func (c *Config) JSONLogs() bool {
	return c.LogJSON || c.IsProduction()
}
