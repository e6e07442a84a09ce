package config

import (
	"os"
	"testing"
	"time"
)

// setEnv sets the variables for the duration of the test and clears every other
// key Load reads so the host environment cannot leak in.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	keys := []string{
		"PORT", "ENV", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_TIMEOUT",
		"GEMINI_CONCURRENT_REQS",
		"SESSION_SECRET", "SESSION_TOKEN_TTL", "SESSION_IDLE_TIMEOUT", "SESSION_SWEEP_INTERVAL",
		"REDIS_URL", "PROFILE_PATH", "LOG_LEVEL", "LOG_JSON", "FRONTEND_URL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"SESSION_SECRET": "s3cret"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %q", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-3-flash-preview" {
		t.Errorf("Expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.GeminiTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.GeminiTimeout)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("Expected 30m idle timeout, got %s", cfg.SessionIdleTimeout)
	}
	if cfg.GeminiConcurrentReqs != 5 {
		t.Errorf("Expected 5 concurrent requests, got %d", cfg.GeminiConcurrentReqs)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("Expected empty API key, got %q", cfg.GeminiAPIKey)
	}
	if cfg.LogJSON {
		t.Errorf("Expected LogJSON to default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"SESSION_SECRET":       "s3cret",
		"PORT":                 "9090",
		"GEMINI_API_KEY":       "key-123",
		"GEMINI_TIMEOUT":       "5s",
		"SESSION_IDLE_TIMEOUT": "2m",
		"LOG_JSON":             "true",
		"ENV":                  "production",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.GeminiAPIKey != "key-123" {
		t.Errorf("Expected API key from env, got %q", cfg.GeminiAPIKey)
	}
	if cfg.GeminiTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.GeminiTimeout)
	}
	if cfg.SessionIdleTimeout != 2*time.Minute {
		t.Errorf("Expected 2m idle timeout, got %s", cfg.SessionIdleTimeout)
	}
	if !cfg.LogJSON {
		t.Errorf("Expected LogJSON true")
	}
	if !cfg.IsProduction() {
		t.Errorf("Expected production env")
	}
}

func TestJSONLogs(t *testing.T) {
	tests := []struct {
		env     string
		logJSON bool
		want    bool
	}{
		{"development", false, false},
		{"development", true, true},
		{"production", false, true},
	}

	for _, tc := range tests {
		cfg := &Config{Env: tc.env, LogJSON: tc.logJSON}
		if got := cfg.JSONLogs(); got != tc.want {
			t.Errorf("JSONLogs() env=%s log_json=%v: got %v, want %v", tc.env, tc.logJSON, got, tc.want)
		}
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	setEnv(t, nil)

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing SESSION_SECRET")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-duration timeout", "GEMINI_TIMEOUT", "soon"},
		{"zero timeout", "GEMINI_TIMEOUT", "0s"},
		{"negative idle timeout", "SESSION_IDLE_TIMEOUT", "-1m"},
		{"non-bool log json", "LOG_JSON", "maybe"},
		{"zero concurrency", "GEMINI_CONCURRENT_REQS", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setEnv(t, map[string]string{"SESSION_SECRET": "s3cret", tc.key: tc.val})

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}
