package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090

storage:
  backend: memory
  archive:
    type: localfs
    path: "/tmp/patrimoine/archive"

providers:
  coingecko:
    api_key: "demo-key"
  alphavantage:
    rate_limit: 15s

updates:
  enabled: false
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Archive.Type != "localfs" {
		t.Errorf("expected localfs, got %s", cfg.Storage.Archive.Type)
	}
	if cfg.Provider("coingecko").APIKey != "demo-key" {
		t.Errorf("expected coingecko api key, got %q", cfg.Provider("coingecko").APIKey)
	}
	if cfg.Provider("alphavantage").RateLimit != 15*time.Second {
		t.Errorf("expected 15s rate limit, got %v", cfg.Provider("alphavantage").RateLimit)
	}
	if cfg.Updates.Enabled {
		t.Error("expected updates disabled")
	}
	// Unset fields keep their defaults.
	if cfg.Updates.RetentionDays != 365 {
		t.Errorf("expected default retention 365, got %d", cfg.Updates.RetentionDays)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("PATRIMOINE_TEST_KEY", "secret-from-env")

	content := []byte(`
providers:
  alphavantage:
    api_key: "${PATRIMOINE_TEST_KEY}"
`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Provider("alphavantage").APIKey != "secret-from-env" {
		t.Errorf("expected env-expanded key, got %q", cfg.Provider("alphavantage").APIKey)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Provider("alphavantage").RateLimit != 12*time.Second {
		t.Errorf("expected 12s alphavantage rate limit, got %v", cfg.Provider("alphavantage").RateLimit)
	}
	if !cfg.Updates.Enabled {
		t.Error("expected updates enabled by default")
	}
	if cfg.Updates.RefreshSchedule != "0 */4 * * *" {
		t.Errorf("refresh schedule = %q", cfg.Updates.RefreshSchedule)
	}
	if cfg.Updates.CleanupSchedule != "0 3 * * *" {
		t.Errorf("cleanup schedule = %q", cfg.Updates.CleanupSchedule)
	}
	if cfg.Updates.RetentionDays != 365 {
		t.Errorf("expected retention 365, got %d", cfg.Updates.RetentionDays)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics defaults = %+v", cfg.Metrics)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestProviderConfig_IsEnabled(t *testing.T) {
	enabled := true
	disabled := false

	if !(ProviderConfig{}).IsEnabled() {
		t.Error("absent flag must mean enabled")
	}
	if !(ProviderConfig{Enabled: &enabled}).IsEnabled() {
		t.Error("explicit true must mean enabled")
	}
	if (ProviderConfig{Enabled: &disabled}).IsEnabled() {
		t.Error("explicit false must mean disabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return Defaults() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"mongo without uri", func(c *Config) { c.Storage.Backend = "mongo" }, true},
		{"mongo with uri", func(c *Config) {
			c.Storage.Backend = "mongo"
			c.Storage.Mongo.URI = "mongodb://localhost:27017"
		}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "cassandra" }, true},
		{"unknown archive type", func(c *Config) { c.Storage.Archive.Type = "ftp" }, true},
		{"s3 without bucket", func(c *Config) { c.Storage.Archive.Type = "s3" }, true},
		{"s3 with bucket", func(c *Config) {
			c.Storage.Archive.Type = "s3"
			c.Storage.Archive.S3.Bucket = "archive"
		}, false},
		{"retention zero", func(c *Config) { c.Updates.RetentionDays = 0 }, true},
		{"negative rate limit", func(c *Config) {
			c.Providers["alphavantage"] = ProviderConfig{RateLimit: -time.Second}
		}, true},
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "grok" }, true},
		{"claude without key", func(c *Config) { c.LLM.Provider = "claude" }, true},
		{"claude with key", func(c *Config) {
			c.LLM.Provider = "claude"
			c.LLM.Claude.APIKey = "sk-test"
		}, false},
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
