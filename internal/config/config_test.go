package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090

storage:
  hot:
    dsn: "/tmp/sift/sift.db"
  archive:
    type: localfs
    path: "/tmp/sift/archive"

backtest:
  hold_days: 90
  transaction_cost_bps: 10
`)

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
	if cfg.Backtest.HoldDays != 90 {
		t.Errorf("expected hold_days 90, got %d", cfg.Backtest.HoldDays)
	}
	if cfg.Backtest.TransactionCostBps != 10 {
		t.Errorf("expected transaction_cost_bps 10, got %f", cfg.Backtest.TransactionCostBps)
	}

	// Fields the file does not set keep their defaults.
	if cfg.Backtest.FilingDelayDays != 45 {
		t.Errorf("expected default filing_delay_days 45, got %d", cfg.Backtest.FilingDelayDays)
	}
	if cfg.Screening.MinScore != 5 {
		t.Errorf("expected default min_score 5, got %d", cfg.Screening.MinScore)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SIFT_TEST_API_KEY", "from-env")

	cfgPath := writeConfig(t, `
server:
  api_key: "${SIFT_TEST_API_KEY}"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.APIKey != "from-env" {
		t.Errorf("expected api key from env, got %q", cfg.Server.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Hot.DSN != "data/sift.db" {
		t.Errorf("expected default dsn, got %s", cfg.Storage.Hot.DSN)
	}
	if cfg.Backtest.HoldDays != 180 {
		t.Errorf("expected default hold_days 180, got %d", cfg.Backtest.HoldDays)
	}
	if cfg.Screening.MaxPERatio != 30.0 {
		t.Errorf("expected default max_pe_ratio 30, got %f", cfg.Screening.MaxPERatio)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing dsn", func(c *Config) { c.Storage.Hot.DSN = "" }, true},
		{"unknown archive type", func(c *Config) { c.Storage.Archive.Type = "ftp" }, true},
		{"s3 without bucket", func(c *Config) { c.Storage.Archive.Type = "s3" }, true},
		{"bad min score", func(c *Config) { c.Screening.MinScore = 7 }, true},
		{"bad hold days", func(c *Config) { c.Backtest.HoldDays = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
