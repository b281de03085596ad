package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_WithRequiredEnvVars(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test-password")
	defer os.Unsetenv("DB_PASSWORD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DB.Password != "test-password" {
		t.Errorf("DB.Password = %v, want %v", cfg.DB.Password, "test-password")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test-pass")
	defer os.Unsetenv("DB_PASSWORD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DB.Host != "localhost" {
		t.Errorf("DB.Host = %v, want localhost", cfg.DB.Host)
	}
	if cfg.DB.Port != 3306 {
		t.Errorf("DB.Port = %v, want 3306", cfg.DB.Port)
	}
	if cfg.Source.RateLimitBytes != 3*1024*1024 {
		t.Errorf("Source.RateLimitBytes = %v, want %v", cfg.Source.RateLimitBytes, 3*1024*1024)
	}
	if cfg.Source.Timeout != 30*time.Second {
		t.Errorf("Source.Timeout = %v, want 30s", cfg.Source.Timeout)
	}
	if cfg.Crawler.QueryStrategy != "random" {
		t.Errorf("Crawler.QueryStrategy = %v, want random", cfg.Crawler.QueryStrategy)
	}
	if cfg.Crawler.RetryDelay != 5*time.Second {
		t.Errorf("Crawler.RetryDelay = %v, want 5s", cfg.Crawler.RetryDelay)
	}
	if cfg.Metrics.Every != 5 {
		t.Errorf("Metrics.Every = %v, want 5", cfg.Metrics.Every)
	}
	if cfg.Metrics.SnapshotPath != "metrics_log.json" {
		t.Errorf("Metrics.SnapshotPath = %v, want metrics_log.json", cfg.Metrics.SnapshotPath)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %v, want 8000", cfg.Server.Port)
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled = true, want false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	env := map[string]string{
		"DB_PASSWORD":             "pw",
		"SOURCE_RATE_LIMIT_BYTES": "1048576",
		"SOURCE_TIMEOUT":          "10s",
		"CRAWLER_QUERY_STRATEGY":  "fixed",
		"CRAWLER_QUERIES":         "cats,dogs",
		"METRICS_EVERY":           "50",
	}
	for k, v := range env {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range env {
			os.Unsetenv(k)
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.RateLimitBytes != 1048576 {
		t.Errorf("Source.RateLimitBytes = %v, want 1048576", cfg.Source.RateLimitBytes)
	}
	if cfg.Source.Timeout != 10*time.Second {
		t.Errorf("Source.Timeout = %v, want 10s", cfg.Source.Timeout)
	}
	if len(cfg.Crawler.Queries) != 2 || cfg.Crawler.Queries[0] != "cats" || cfg.Crawler.Queries[1] != "dogs" {
		t.Errorf("Crawler.Queries = %v, want [cats dogs]", cfg.Crawler.Queries)
	}
	if cfg.Metrics.Every != 50 {
		t.Errorf("Metrics.Every = %v, want 50", cfg.Metrics.Every)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:      DBConfig{Password: "pw"},
			Source:  SourceConfig{RateLimitBytes: 1024, Timeout: time.Second},
			Crawler: CrawlerConfig{QueryStrategy: "random", MaxAttempts: 10, RetryDelay: 5 * time.Second},
			Metrics: MetricsConfig{Every: 5, SnapshotPath: "metrics.json"},
			Server:  ServerConfig{Port: 8000},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid random", func(c *Config) {}, false},
		{"valid fixed", func(c *Config) {
			c.Crawler.QueryStrategy = "fixed"
			c.Crawler.Queries = []string{"q"}
		}, false},
		{"missing password", func(c *Config) { c.DB.Password = "" }, true},
		{"zero rate limit", func(c *Config) { c.Source.RateLimitBytes = 0 }, true},
		{"zero timeout", func(c *Config) { c.Source.Timeout = 0 }, true},
		{"fixed without queries", func(c *Config) { c.Crawler.QueryStrategy = "fixed" }, true},
		{"unknown strategy", func(c *Config) { c.Crawler.QueryStrategy = "shuffle" }, true},
		{"zero max attempts", func(c *Config) { c.Crawler.MaxAttempts = 0 }, true},
		{"zero retry delay", func(c *Config) { c.Crawler.RetryDelay = 0 }, true},
		{"zero metrics interval", func(c *Config) { c.Metrics.Every = 0 }, true},
		{"empty snapshot path", func(c *Config) { c.Metrics.SnapshotPath = "" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
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

func TestDSN(t *testing.T) {
	cfg := &DBConfig{
		Host:     "db.example.com",
		Port:     3307,
		User:     "harvester",
		Password: "secret",
		Database: "yt",
	}
	want := "harvester:secret@tcp(db.example.com:3307)/yt?charset=utf8mb4&parseTime=True&loc=Local"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %v, want %v", got, want)
	}
}
