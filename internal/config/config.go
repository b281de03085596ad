package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	DB      DBConfig
	Source  SourceConfig
	Crawler CrawlerConfig
	Metrics MetricsConfig
	Server  ServerConfig
	Archive ArchiveConfig
}

// DBConfig holds database configuration
type DBConfig struct {
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"3306"`
	User       string `envconfig:"DB_USER" default:"root"`
	Password   string `envconfig:"DB_PASSWORD" required:"true"`
	Database   string `envconfig:"DB_NAME" default:"yt_harvester"`
	MaxConns   int    `envconfig:"DB_MAX_CONNS" default:"10"`
	EventsPath string `envconfig:"DB_EVENTS_PATH" default:"events.log"`
}

// SourceConfig holds metadata source configuration
type SourceConfig struct {
	BaseURL        string        `envconfig:"SOURCE_BASE_URL" default:"https://www.youtube.com"`
	RateLimitBytes int           `envconfig:"SOURCE_RATE_LIMIT_BYTES" default:"3145728"`
	Timeout        time.Duration `envconfig:"SOURCE_TIMEOUT" default:"30s"`
	UserAgent      string        `envconfig:"SOURCE_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
}

// CrawlerConfig holds crawl loop configuration
type CrawlerConfig struct {
	QueryStrategy string        `envconfig:"CRAWLER_QUERY_STRATEGY" default:"random"`
	Queries       []string      `envconfig:"CRAWLER_QUERIES"`
	VocabFile     string        `envconfig:"CRAWLER_VOCAB_FILE"`
	MaxAttempts   int           `envconfig:"CRAWLER_MAX_ATTEMPTS" default:"10"`
	RetryDelay    time.Duration `envconfig:"CRAWLER_RETRY_DELAY" default:"5s"`
}

// MetricsConfig holds metrics aggregation configuration
type MetricsConfig struct {
	Every        int    `envconfig:"METRICS_EVERY" default:"5"`
	SnapshotPath string `envconfig:"METRICS_SNAPSHOT_PATH" default:"metrics_log.json"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8000"`
}

// ArchiveConfig holds raw-document archive configuration
type ArchiveConfig struct {
	Enabled bool `envconfig:"ARCHIVE_ENABLED" default:"false"`
}

// DSN returns the MySQL data source name
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Source); err != nil {
		return nil, fmt.Errorf("failed to load source config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Crawler); err != nil {
		return nil, fmt.Errorf("failed to load crawler config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Metrics); err != nil {
		return nil, fmt.Errorf("failed to load metrics config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Archive); err != nil {
		return nil, fmt.Errorf("failed to load archive config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Source.RateLimitBytes <= 0 {
		return fmt.Errorf("SOURCE_RATE_LIMIT_BYTES must be positive")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive")
	}
	switch c.Crawler.QueryStrategy {
	case "fixed":
		if len(c.Crawler.Queries) == 0 {
			return fmt.Errorf("CRAWLER_QUERIES is required when CRAWLER_QUERY_STRATEGY is fixed")
		}
	case "random":
	default:
		return fmt.Errorf("CRAWLER_QUERY_STRATEGY must be fixed or random, got %q", c.Crawler.QueryStrategy)
	}
	if c.Crawler.MaxAttempts <= 0 {
		return fmt.Errorf("CRAWLER_MAX_ATTEMPTS must be positive")
	}
	if c.Crawler.RetryDelay <= 0 {
		return fmt.Errorf("CRAWLER_RETRY_DELAY must be positive")
	}
	if c.Metrics.Every <= 0 {
		return fmt.Errorf("METRICS_EVERY must be positive")
	}
	if c.Metrics.SnapshotPath == "" {
		return fmt.Errorf("METRICS_SNAPSHOT_PATH is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	return nil
}
