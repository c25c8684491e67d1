// Package config loads the course explorer configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/course-explorer/pkg/client"
	"github.com/Sternrassler/course-explorer/pkg/logging"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// Config is the process configuration. Command line flags override it.
type Config struct {
	BaseURL     string        `env:"CATALOG_BASE_URL" envDefault:"https://universitaly-backend.cineca.it/api/offerta-formativa/cerca-corsi"`
	Pages       int           `env:"CATALOG_PAGES" envDefault:"575"`
	FetchDelay  time.Duration `env:"CATALOG_FETCH_DELAY" envDefault:"0s"`
	Timeout     time.Duration `env:"CATALOG_TIMEOUT" envDefault:"25s"`
	MaxAttempts int           `env:"CATALOG_MAX_ATTEMPTS" envDefault:"1"`
	UserAgent   string        `env:"CATALOG_USER_AGENT" envDefault:"course-explorer/0.1.0"`

	// RedisURL enables the page cache. Either host:port or a redis:// URL.
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"1h"`

	ExportPassword string `env:"CATALOG_EXPORT_PASSWORD"`
	ListenAddr     string `env:"CATALOG_LISTEN_ADDR" envDefault:":8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that the environment parser cannot.
func (c Config) Validate() error {
	var errs []error
	if c.Pages < 0 {
		errs = append(errs, fmt.Errorf("pages must not be negative (got %d)", c.Pages))
	}
	if c.FetchDelay < 0 {
		errs = append(errs, fmt.Errorf("fetch delay must not be negative (got %s)", c.FetchDelay))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive (got %s)", c.Timeout))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1 (got %d)", c.MaxAttempts))
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	return errors.Join(errs...)
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}

// RedisOptions returns connection options for RedisURL, or nil when no Redis
// is configured.
func (c Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	if strings.Contains(c.RedisURL, "://") {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.RedisURL}, nil
}

// Client returns the catalog client configuration. rdb may be nil.
func (c Config) Client(rdb *redis.Client) client.Config {
	cfg := client.DefaultConfig(c.UserAgent)
	cfg.BaseURL = c.BaseURL
	cfg.Timeout = c.Timeout
	cfg.FetchDelay = c.FetchDelay
	cfg.Retry.MaxAttempts = c.MaxAttempts
	cfg.Redis = rdb
	cfg.CacheTTL = c.CacheTTL
	return cfg
}
