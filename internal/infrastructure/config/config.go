package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Fetch     FetchConfig
	Loading   LoadingConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	GamesDir    string `envconfig:"GAMES_DIR" default:"~/.local/share/gameshelf/games"`
	DefaultsDir string `envconfig:"GAMES_DEFAULTS_DIR"`
	PrefsPath   string `envconfig:"PREFS_PATH" default:"~/.config/gameshelf/prefs.toml"`
}

// FetchConfig holds outbound download configuration.
type FetchConfig struct {
	Timeout         time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	Retries         int           `envconfig:"FETCH_RETRIES" default:"3"`
	RetryWaitMin    time.Duration `envconfig:"FETCH_RETRY_WAIT_MIN" default:"1s"`
	RetryWaitMax    time.Duration `envconfig:"FETCH_RETRY_WAIT_MAX" default:"30s"`
	RateLimit       float64       `envconfig:"FETCH_RATE_LIMIT" default:"0"`
	Burst           int           `envconfig:"FETCH_BURST" default:"4"`
	MaxBodyMB       int64         `envconfig:"FETCH_MAX_BODY_MB" default:"256"`
	BreakerFailures uint32        `envconfig:"FETCH_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"FETCH_BREAKER_TIMEOUT" default:"30s"`
	UserAgent       string        `envconfig:"FETCH_USER_AGENT" default:"GameShelf/1.0"`
}

// LoadingConfig holds content loading configuration.
type LoadingConfig struct {
	CardsLoadingThreshold int           `envconfig:"CARDS_LOADING_THRESHOLD" default:"60"`
	FrameInterval         time.Duration `envconfig:"FRAME_INTERVAL" default:"16ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	// Surface shows error-level log entries in the modal queue.
	Surface bool `envconfig:"LOG_SURFACE" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Storage.GamesDir == "":
		return fmt.Errorf("invalid config: GAMES_DIR is empty")
	case c.Loading.CardsLoadingThreshold < 0:
		return fmt.Errorf("invalid config: CARDS_LOADING_THRESHOLD must not be negative")
	case c.Loading.FrameInterval <= 0:
		return fmt.Errorf("invalid config: FRAME_INTERVAL must be positive")
	case c.Fetch.Retries < 0:
		return fmt.Errorf("invalid config: FETCH_RETRIES must not be negative")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			GamesDir:  "~/.local/share/gameshelf/games",
			PrefsPath: "~/.config/gameshelf/prefs.toml",
		},
		Fetch: FetchConfig{
			Timeout:         30 * time.Second,
			Retries:         3,
			RetryWaitMin:    1 * time.Second,
			RetryWaitMax:    30 * time.Second,
			Burst:           4,
			MaxBodyMB:       256,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
			UserAgent:       "GameShelf/1.0",
		},
		Loading: LoadingConfig{
			CardsLoadingThreshold: 60,
			FrameInterval:         16 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
