package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())

	// Storage config
	assert.Equal(t, "~/.local/share/gameshelf/games", cfg.Storage.GamesDir)
	assert.Empty(t, cfg.Storage.DefaultsDir)

	// Loading config
	assert.Equal(t, 60, cfg.Loading.CardsLoadingThreshold)
	assert.Equal(t, 16*time.Millisecond, cfg.Loading.FrameInterval)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.False(t, cfg.Logging.Surface)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Storage.GamesDir)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                    "9000",
		"HOST":                    "127.0.0.1",
		"CORS_ORIGINS":            "http://a.test,http://b.test",
		"GAMES_DIR":               "/srv/games",
		"GAMES_DEFAULTS_DIR":      "/usr/share/gameshelf",
		"FETCH_TIMEOUT":           "5s",
		"FETCH_RETRIES":           "1",
		"FETCH_RATE_LIMIT":        "2.5",
		"CARDS_LOADING_THRESHOLD": "10",
		"FRAME_INTERVAL":          "33ms",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
		"LOG_SURFACE":             "true",
		"RATE_LIMIT_RPS":          "500",
		"RATE_LIMIT_BURST":        "1000",
		"RATE_LIMIT_ENABLED":      "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)

	assert.Equal(t, "/srv/games", cfg.Storage.GamesDir)
	assert.Equal(t, "/usr/share/gameshelf", cfg.Storage.DefaultsDir)

	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 1, cfg.Fetch.Retries)
	assert.InDelta(t, 2.5, cfg.Fetch.RateLimit, 0.001)

	assert.Equal(t, 10, cfg.Loading.CardsLoadingThreshold)
	assert.Equal(t, 33*time.Millisecond, cfg.Loading.FrameInterval)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.True(t, cfg.Logging.Surface)

	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"malformed duration", "FETCH_TIMEOUT", "soon"},
		{"negative threshold", "CARDS_LOADING_THRESHOLD", "-1"},
		{"zero frame interval", "FRAME_INTERVAL", "0s"},
		{"negative retries", "FETCH_RETRIES", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			// LoadOrDefault falls back instead of failing.
			cfg := LoadOrDefault()
			assert.Equal(t, Default().Loading, cfg.Loading)
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		dev       string
		wantLevel string
		wantDev   bool
	}{
		{"debug level", "debug", "false", "debug", false},
		{"development mode", "info", "true", "info", true},
		{"error level production", "error", "false", "error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)
			t.Setenv("LOG_DEV", tt.dev)

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantLevel, cfg.Logging.Level)
			assert.Equal(t, tt.wantDev, cfg.Logging.Development)
		})
	}
}
