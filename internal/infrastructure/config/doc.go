// Package config provides 12-factor configuration management for the GameShelf daemon.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server can override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Storage: games root, default-set directory, preference file
//   - Fetch: outbound download timeouts, retries, rate limit and breakers
//   - Loading: paged-load notification threshold and modal frame interval
//   - Logging: log level, output format, modal surfacing of error logs
//   - RateLimit: per-IP API rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Serving %s on %s\n", cfg.Storage.GamesDir, cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, CORS_ORIGINS
//   - GAMES_DIR, GAMES_DEFAULTS_DIR, PREFS_PATH
//   - FETCH_TIMEOUT, FETCH_RETRIES, FETCH_RATE_LIMIT, FETCH_BURST, FETCH_MAX_BODY_MB
//   - CARDS_LOADING_THRESHOLD, FRAME_INTERVAL
//   - LOG_LEVEL, LOG_DEV, LOG_SURFACE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
