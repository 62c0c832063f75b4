// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// A surface hook can forward every error-level entry to a callback, which the
// server uses to show failures in the modal message queue.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger = logger.WithSurface(manager.ShowMessage)
package logging
