// Package main is the entry point for the GameShelf daemon.
//
// The daemon owns a local catalog of game definition packages and drives
// package selection, download and the modal message queue for whichever
// front end connects to it.
//
// The server provides:
//   - REST API for package selection and the modal queue
//   - WebSocket stream of refresh and status events
//   - Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Serve a custom games root
//	./server -port 8000 -games /srv/games
//
//	# Development mode (colored logs, debug level)
//	./server -dev -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
