/*
Package monitoring provides Prometheus metrics for the GameShelf daemon.

# Overview

Metrics are registered on a registry owned by the server rather than the
global default, so tests and multiple servers in one process do not collide.

# Features

- HTTP request metrics (latency, throughput, size) keyed by route template
- Catalog size, fetch outcomes and durations, activation outcomes
- Modal backlog depth
- WebSocket connection and message counts

# Usage

	reg := monitoring.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", monitoring.Handler(reg))

	manager.WithMetrics(metrics)
*/
package monitoring
