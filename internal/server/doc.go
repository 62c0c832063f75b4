// Package server is the composition root of the GameShelf daemon.
//
// It wires the components together:
//   - on-disk storage, preference file and the bundle downloader
//   - the package manager and its scheduler loop
//   - busy indicator and selection surface, modal queue
//   - HTTP routing with Gin, middleware stack (tracing, metrics, CORS, rate limiting)
//   - WebSocket stream and Prometheus metrics endpoint
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger, optionally surfacing error logs in the modal queue
//  3. Remove abandoned staging directories
//  4. Start the loop, the modal frame tick and the initial activation
//  5. Serve HTTP until the context is cancelled
//  6. Shut down HTTP, then stop the loop
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.Run(ctx)
package server
