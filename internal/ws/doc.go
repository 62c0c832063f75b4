// Package ws streams state-change events to front ends over WebSocket.
//
// Every connection registers a refresh callback with the package manager and
// is its owner: the callback stays registered while the connection is open and
// is pruned after it closes.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Welcome message
//   - refresh: The active package was (re)activated
//   - modal: The modal queue changed
//   - status: The busy indicator or selection surface changed
//   - pong, error
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
