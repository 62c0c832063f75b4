// Package http exposes the package manager and the modal queue over gin.
//
// Mutating routes post work to the manager's loop and answer 202 Accepted;
// the outcome shows up in /packages, /modal and on the WebSocket stream.
// Modal routes run synchronously on the loop and return the resulting state.
package http
