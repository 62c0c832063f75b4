// Package surface holds the state of the user-facing busy indicator and the
// package selection surface. Front ends read it over the API; the lifecycle
// manager drives it.
package surface
