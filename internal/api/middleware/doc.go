// Package middleware provides gin middleware for the HTTP surface: CORS for
// browser front ends and per-IP or global request rate limiting.
package middleware
