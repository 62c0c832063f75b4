// Package client is the outbound HTTP client used to fetch game bundles.
//
// Built on go-resty/resty over a hashicorp/go-retryablehttp transport:
//   - Retries with exponential backoff on transport errors, 429 and 5xx
//   - Global request rate limit (golang.org/x/time/rate)
//   - One circuit breaker per host (internal/infrastructure/resilience)
//   - Non-2xx responses returned as *StatusError (errors.Is ErrStatus)
//
// Example Usage:
//
//	c := client.New(client.DefaultConfig(), log)
//	body, err := c.Get(ctx, "https://example.com/game.json")
package client
