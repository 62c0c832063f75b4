/*
Package resilience provides a circuit breaker for outbound fetches.

# Overview

A Breaker fails fast once a remote keeps failing, then lets a limited number
of trial requests through after a timeout. A Group keeps one breaker per key;
the fetch client keys it by source host.

# Usage

	group := resilience.NewGroup(resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := group.Do(host, func() error {
		return fetch(ctx, url)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
