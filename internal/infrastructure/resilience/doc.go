/*
Package resilience provides a circuit breaker for deliveries that may keep
failing, such as pushing configuration updates to a slow remote subscriber.

# Usage

	breaker := resilience.New("remote-stage", resilience.DefaultSettings())

	err := breaker.Do(func() error {
		return enqueue(update)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// skip this subscriber until the timeout elapses
	}

# States

- Closed: Normal operation, calls pass through
- Open: Calls fail immediately with ErrCircuitOpen
- Half-Open: One probe call is allowed; others get ErrTooManyRequests

	Closed --[MaxFailures]-> Open --[Timeout]-> Half-Open --[success]-> Closed
	                                              |
	                                          [failure]
	                                              v
	                                             Open
*/
package resilience
