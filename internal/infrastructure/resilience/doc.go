/*
Package resilience provides the circuit breaker guarding calls to the
companion server.

# States

- Closed: Calls pass through; consecutive failures are counted
- Open: Calls fail immediately with ErrCircuitOpen until the cooldown ends
- Half-Open: Up to Trials calls run; one success closes, one failure reopens

# Usage

	breaker := resilience.New("companion", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		_, err := client.R().SetContext(ctx).Get("/health")
		return err
	})

Caller cancellation is not counted as a failure unless IsFailure says so.
*/
package resilience
