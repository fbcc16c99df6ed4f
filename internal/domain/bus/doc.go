// Package bus provides the event and service bus shared by the shell and
// its plugins.
//
// Events are fire-and-forget and delivered synchronously, in subscription
// order, to the listeners present when Emit was called. Services are named
// request/response handlers with at most one provider per name; providing
// a name again replaces the previous handler and logs a warning.
//
// A handler that re-emits its own triggering event recurses synchronously.
// The bus does not guard against this.
//
// Example Usage:
//
//	b := bus.New(logger)
//	sub := b.On("theme:changed", func(p interface{}) { ... })
//	defer sub.Unsubscribe()
//
//	b.Provide("clock.now", func(ctx context.Context, _ interface{}) (interface{}, error) {
//	    return time.Now(), nil
//	})
//	out, err := b.Call(ctx, "clock.now", nil)
//	if bus.IsServiceNotFound(err) {
//	    // provider not loaded yet
//	}
package bus
