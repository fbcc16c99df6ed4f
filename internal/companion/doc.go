// Package companion bridges the shell to the companion server.
//
// Components:
//   - Client: REST calls through resty over a retrying transport, guarded
//     by a rate limiter and a circuit breaker
//   - Stream: WebSocket push stream relayed onto the bus as
//     "companion:<type>" events, reconnecting with backoff
//   - Bind: Provides the "companion.request" bus service
//
// Request and push payloads are opaque JSON; the shell never interprets
// them.
//
// Example Usage:
//
//	client := companion.NewClient(cfg.Companion.BaseURL, companion.DefaultOptions(), logger)
//	bridge := &companion.Bridge{Client: client, Stream: companion.NewStream(cfg.Companion.WSURL, sh.Bus, logger)}
//	stop := bridge.Start(ctx, sh.Bus)
//	defer stop()
package companion
