// Package ws pushes live shell changes to the frontend over WebSocket.
//
// The Hub taps the shell bus and relays every event, including the shell's
// own component, slot, layout and workspace changes, to connected clients
// as JSON frames. Clients may narrow what they receive with glob patterns
// and may emit events, call services and trigger components.
//
// Message Types (Client → Server):
//   - ping: keep-alive, answered with pong
//   - subscribe / unsubscribe: add or remove event patterns (e.g. "shell:*")
//   - emit: publish an event; "shell:" events are reserved
//   - call: invoke a bus service, answered with a reply carrying the same id
//   - trigger: run a component's click action
//
// Message Types (Server → Client):
//   - hello: client id, active layout, slots and workspace
//   - event: a bus event
//   - reply: outcome of subscribe, emit, call or trigger
//   - error: malformed or unknown message
//
// Example Usage:
//
//	hub := ws.NewHub(sh, logger).WithMetrics(metrics)
//	hub.Start()
//	router.GET("/stream", hub.HandleConnection)
package ws
