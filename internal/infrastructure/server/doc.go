// Package server assembles the shell, the plugin loader and the API.
//
// Components:
//   - Shell: registry, bus, layouts, slots and workspace
//   - Loader: built-in plugins plus manifests and scripts discovered on disk
//   - Session store: exposed on the bus as session.save and session.restore
//   - Router: gin with request ids, logging, metrics, CORS and rate limiting
//   - Hub: WebSocket fan-out of bus events on /stream
//   - Companion bridge: optional REST client and event stream
//
// Example Usage:
//
//	srv, err := server.NewServer(config.LoadOrDefault())
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
