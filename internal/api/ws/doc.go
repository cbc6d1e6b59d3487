// Package ws exposes the application's stage broadcast over WebSocket.
//
// Every connection on /stream is registered as a remote ability stage and
// receives each merged configuration delta, so dashboards and device
// simulators can follow configuration changes live.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - update: Submit a configuration delta at a level (default "system")
//
// Message Types (Server → Client):
//   - welcome: Stage name and current configuration
//   - configuration: A merged delta broadcast to every stage
//   - ack: Result of an update, with the delta after filtering
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(application, ws.DefaultOptions(), metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
