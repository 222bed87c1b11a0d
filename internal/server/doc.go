// Package server implements the QuickDraw game server: a WebSocket hub that
// registers player connections and groups them into rooms, and a coordinator
// that owns the fastest-press-wins state machine and broadcasts its events.
//
// The implementation is organized into specialized files for configuration,
// the hub, clients, the coordinator, the wire protocol, routing, and HTTP
// handlers to keep the codebase maintainable and testable as the project
// grows.
package server
