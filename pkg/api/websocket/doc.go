// Package websocket streams session lifecycle events to clients over
// WebSocket connections.
package websocket
