// Package events provides event bus implementations for session lifecycle
// notifications.
//
// Implementations:
//   - redis: durable fan-out over Redis Streams with consumer groups
//   - memory: in-process bus for development and testing
package events
