// Package ports defines the interfaces between the application core and its
// external collaborators: the randomness oracle, the artifact store, the
// proof engine, the event bus, and the metrics collector.
//
// The application depends only on these interfaces; concrete implementations
// live under pkg/adapters and are wired together in main.
package ports
