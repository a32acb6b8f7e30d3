package ports

import (
	"context"
	"time"

	"github.com/aescanero/fairdeal/pkg/domain"
)

// FulfillmentEvent is one oracle fulfillment log record: the request it
// answers, the random word, and the block it was observed in.
type FulfillmentEvent struct {
	RequestID   domain.Word
	Value       domain.Word
	BlockNumber uint64
}

// OracleClient is the narrow adapter over the oracle contract. All methods
// are stateless per call; the client owns its transport connections.
type OracleClient interface {
	// SubmitRequest submits a randomness request transaction and returns
	// the assigned request id and the reference block to watch from.
	SubmitRequest(ctx context.Context) (requestID domain.Word, blockNumber uint64, err error)

	// QueryLogs returns historical fulfillment events for a request id
	// from the given block onward.
	QueryLogs(ctx context.Context, requestID domain.Word, fromBlock uint64) ([]FulfillmentEvent, error)

	// SubscribeFulfillment opens a live subscription to fulfillment events
	// for a request id. Both channels close when ctx is cancelled; a send
	// on the error channel means the subscription is dead.
	SubscribeFulfillment(ctx context.Context, requestID domain.Word, fromBlock uint64) (<-chan FulfillmentEvent, <-chan error, error)

	// PollValue queries the contract directly for the random word of a
	// request. The zero word means not yet fulfilled.
	PollValue(ctx context.Context, requestID domain.Word) (domain.Word, error)
}

// ArtifactStore archives opaque payloads and returns a content reference.
// Implementations distinguish retryable failures (domain.TransientError)
// from misconfiguration (domain.ConfigError).
type ArtifactStore interface {
	Put(ctx context.Context, payload []byte) (ref string, err error)
}

// ProofEngine computes the fairness proof for a deal. Calls are opaque,
// CPU-bound and potentially long-running; callers must dispatch them off
// their scheduling path.
type ProofEngine interface {
	Compute(ctx context.Context, numPlayers, cardsPerPlayer uint8, seed [32]byte) (*domain.ProofArtifact, error)
}

// SessionEventsTopic is the bus topic carrying session lifecycle events.
const SessionEventsTopic = "session.events"

// EventType identifies a session lifecycle event.
type EventType string

const (
	EventSessionCreated      EventType = "session.created"
	EventRandomnessRequested EventType = "session.randomness_requested"
	EventComputingProof      EventType = "session.computing_proof"
	EventSessionReady        EventType = "session.ready"
	EventSessionFailed       EventType = "session.failed"
)

// Event is a session lifecycle notification.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventHandler processes one event. Handlers must not block the bus.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and subscribes to session lifecycle events.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records operational metrics. Implementations must be
// safe for concurrent use.
type MetricsCollector interface {
	RecordSessionInitiated(status string)
	RecordSessionCompleted(status string, duration time.Duration)
	RecordFulfillment(path string, duration time.Duration)
	RecordProofComputed(status string, duration time.Duration)
	RecordUploadAttempts(attempts int, status string)
	RecordSessionsSwept(count int)
	SetActiveSessions(count int)
	RecordWorkerPoolStatus(idle, busy, stopped int)
}
