package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
)

// Registry holds all session records behind a reader/writer lock.
// Concurrent status and result reads do not block each other; creates,
// transitions and sweeps are mutually exclusive with everything else.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.SessionRecord
	logger   *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*domain.SessionRecord),
		logger:   logger,
	}
}

// Create allocates a fresh session id and inserts a record in the
// requesting status. Parameter validation is the caller's job.
func (r *Registry) Create(numPlayers, cardsPerPlayer uint8) string {
	id := uuid.New().String()

	r.mu.Lock()
	r.sessions[id] = &domain.SessionRecord{
		SessionID:      id,
		NumPlayers:     numPlayers,
		CardsPerPlayer: cardsPerPlayer,
		RequestedAt:    time.Now(),
		Status:         domain.StatusRequesting,
	}
	r.mu.Unlock()

	return id
}

// Get returns a snapshot of the record, or ErrSessionNotFound if the id is
// unknown or has been purged.
func (r *Registry) Get(id string) (domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sessions[id]
	if !ok {
		return domain.SessionRecord{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return rec.Clone(), nil
}

// Transition applies a forward-only status update. Moving backward or out
// of a terminal status is a logic error and leaves the record untouched.
func (r *Registry) Transition(id string, next domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if !rec.Status.CanTransitionTo(next) {
		return fmt.Errorf("illegal status transition %s -> %s for session %s", rec.Status, next, id)
	}

	rec.Status = next
	return nil
}

// SetOracleRequest records the oracle request id and reference block after
// a successful submission.
func (r *Registry) SetOracleRequest(id string, requestID domain.Word, blockNumber uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	rec.RequestID = requestID
	rec.BlockNumber = blockNumber
	return nil
}

// SetResult stores the terminal payload and moves the session to ready.
func (r *Registry) SetResult(id string, result *domain.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if !rec.Status.CanTransitionTo(domain.StatusReady) {
		return fmt.Errorf("illegal status transition %s -> %s for session %s", rec.Status, domain.StatusReady, id)
	}

	rec.Status = domain.StatusReady
	rec.Result = result
	rec.FailureCause = ""
	return nil
}

// SetFailed moves a non-terminal session to failed and records the cause.
// A ready session never gains a failure cause and vice versa.
func (r *Registry) SetFailed(id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("session %s already terminal (%s)", id, rec.Status)
	}

	rec.Status = domain.StatusFailed
	rec.FailureCause = cause.Error()
	rec.Result = nil
	return nil
}

// ListByStatus returns snapshots of all records currently in the given
// status.
func (r *Registry) ListByStatus(status domain.Status) []domain.SessionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.SessionRecord
	for _, rec := range r.sessions {
		if rec.Status == status {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// UpdateGame applies fn to the game state of a ready session under the
// write lock and returns a snapshot of the resulting state. fn must not
// perform I/O.
func (r *Registry) UpdateGame(id string, fn func(*domain.GameState) error) (domain.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return domain.GameState{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if rec.Status != domain.StatusReady || rec.Result == nil {
		return domain.GameState{}, fmt.Errorf("%w: %s is %s", domain.ErrGameNotReady, id, rec.Status)
	}

	if err := fn(&rec.Result.Game); err != nil {
		return domain.GameState{}, err
	}
	return rec.Result.Game.Clone(), nil
}

// Sweep removes every record older than ttl that never reached ready and
// returns how many were removed. Purging is the only way an id becomes
// invalid after creation.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rec := range r.sessions {
		if rec.Status == domain.StatusReady {
			continue
		}
		age := now.Sub(rec.RequestedAt)
		if age < ttl {
			continue
		}

		delete(r.sessions, id)
		removed++
		r.logger.Info("swept expired session",
			zap.String("session_id", id),
			zap.String("status", string(rec.Status)),
			zap.Duration("age", age))
	}
	return removed
}

// Len returns the number of records currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
