package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/internal/application/oracle"
	"github.com/aescanero/fairdeal/internal/application/uploader"
	"github.com/aescanero/fairdeal/internal/application/workers"
	"github.com/aescanero/fairdeal/internal/registry"
	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

// Config holds the orchestrator's timing parameters.
type Config struct {
	// CheckInterval is the fulfillment scheduler tick.
	CheckInterval time.Duration
	// AttemptTimeout bounds a single fulfillment attempt. Must be shorter
	// than CheckInterval.
	AttemptTimeout time.Duration
	// SweepInterval is the expiry sweeper tick.
	SweepInterval time.Duration
	// SessionTTL is how long a session that never reached ready is kept.
	SessionTTL time.Duration
	// EstimatedWaitSeconds is reported to clients on initiate.
	EstimatedWaitSeconds int
}

// Manager coordinates deal sessions.
type Manager struct {
	registry    *registry.Registry
	coordinator *oracle.Coordinator
	uploader    *uploader.Uploader
	provers     *workers.Pool
	eventBus    ports.EventBus
	metrics     ports.MetricsCollector
	logger      *zap.Logger
	cfg         Config

	// One finalize attempt in flight per session across overlapping ticks.
	inflight sync.Map

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a session orchestrator.
func NewManager(
	reg *registry.Registry,
	coordinator *oracle.Coordinator,
	up *uploader.Uploader,
	provers *workers.Pool,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	cfg Config,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		registry:    reg,
		coordinator: coordinator,
		uploader:    up,
		provers:     provers,
		eventBus:    eventBus,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the fulfillment scheduler and the expiry sweeper.
func (m *Manager) Start() {
	m.wg.Add(2)
	go m.fulfillmentLoop()
	go m.sweepLoop()
}

// Shutdown stops the background loops and waits for them to finish.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down session orchestrator")
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("session orchestrator shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// Initiate validates the game parameters, registers a new session and kicks
// off the randomness request in the background. It returns immediately; the
// caller follows progress through Status.
func (m *Manager) Initiate(ctx context.Context, numPlayers, cardsPerPlayer uint8) (*domain.SessionInitiation, error) {
	if err := domain.ValidateGameParams(numPlayers, cardsPerPlayer); err != nil {
		m.metrics.RecordSessionInitiated("invalid")
		return nil, err
	}

	sessionID := m.registry.Create(numPlayers, cardsPerPlayer)

	m.metrics.RecordSessionInitiated("accepted")
	m.metrics.SetActiveSessions(m.registry.Len())
	m.publishEvent(ports.EventSessionCreated, sessionID, map[string]any{
		"num_players":      numPlayers,
		"cards_per_player": cardsPerPlayer,
	})

	m.logger.Info("session initiated",
		zap.String("session_id", sessionID),
		zap.Uint8("num_players", numPlayers),
		zap.Uint8("cards_per_player", cardsPerPlayer))

	go m.requestRandomness(sessionID)

	return &domain.SessionInitiation{
		SessionID:            sessionID,
		Status:               domain.StatusRequesting,
		EstimatedWaitSeconds: m.cfg.EstimatedWaitSeconds,
	}, nil
}

// requestRandomness submits the oracle request for a fresh session. A failed
// submission is terminal for the session.
func (m *Manager) requestRandomness(sessionID string) {
	requestID, blockNumber, err := m.coordinator.RequestRandomness(m.ctx)
	if err != nil {
		m.failSession(sessionID, err)
		return
	}

	if err := m.registry.SetOracleRequest(sessionID, requestID, blockNumber); err != nil {
		// Session may have been swept while the request was in flight.
		m.logger.Warn("could not record oracle request",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}
	if err := m.registry.Transition(sessionID, domain.StatusAwaitingRandomness); err != nil {
		m.logger.Warn("could not mark session awaiting randomness",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}

	m.publishEvent(ports.EventRandomnessRequested, sessionID, map[string]any{
		"request_id":   requestID.Hex(),
		"block_number": blockNumber,
	})

	m.logger.Info("randomness request recorded",
		zap.String("session_id", sessionID),
		zap.Stringer("request_id", requestID),
		zap.Uint64("block_number", blockNumber))
}

// fulfillmentLoop periodically scans for sessions awaiting randomness and
// launches one finalize attempt per eligible session.
func (m *Manager) fulfillmentLoop() {
	defer m.wg.Done()

	m.logger.Info("fulfillment scheduler started",
		zap.Duration("interval", m.cfg.CheckInterval))

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.checkPending()
		}
	}
}

// checkPending launches finalize attempts for awaiting sessions that do not
// already have one in flight.
func (m *Manager) checkPending() {
	for _, rec := range m.registry.ListByStatus(domain.StatusAwaitingRandomness) {
		if _, loaded := m.inflight.LoadOrStore(rec.SessionID, struct{}{}); loaded {
			continue
		}

		rec := rec
		go func() {
			defer m.inflight.Delete(rec.SessionID)
			m.attemptFinalize(rec)
		}()
	}
}

// attemptFinalize runs one bounded fulfillment attempt. A timeout is not
// terminal: the session stays awaiting and the next tick retries.
func (m *Manager) attemptFinalize(rec domain.SessionRecord) {
	value, err := m.coordinator.AwaitFulfillment(m.ctx, rec.RequestID, rec.BlockNumber, m.cfg.AttemptTimeout)
	if err != nil {
		if errors.Is(err, domain.ErrFulfillmentTimeout) || errors.Is(err, context.Canceled) {
			m.logger.Debug("randomness not yet fulfilled",
				zap.String("session_id", rec.SessionID),
				zap.Stringer("request_id", rec.RequestID))
		} else {
			// Transport trouble is also retryable from the scheduler's
			// point of view.
			m.logger.Warn("fulfillment attempt failed",
				zap.String("session_id", rec.SessionID),
				zap.Stringer("request_id", rec.RequestID),
				zap.Error(err))
		}
		return
	}

	m.finalize(rec, value)
}

// proofEnvelope is the archived artifact payload.
type proofEnvelope struct {
	ID        string                `json:"id"`
	Timestamp string                `json:"timestamp"`
	Artifact  *domain.ProofArtifact `json:"data"`
}

// finalize turns a fulfilled random word into a ready session: shuffle,
// proof on the worker pool, artifact upload, result. Proof and upload
// failures are terminal.
func (m *Manager) finalize(rec domain.SessionRecord, value domain.Word) {
	if err := m.registry.Transition(rec.SessionID, domain.StatusComputingProof); err != nil {
		m.logger.Warn("could not mark session computing proof",
			zap.String("session_id", rec.SessionID),
			zap.Error(err))
		return
	}
	m.publishEvent(ports.EventComputingProof, rec.SessionID, nil)

	m.logger.Info("randomness fulfilled, finalizing session",
		zap.String("session_id", rec.SessionID),
		zap.Stringer("request_id", rec.RequestID),
		zap.Stringer("value", value))

	seed := value.Bytes32()

	outcome, err := domain.PerformShuffle(rec.NumPlayers, rec.CardsPerPlayer, seed)
	if err != nil {
		// Parameters were validated at initiate; this cannot normally happen.
		m.failSession(rec.SessionID, fmt.Errorf("shuffle: %w", err))
		return
	}

	artifact, err := m.provers.Compute(m.ctx, workers.ProofJob{
		SessionID:      rec.SessionID,
		NumPlayers:     rec.NumPlayers,
		CardsPerPlayer: rec.CardsPerPlayer,
		Seed:           seed,
	})
	if err != nil {
		m.failSession(rec.SessionID, fmt.Errorf("proof computation: %w", err))
		return
	}

	payload, err := json.MarshalIndent(proofEnvelope{
		ID:        rec.SessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Artifact:  artifact,
	}, "", "  ")
	if err != nil {
		m.failSession(rec.SessionID, fmt.Errorf("proof serialization: %w", err))
		return
	}

	ref, err := m.uploader.Upload(m.ctx, payload)
	if err != nil {
		m.failSession(rec.SessionID, fmt.Errorf("artifact upload: %w", err))
		return
	}

	result := &domain.GameResult{
		Game: domain.GameState{
			PlayerHands: outcome.PlayerHands,
			DrawPile:    outcome.DrawPile,
			DiscardPile: []uint8{},
			IsShuffled:  true,
			Seed: domain.SeedMetadata{
				Value:     value,
				RequestID: rec.RequestID,
			},
		},
		ArtifactRef: ref,
	}

	if err := m.registry.SetResult(rec.SessionID, result); err != nil {
		m.logger.Error("could not store session result",
			zap.String("session_id", rec.SessionID),
			zap.Error(err))
		return
	}

	m.metrics.RecordSessionCompleted("ready", time.Since(rec.RequestedAt))
	m.publishEvent(ports.EventSessionReady, rec.SessionID, map[string]any{
		"artifact_ref": ref,
	})

	m.logger.Info("session ready",
		zap.String("session_id", rec.SessionID),
		zap.String("artifact_ref", ref),
		zap.Duration("total_time", time.Since(rec.RequestedAt)))
}

// failSession records a terminal failure for the session.
func (m *Manager) failSession(sessionID string, cause error) {
	m.logger.Error("session failed",
		zap.String("session_id", sessionID),
		zap.Error(cause))

	if err := m.registry.SetFailed(sessionID, cause); err != nil {
		m.logger.Warn("could not record session failure",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}

	if rec, err := m.registry.Get(sessionID); err == nil {
		m.metrics.RecordSessionCompleted("failed", time.Since(rec.RequestedAt))
	}
	m.publishEvent(ports.EventSessionFailed, sessionID, map[string]any{
		"reason": cause.Error(),
	})
}

// sweepLoop periodically purges sessions that never reached ready within
// the retention window.
func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	m.logger.Info("expiry sweeper started",
		zap.Duration("interval", m.cfg.SweepInterval),
		zap.Duration("ttl", m.cfg.SessionTTL))

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			removed := m.registry.Sweep(time.Now(), m.cfg.SessionTTL)
			if removed > 0 {
				m.metrics.RecordSessionsSwept(removed)
				m.logger.Info("swept expired sessions", zap.Int("removed", removed))
			}
			m.metrics.SetActiveSessions(m.registry.Len())
		}
	}
}

// Status returns the current status of a session.
func (m *Manager) Status(sessionID string) (*domain.SessionStatus, error) {
	rec, err := m.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	status := &domain.SessionStatus{
		SessionID:      rec.SessionID,
		Status:         rec.Status,
		ElapsedSeconds: int64(time.Since(rec.RequestedAt).Seconds()),
		FailureCause:   rec.FailureCause,
	}
	if !rec.RequestID.IsZero() {
		requestID := rec.RequestID
		status.RequestID = &requestID
	}
	return status, nil
}

// Result returns the terminal payload of a ready session.
func (m *Manager) Result(sessionID string) (*domain.GameResult, error) {
	rec, err := m.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusReady || rec.Result == nil {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrGameNotReady, sessionID, rec.Status)
	}
	return rec.Result, nil
}

// DrawCard draws one card for a player of a ready session and returns the
// card together with the updated game state.
func (m *Manager) DrawCard(sessionID string, player uint8) (uint8, domain.GameState, error) {
	var card uint8
	state, err := m.registry.UpdateGame(sessionID, func(g *domain.GameState) error {
		c, drawErr := g.DrawCard(player)
		card = c
		return drawErr
	})
	return card, state, err
}

// DrawCards draws count cards for a player of a ready session.
func (m *Manager) DrawCards(sessionID string, player uint8, count uint8) ([]uint8, domain.GameState, error) {
	var drawn []uint8
	state, err := m.registry.UpdateGame(sessionID, func(g *domain.GameState) error {
		cards, drawErr := g.DrawCards(player, count)
		drawn = cards
		return drawErr
	})
	return drawn, state, err
}

// PlayCard plays the card at cardIndex from a player's hand.
func (m *Manager) PlayCard(sessionID string, player uint8, cardIndex int) (uint8, domain.GameState, error) {
	var played uint8
	state, err := m.registry.UpdateGame(sessionID, func(g *domain.GameState) error {
		c, playErr := g.PlayCard(player, cardIndex)
		played = c
		return playErr
	})
	return played, state, err
}

// Hand returns a player's current hand for a ready session.
func (m *Manager) Hand(sessionID string, player uint8) ([]uint8, error) {
	result, err := m.Result(sessionID)
	if err != nil {
		return nil, err
	}
	return result.Game.Hand(player)
}

// publishEvent publishes a session lifecycle event to the event bus.
func (m *Manager) publishEvent(eventType ports.EventType, sessionID string, data map[string]any) {
	event := ports.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      data,
	}

	if err := m.eventBus.Publish(m.ctx, ports.SessionEventsTopic, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("session_id", sessionID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
