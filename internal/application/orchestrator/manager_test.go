package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/internal/application/oracle"
	"github.com/aescanero/fairdeal/internal/application/uploader"
	"github.com/aescanero/fairdeal/internal/application/workers"
	"github.com/aescanero/fairdeal/internal/registry"
	artifactmemory "github.com/aescanero/fairdeal/pkg/adapters/artifacts/memory"
	eventmemory "github.com/aescanero/fairdeal/pkg/adapters/events/memory"
	"github.com/aescanero/fairdeal/pkg/adapters/metrics/noop"
	oraclememory "github.com/aescanero/fairdeal/pkg/adapters/oracle/memory"
	"github.com/aescanero/fairdeal/pkg/adapters/proof/local"
	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

type testHarness struct {
	manager *Manager
	oracle  *oraclememory.Client
	store   *artifactmemory.Store
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := zap.NewNop()
	metrics := noop.NewCollector()

	oracleClient := oraclememory.NewClient()
	store := artifactmemory.NewStore()

	pool := workers.NewPool(2, local.NewEngine(logger), metrics, logger, time.Minute)
	require.NoError(t, pool.Start())

	mgr := NewManager(
		registry.New(logger),
		oracle.NewCoordinator(oracleClient, metrics, logger, 10*time.Millisecond, 3),
		uploader.New(store, metrics, logger, 3, time.Millisecond),
		pool,
		eventmemory.NewInMemoryEventBus(),
		metrics,
		logger,
		Config{
			CheckInterval:        25 * time.Millisecond,
			AttemptTimeout:       20 * time.Millisecond,
			SweepInterval:        time.Hour,
			SessionTTL:           time.Hour,
			EstimatedWaitSeconds: 60,
		},
	)
	mgr.Start()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = mgr.Shutdown(ctx)
		_ = pool.Shutdown(ctx)
	})

	return &testHarness{manager: mgr, oracle: oracleClient, store: store}
}

// waitForStatus polls until the session reaches want or the deadline passes.
func waitForStatus(t *testing.T, mgr *Manager, sessionID string, want domain.Status) *domain.SessionStatus {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status, err := mgr.Status(sessionID)
		require.NoError(t, err)
		if status.Status == want {
			return status
		}
		if status.Status.Terminal() && status.Status != want {
			t.Fatalf("session reached %s (cause: %s), wanted %s", status.Status, status.FailureCause, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session did not reach %s in time", want)
	return nil
}

func TestInitiateToReady(t *testing.T) {
	h := newHarness(t)
	h.oracle.AutoFulfill(30 * time.Millisecond)

	initiation, err := h.manager.Initiate(context.Background(), 4, 7)
	require.NoError(t, err)

	assert.NotEmpty(t, initiation.SessionID)
	assert.Equal(t, domain.StatusRequesting, initiation.Status)
	assert.Equal(t, 60, initiation.EstimatedWaitSeconds)

	waitForStatus(t, h.manager, initiation.SessionID, domain.StatusReady)

	result, err := h.manager.Result(initiation.SessionID)
	require.NoError(t, err)

	require.Len(t, result.Game.PlayerHands, 4)
	for _, hand := range result.Game.PlayerHands {
		assert.Len(t, hand, 7)
	}
	assert.Len(t, result.Game.DrawPile, domain.DeckSize-4*7)
	assert.Empty(t, result.Game.DiscardPile)
	assert.True(t, result.Game.IsShuffled)
	assert.False(t, result.Game.Seed.Value.IsZero())
	assert.NotEmpty(t, result.ArtifactRef)

	// The artifact was actually archived.
	payload, ok := h.store.Get(result.ArtifactRef)
	require.True(t, ok)
	assert.Contains(t, string(payload), initiation.SessionID)
}

func TestInitiateValidatesParams(t *testing.T) {
	h := newHarness(t)

	_, err := h.manager.Initiate(context.Background(), 0, 7)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = h.manager.Initiate(context.Background(), 9, 12)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestFailedSubmissionFailsSession(t *testing.T) {
	h := newHarness(t)
	h.oracle.FailSubmit(errors.New("rpc refused"))

	initiation, err := h.manager.Initiate(context.Background(), 2, 5)
	require.NoError(t, err)

	status := waitForStatus(t, h.manager, initiation.SessionID, domain.StatusFailed)
	assert.Contains(t, status.FailureCause, "oracle unavailable")

	_, err = h.manager.Result(initiation.SessionID)
	assert.ErrorIs(t, err, domain.ErrGameNotReady)
}

func TestSessionStaysAwaitingAcrossTimeouts(t *testing.T) {
	h := newHarness(t)

	initiation, err := h.manager.Initiate(context.Background(), 2, 5)
	require.NoError(t, err)

	waitForStatus(t, h.manager, initiation.SessionID, domain.StatusAwaitingRandomness)

	// Several scheduler ticks pass with no fulfillment; the session must
	// not fail, just keep waiting.
	time.Sleep(100 * time.Millisecond)
	status, err := h.manager.Status(initiation.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingRandomness, status.Status)

	// A late fulfillment still completes it.
	require.NotNil(t, status.RequestID)
	h.oracle.Fulfill(*status.RequestID, domain.WordFromUint64(1234))
	waitForStatus(t, h.manager, initiation.SessionID, domain.StatusReady)
}

func TestStatusUnknownSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.manager.Status("no-such-id")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestGameplayOnReadySession(t *testing.T) {
	h := newHarness(t)
	h.oracle.AutoFulfill(10 * time.Millisecond)

	initiation, err := h.manager.Initiate(context.Background(), 2, 5)
	require.NoError(t, err)
	waitForStatus(t, h.manager, initiation.SessionID, domain.StatusReady)

	card, state, err := h.manager.DrawCard(initiation.SessionID, 0)
	require.NoError(t, err)
	assert.Len(t, state.PlayerHands[0], 6)
	assert.Contains(t, state.PlayerHands[0], card)

	played, state, err := h.manager.PlayCard(initiation.SessionID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint8{played}, state.DiscardPile)
	assert.Len(t, state.PlayerHands[0], 5)

	drawn, state, err := h.manager.DrawCards(initiation.SessionID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, drawn, 2)
	assert.Len(t, state.PlayerHands[1], 7)

	hand, err := h.manager.Hand(initiation.SessionID, 1)
	require.NoError(t, err)
	assert.Len(t, hand, 7)
}

func TestGameplayRejectedBeforeReady(t *testing.T) {
	h := newHarness(t)

	initiation, err := h.manager.Initiate(context.Background(), 2, 5)
	require.NoError(t, err)

	_, _, err = h.manager.DrawCard(initiation.SessionID, 0)
	assert.ErrorIs(t, err, domain.ErrGameNotReady)
}

// stallingOracle accepts requests but parks every fulfillment attempt inside
// QueryLogs until the context dies, counting how many attempts run at once.
type stallingOracle struct {
	mu          sync.Mutex
	attempts    int
	inFlight    int
	maxInFlight int
}

func (o *stallingOracle) SubmitRequest(ctx context.Context) (domain.Word, uint64, error) {
	return domain.WordFromUint64(1), 1, nil
}

func (o *stallingOracle) QueryLogs(ctx context.Context, requestID domain.Word, fromBlock uint64) ([]ports.FulfillmentEvent, error) {
	o.mu.Lock()
	o.attempts++
	o.inFlight++
	if o.inFlight > o.maxInFlight {
		o.maxInFlight = o.inFlight
	}
	o.mu.Unlock()

	<-ctx.Done()

	o.mu.Lock()
	o.inFlight--
	o.mu.Unlock()
	return nil, ctx.Err()
}

func (o *stallingOracle) SubscribeFulfillment(ctx context.Context, requestID domain.Word, fromBlock uint64) (<-chan ports.FulfillmentEvent, <-chan error, error) {
	return nil, nil, errors.New("no subscriptions")
}

func (o *stallingOracle) PollValue(ctx context.Context, requestID domain.Word) (domain.Word, error) {
	return domain.Word{}, nil
}

func (o *stallingOracle) stats() (attempts, maxInFlight int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempts, o.maxInFlight
}

func TestOverlappingTicksLaunchSingleAttempt(t *testing.T) {
	logger := zap.NewNop()
	metrics := noop.NewCollector()

	client := &stallingOracle{}
	pool := workers.NewPool(1, local.NewEngine(logger), metrics, logger, time.Minute)
	require.NoError(t, pool.Start())

	// The attempt window spans many ticks, so without the per-session
	// in-flight marker every tick would stack another attempt.
	mgr := NewManager(
		registry.New(logger),
		oracle.NewCoordinator(client, metrics, logger, 10*time.Millisecond, 3),
		uploader.New(artifactmemory.NewStore(), metrics, logger, 3, time.Millisecond),
		pool,
		eventmemory.NewInMemoryEventBus(),
		metrics,
		logger,
		Config{
			CheckInterval:        10 * time.Millisecond,
			AttemptTimeout:       300 * time.Millisecond,
			SweepInterval:        time.Hour,
			SessionTTL:           time.Hour,
			EstimatedWaitSeconds: 60,
		},
	)
	mgr.Start()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = mgr.Shutdown(ctx)
		_ = pool.Shutdown(ctx)
	})

	initiation, err := mgr.Initiate(context.Background(), 2, 5)
	require.NoError(t, err)
	waitForStatus(t, mgr, initiation.SessionID, domain.StatusAwaitingRandomness)

	// Let a dozen or so ticks fire while the first attempt is still parked.
	time.Sleep(150 * time.Millisecond)

	attempts, maxInFlight := client.stats()
	assert.Equal(t, 1, attempts, "overlapping ticks must not launch new attempts")
	assert.Equal(t, 1, maxInFlight)

	status, err := mgr.Status(initiation.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingRandomness, status.Status)
}

func TestIdenticalSeedsYieldIdenticalDeals(t *testing.T) {
	h := newHarness(t)

	// Two sessions fulfilled with the same random word deal identically.
	var results [2]*domain.GameResult
	for i := range results {
		initiation, err := h.manager.Initiate(context.Background(), 3, 6)
		require.NoError(t, err)

		status := waitForStatus(t, h.manager, initiation.SessionID, domain.StatusAwaitingRandomness)
		require.NotNil(t, status.RequestID)
		h.oracle.Fulfill(*status.RequestID, domain.WordFromUint64(0xabcdef))
		waitForStatus(t, h.manager, initiation.SessionID, domain.StatusReady)

		results[i], err = h.manager.Result(initiation.SessionID)
		require.NoError(t, err)
	}

	assert.Equal(t, results[0].Game.PlayerHands, results[1].Game.PlayerHands)
	assert.Equal(t, results[0].Game.DrawPile, results[1].Game.DrawPile)
}
