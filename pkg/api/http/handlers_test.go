package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/internal/application/oracle"
	"github.com/aescanero/fairdeal/internal/application/orchestrator"
	"github.com/aescanero/fairdeal/internal/application/uploader"
	"github.com/aescanero/fairdeal/internal/application/workers"
	"github.com/aescanero/fairdeal/internal/registry"
	artifactmemory "github.com/aescanero/fairdeal/pkg/adapters/artifacts/memory"
	eventmemory "github.com/aescanero/fairdeal/pkg/adapters/events/memory"
	"github.com/aescanero/fairdeal/pkg/adapters/metrics/noop"
	oraclememory "github.com/aescanero/fairdeal/pkg/adapters/oracle/memory"
	"github.com/aescanero/fairdeal/pkg/adapters/proof/local"
	"github.com/aescanero/fairdeal/pkg/domain"
)

// newTestServer builds a server over an in-memory stack. A zero fulfillDelay
// leaves oracle requests unanswered forever.
func newTestServer(t *testing.T, fulfillDelay time.Duration) *Server {
	t.Helper()

	logger := zap.NewNop()
	metrics := noop.NewCollector()

	oracleClient := oraclememory.NewClient()
	if fulfillDelay > 0 {
		oracleClient.AutoFulfill(fulfillDelay)
	}

	pool := workers.NewPool(2, local.NewEngine(logger), metrics, logger, time.Minute)
	require.NoError(t, pool.Start())

	mgr := orchestrator.NewManager(
		registry.New(logger),
		oracle.NewCoordinator(oracleClient, metrics, logger, 10*time.Millisecond, 3),
		uploader.New(artifactmemory.NewStore(), metrics, logger, 3, time.Millisecond),
		pool,
		eventmemory.NewInMemoryEventBus(),
		metrics,
		logger,
		orchestrator.Config{
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

	return NewServer(&Config{Port: 0, Orchestrator: mgr, Logger: logger})
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

// startReadyGame starts a session and waits for it to become ready.
func startReadyGame(t *testing.T, server *Server) string {
	t.Helper()

	rec := doJSON(t, server, http.MethodPost, "/api/v1/games", StartGameRequest{NumPlayers: 2, CardsPerPlayer: 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	var initiation domain.SessionInitiation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initiation))
	require.NotEmpty(t, initiation.SessionID)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status := doJSON(t, server, http.MethodGet, "/api/v1/games/"+initiation.SessionID+"/status", nil)
		require.Equal(t, http.StatusOK, status.Code)

		var parsed domain.SessionStatus
		require.NoError(t, json.Unmarshal(status.Body.Bytes(), &parsed))
		if parsed.Status == domain.StatusReady {
			return initiation.SessionID
		}
		require.NotEqual(t, domain.StatusFailed, parsed.Status, "session failed: %s", parsed.FailureCause)
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session never became ready")
	return ""
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestStartGame(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/games", StartGameRequest{NumPlayers: 4, CardsPerPlayer: 7})
	require.Equal(t, http.StatusCreated, rec.Code)

	var initiation domain.SessionInitiation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initiation))
	assert.Equal(t, domain.StatusRequesting, initiation.Status)
	assert.Equal(t, 60, initiation.EstimatedWaitSeconds)
}

func TestStartGameInvalidParams(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/games", StartGameRequest{NumPlayers: 11, CardsPerPlayer: 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PARAMETERS")
}

func TestStartGameMalformedBody(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
}

func TestStatusUnknownSession(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/games/unknown/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestResultBeforeReady(t *testing.T) {
	// The oracle never answers, so the session stays pending.
	server := newTestServer(t, 0)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/games", StartGameRequest{NumPlayers: 2, CardsPerPlayer: 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	var initiation domain.SessionInitiation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initiation))

	result := doJSON(t, server, http.MethodGet, "/api/v1/games/"+initiation.SessionID+"/result", nil)
	assert.Equal(t, http.StatusConflict, result.Code)
	assert.Contains(t, result.Body.String(), "NOT_READY")
}

func TestResultAndProofWhenReady(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)
	sessionID := startReadyGame(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/games/"+sessionID+"/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.GameResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Game.PlayerHands, 2)
	assert.NotEmpty(t, result.ArtifactRef)

	proof := doJSON(t, server, http.MethodGet, "/api/v1/games/"+sessionID+"/proof", nil)
	require.Equal(t, http.StatusOK, proof.Code)
	assert.Contains(t, proof.Body.String(), result.ArtifactRef)
}

func TestGameplayEndpoints(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)
	sessionID := startReadyGame(t, server)

	draw := doJSON(t, server, http.MethodPost, "/api/v1/games/"+sessionID+"/draw", DrawRequest{Player: 0})
	require.Equal(t, http.StatusOK, draw.Code)
	assert.Contains(t, draw.Body.String(), "card_name")

	multi := doJSON(t, server, http.MethodPost, "/api/v1/games/"+sessionID+"/draw-multiple", DrawMultipleRequest{Player: 1, Count: 2})
	require.Equal(t, http.StatusOK, multi.Code)

	play := doJSON(t, server, http.MethodPost, "/api/v1/games/"+sessionID+"/play", PlayRequest{Player: 0, CardIndex: 0})
	require.Equal(t, http.StatusOK, play.Code)

	hand := doJSON(t, server, http.MethodGet, "/api/v1/games/"+sessionID+"/hands/1", nil)
	require.Equal(t, http.StatusOK, hand.Code)
	assert.Contains(t, hand.Body.String(), "hand_named")
}

func TestGameplayInvalidPlayer(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)
	sessionID := startReadyGame(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/games/"+sessionID+"/draw", DrawRequest{Player: 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PARAMETERS")
}

func TestHandBadPlayerParam(t *testing.T) {
	server := newTestServer(t, 10*time.Millisecond)
	sessionID := startReadyGame(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/games/"+sessionID+"/hands/zebra", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
