package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/adapters/metrics/noop"
	"github.com/aescanero/fairdeal/pkg/domain"
)

// stubEngine returns a canned artifact or error.
type stubEngine struct {
	mu    sync.Mutex
	err   error
	delay time.Duration
	calls int
}

func (e *stubEngine) Compute(ctx context.Context, numPlayers, cardsPerPlayer uint8, seed [32]byte) (*domain.ProofArtifact, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return &domain.ProofArtifact{
		ImageID: "stub",
		Proof:   "proof",
		PublicValues: domain.PublicValues{
			NumPlayers:     numPlayers,
			CardsPerPlayer: cardsPerPlayer,
		},
	}, nil
}

func startPool(t *testing.T, engine *stubEngine, size int) *Pool {
	t.Helper()

	pool := NewPool(size, engine, noop.NewCollector(), zap.NewNop(), time.Minute)
	require.NoError(t, pool.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})
	return pool
}

func TestComputeDelegatesToEngine(t *testing.T) {
	engine := &stubEngine{}
	pool := startPool(t, engine, 2)

	artifact, err := pool.Compute(context.Background(), ProofJob{
		SessionID:      "s1",
		NumPlayers:     4,
		CardsPerPlayer: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, "stub", artifact.ImageID)
	assert.Equal(t, uint8(4), artifact.PublicValues.NumPlayers)
	assert.Equal(t, 1, engine.calls)
}

func TestComputePropagatesEngineError(t *testing.T) {
	engine := &stubEngine{err: errors.New("prover crashed")}
	pool := startPool(t, engine, 1)

	_, err := pool.Compute(context.Background(), ProofJob{SessionID: "s1", NumPlayers: 2, CardsPerPlayer: 5})
	assert.Error(t, err)
}

func TestComputeConcurrentJobs(t *testing.T) {
	engine := &stubEngine{delay: 20 * time.Millisecond}
	pool := startPool(t, engine, 4)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Compute(context.Background(), ProofJob{SessionID: "s", NumPlayers: 2, CardsPerPlayer: 5})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 8, engine.calls)
}

func TestComputeHonorsCallerContext(t *testing.T) {
	engine := &stubEngine{delay: time.Second}
	pool := startPool(t, engine, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := pool.Compute(ctx, ProofJob{SessionID: "s1", NumPlayers: 2, CardsPerPlayer: 5})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestComputeAfterShutdown(t *testing.T) {
	engine := &stubEngine{}
	pool := NewPool(1, engine, noop.NewCollector(), zap.NewNop(), time.Minute)
	require.NoError(t, pool.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	_, err := pool.Compute(context.Background(), ProofJob{SessionID: "s1", NumPlayers: 2, CardsPerPlayer: 5})
	assert.Error(t, err)
}

func TestHealthStatus(t *testing.T) {
	engine := &stubEngine{}
	pool := startPool(t, engine, 3)

	status := pool.health.GetStatus()
	assert.Equal(t, 3, status.TotalWorkers)
	assert.Equal(t, 3, status.IdleWorkers)
	assert.True(t, status.Healthy)
}
