package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

// ProofJob describes one proof computation.
type ProofJob struct {
	SessionID      string
	NumPlayers     uint8
	CardsPerPlayer uint8
	Seed           [32]byte
}

type proofResult struct {
	artifact *domain.ProofArtifact
	err      error
}

type job struct {
	ProofJob
	result chan proofResult
}

// Pool manages a pool of proof worker goroutines.
type Pool struct {
	size    int
	engine  ports.ProofEngine
	metrics ports.MetricsCollector
	logger  *zap.Logger
	health  *HealthMonitor

	jobs    chan job
	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// worker represents a single worker goroutine.
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a proof worker pool of the given size.
func NewPool(
	size int,
	engine ports.ProofEngine,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	healthCheckInterval time.Duration,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		size:    size,
		engine:  engine,
		metrics: metrics,
		logger:  logger,
		jobs:    make(chan job, size),
		workers: make([]*worker, size),
		ctx:     ctx,
		cancel:  cancel,
	}

	pool.health = NewHealthMonitor(pool, healthCheckInterval, logger)

	return pool
}

// Start starts the worker pool.
func (p *Pool) Start() error {
	p.logger.Info("starting proof worker pool", zap.Int("size", p.size))

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("prover-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(p.ctx)
	}

	p.health.Start()

	p.logger.Info("proof worker pool started", zap.Int("workers", p.size))
	return nil
}

// Shutdown gracefully shuts down the worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down proof worker pool")

	p.health.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("proof worker pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// Compute dispatches a proof job to the pool and waits for its result.
// The caller's context bounds both queueing and the wait for completion.
func (p *Pool) Compute(ctx context.Context, j ProofJob) (*domain.ProofArtifact, error) {
	// The jobs channel is buffered, so an enqueue could otherwise succeed
	// against a pool with no workers left to drain it.
	if p.ctx.Err() != nil {
		return nil, fmt.Errorf("proof worker pool stopped")
	}

	result := make(chan proofResult, 1)

	select {
	case p.jobs <- job{ProofJob: j, result: result}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, fmt.Errorf("proof worker pool stopped")
	}

	select {
	case res := <-result:
		return res.artifact, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetStatus returns the status of all workers.
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus)
	for _, w := range p.workers {
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// run is the main worker loop.
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	w.pool.logger.Info("proof worker started", zap.String("worker_id", w.id))

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.status = WorkerStatusStopped
			w.mu.Unlock()
			w.pool.logger.Info("proof worker stopped", zap.String("worker_id", w.id))
			return
		case j := <-w.pool.jobs:
			w.handleJob(ctx, j)
		}
	}
}

// handleJob runs one proof computation and delivers its result.
func (w *worker) handleJob(ctx context.Context, j job) {
	w.mu.Lock()
	w.status = WorkerStatusBusy
	w.lastJob = time.Now()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.status = WorkerStatusIdle
		w.mu.Unlock()
	}()

	w.pool.logger.Info("computing proof",
		zap.String("worker_id", w.id),
		zap.String("session_id", j.SessionID))

	start := time.Now()
	artifact, err := w.pool.engine.Compute(ctx, j.NumPlayers, j.CardsPerPlayer, j.Seed)
	duration := time.Since(start)

	if err != nil {
		w.pool.metrics.RecordProofComputed("failed", duration)
		w.pool.logger.Error("proof computation failed",
			zap.String("worker_id", w.id),
			zap.String("session_id", j.SessionID),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		w.pool.metrics.RecordProofComputed("success", duration)
		w.pool.logger.Info("proof computed",
			zap.String("worker_id", w.id),
			zap.String("session_id", j.SessionID),
			zap.Duration("duration", duration))
	}

	j.result <- proofResult{artifact: artifact, err: err}
}
