package uploader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

// Uploader archives proof artifacts through an ArtifactStore with retry.
type Uploader struct {
	store   ports.ArtifactStore
	metrics ports.MetricsCollector
	logger  *zap.Logger

	maxRetries int
	retryDelay time.Duration
}

// New creates an uploader. maxRetries counts retries after the first
// attempt; retryDelay is the fixed pause between attempts.
func New(store ports.ArtifactStore, metrics ports.MetricsCollector, logger *zap.Logger, maxRetries int, retryDelay time.Duration) *Uploader {
	return &Uploader{
		store:      store,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Upload stores the payload and returns its content reference. Transient
// failures are retried up to the configured maximum; a configuration error
// fails immediately on the first attempt.
func (u *Uploader) Upload(ctx context.Context, payload []byte) (string, error) {
	var lastErr error

	attempts := 0
	for attempt := 0; attempt <= u.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(u.retryDelay):
			}
		}

		attempts++
		ref, err := u.store.Put(ctx, payload)
		if err == nil {
			u.metrics.RecordUploadAttempts(attempts, "success")
			u.logger.Info("artifact uploaded",
				zap.String("ref", ref),
				zap.Int("attempts", attempts),
				zap.Int("bytes", len(payload)))
			return ref, nil
		}

		lastErr = err
		if domain.IsConfig(err) {
			u.metrics.RecordUploadAttempts(attempts, "config_error")
			return "", err
		}

		u.logger.Warn("artifact upload attempt failed",
			zap.Int("attempt", attempts),
			zap.Duration("retry_delay", u.retryDelay),
			zap.Error(err))
	}

	u.metrics.RecordUploadAttempts(attempts, "exhausted")
	return "", fmt.Errorf("upload failed after %d attempts: %w", attempts, lastErr)
}
