package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

// Fulfillment paths reported to metrics.
const (
	pathMissedEvent  = "missed_event"
	pathSubscription = "subscription"
	pathPoll         = "poll"
)

// Coordinator obtains verifiable randomness through an OracleClient.
type Coordinator struct {
	client  ports.OracleClient
	metrics ports.MetricsCollector
	logger  *zap.Logger

	pollInterval    time.Duration
	pollMaxAttempts int
}

// NewCoordinator creates a coordinator. pollInterval and pollMaxAttempts
// bound the polling waiter of AwaitFulfillment.
func NewCoordinator(
	client ports.OracleClient,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	pollInterval time.Duration,
	pollMaxAttempts int,
) *Coordinator {
	return &Coordinator{
		client:          client,
		metrics:         metrics,
		logger:          logger,
		pollInterval:    pollInterval,
		pollMaxAttempts: pollMaxAttempts,
	}
}

// RequestRandomness submits a randomness request and returns the assigned
// request id and reference block. Submission failures surface as
// ErrOracleUnavailable; there is no local retry, the caller decides.
func (c *Coordinator) RequestRandomness(ctx context.Context) (domain.Word, uint64, error) {
	requestID, blockNumber, err := c.client.SubmitRequest(ctx)
	if err != nil {
		return domain.Word{}, 0, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}

	c.logger.Info("randomness requested",
		zap.Stringer("request_id", requestID),
		zap.Uint64("block_number", blockNumber))

	return requestID, blockNumber, nil
}

type waitResult struct {
	value domain.Word
	path  string
	err   error
}

// AwaitFulfillment retrieves the random word for a request, bounded by
// timeout:
//
//  1. A historical log query from the reference block catches fulfillments
//     that landed between submission and now.
//  2. Otherwise a live event subscription and a bounded fixed-interval poll
//     race; the first non-sentinel value wins and the loser is cancelled.
//  3. A dead subscription is not fatal while the poll can still resolve.
//
// If nothing resolves in time the call fails with ErrFulfillmentTimeout,
// which callers treat as retryable.
func (c *Coordinator) AwaitFulfillment(ctx context.Context, requestID domain.Word, fromBlock uint64, timeout time.Duration) (domain.Word, error) {
	start := time.Now()

	events, err := c.client.QueryLogs(ctx, requestID, fromBlock)
	if err != nil {
		// The live waiters below can still resolve.
		c.logger.Warn("missed-event query failed",
			zap.Stringer("request_id", requestID),
			zap.Error(err))
	}
	for _, ev := range events {
		if ev.Value.IsZero() {
			continue
		}
		c.logger.Info("found missed fulfillment event",
			zap.Stringer("request_id", requestID),
			zap.Stringer("value", ev.Value))
		c.metrics.RecordFulfillment(pathMissedEvent, time.Since(start))
		return ev.Value, nil
	}

	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan waitResult, 2)
	go c.subscribeWaiter(raceCtx, requestID, fromBlock, results)
	go c.pollWaiter(raceCtx, requestID, results)

	for failed := 0; failed < 2; {
		select {
		case <-raceCtx.Done():
			return domain.Word{}, fmt.Errorf("%w: request %s after %s",
				domain.ErrFulfillmentTimeout, requestID, timeout)
		case res := <-results:
			if res.err != nil {
				failed++
				c.logger.Debug("fulfillment waiter gave up",
					zap.Stringer("request_id", requestID),
					zap.String("path", res.path),
					zap.Error(res.err))
				continue
			}
			c.metrics.RecordFulfillment(res.path, time.Since(start))
			c.logger.Info("randomness fulfilled",
				zap.Stringer("request_id", requestID),
				zap.String("path", res.path),
				zap.Duration("waited", time.Since(start)))
			return res.value, nil
		}
	}

	// Both waiters gave up before the deadline.
	return domain.Word{}, fmt.Errorf("%w: request %s (all waiters exhausted)",
		domain.ErrFulfillmentTimeout, requestID)
}

// subscribeWaiter waits on a live event subscription and reports the first
// non-sentinel value, or the reason the subscription died.
func (c *Coordinator) subscribeWaiter(ctx context.Context, requestID domain.Word, fromBlock uint64, out chan<- waitResult) {
	events, errs, err := c.client.SubscribeFulfillment(ctx, requestID, fromBlock)
	if err != nil {
		out <- waitResult{path: pathSubscription, err: err}
		return
	}

	for {
		select {
		case <-ctx.Done():
			out <- waitResult{path: pathSubscription, err: ctx.Err()}
			return
		case subErr := <-errs:
			if subErr == nil {
				subErr = errors.New("subscription closed")
			}
			out <- waitResult{path: pathSubscription, err: subErr}
			return
		case ev, ok := <-events:
			if !ok {
				out <- waitResult{path: pathSubscription, err: errors.New("event stream ended")}
				return
			}
			if ev.Value.IsZero() {
				continue
			}
			out <- waitResult{value: ev.Value, path: pathSubscription}
			return
		}
	}
}

// pollWaiter queries the contract value at a fixed interval, up to the
// configured attempt count, treating the zero word as not-yet-answered.
func (c *Coordinator) pollWaiter(ctx context.Context, requestID domain.Word, out chan<- waitResult) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.pollMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			out <- waitResult{path: pathPoll, err: ctx.Err()}
			return
		case <-ticker.C:
			value, err := c.client.PollValue(ctx, requestID)
			if err != nil {
				c.logger.Debug("poll attempt failed",
					zap.Stringer("request_id", requestID),
					zap.Int("attempt", attempt),
					zap.Error(err))
				continue
			}
			if value.IsZero() {
				continue
			}
			out <- waitResult{value: value, path: pathPoll}
			return
		}
	}

	out <- waitResult{path: pathPoll, err: fmt.Errorf("value not available after %d poll attempts", c.pollMaxAttempts)}
}
