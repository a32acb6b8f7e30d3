package memory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

// Client is an in-memory oracle for development and testing. Request ids
// are assigned sequentially; fulfillments can be seeded as historical logs,
// delivered manually, or scheduled automatically after a delay.
type Client struct {
	mu            sync.Mutex
	nextRequestID uint64
	blockNumber   uint64
	logs          []ports.FulfillmentEvent
	values        map[string]domain.Word
	subscribers   map[string][]chan ports.FulfillmentEvent

	submitErr    error
	subscribeErr error
	autoFulfill  time.Duration
}

// NewClient creates an empty in-memory oracle.
func NewClient() *Client {
	return &Client{
		blockNumber: 1,
		values:      make(map[string]domain.Word),
		subscribers: make(map[string][]chan ports.FulfillmentEvent),
	}
}

// FailSubmit makes every SubmitRequest fail with err until reset with nil.
func (c *Client) FailSubmit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErr = err
}

// FailSubscriptions makes every SubscribeFulfillment fail with err until
// reset with nil.
func (c *Client) FailSubscriptions(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribeErr = err
}

// AutoFulfill makes every submitted request fulfill itself after the given
// delay with a value derived from the request id. Used in development mode
// where no real oracle is reachable.
func (c *Client) AutoFulfill(after time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoFulfill = after
}

// SeedLog records a historical fulfillment event without notifying
// subscribers, emulating a fulfillment that landed before anyone watched.
func (c *Client) SeedLog(requestID domain.Word, blockNumber uint64, value domain.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, ports.FulfillmentEvent{
		RequestID:   requestID,
		Value:       value,
		BlockNumber: blockNumber,
	})
}

// Fulfill answers a request: the value becomes pollable, a log record is
// appended, and live subscribers are notified.
func (c *Client) Fulfill(requestID domain.Word, value domain.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blockNumber++
	c.values[requestID.Hex()] = value
	c.logs = append(c.logs, ports.FulfillmentEvent{
		RequestID:   requestID,
		Value:       value,
		BlockNumber: c.blockNumber,
	})

	for _, ch := range c.subscribers[requestID.Hex()] {
		select {
		case ch <- ports.FulfillmentEvent{RequestID: requestID, Value: value, BlockNumber: c.blockNumber}:
		default:
		}
	}
}

// SubmitRequest assigns the next request id at the current block.
func (c *Client) SubmitRequest(ctx context.Context) (domain.Word, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitErr != nil {
		return domain.Word{}, 0, c.submitErr
	}

	c.nextRequestID++
	c.blockNumber++
	requestID := domain.WordFromUint64(c.nextRequestID)

	if c.autoFulfill > 0 {
		value := deriveValue(requestID)
		time.AfterFunc(c.autoFulfill, func() {
			c.Fulfill(requestID, value)
		})
	}

	return requestID, c.blockNumber, nil
}

// QueryLogs returns recorded fulfillments for the request id from the given
// block onward.
func (c *Client) QueryLogs(ctx context.Context, requestID domain.Word, fromBlock uint64) ([]ports.FulfillmentEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []ports.FulfillmentEvent
	for _, ev := range c.logs {
		if ev.RequestID.Equal(requestID) && ev.BlockNumber >= fromBlock {
			out = append(out, ev)
		}
	}
	return out, nil
}

// SubscribeFulfillment registers a live subscriber for the request id. The
// subscription is torn down when ctx is cancelled.
func (c *Client) SubscribeFulfillment(ctx context.Context, requestID domain.Word, fromBlock uint64) (<-chan ports.FulfillmentEvent, <-chan error, error) {
	c.mu.Lock()
	if c.subscribeErr != nil {
		err := c.subscribeErr
		c.mu.Unlock()
		return nil, nil, err
	}

	key := requestID.Hex()
	events := make(chan ports.FulfillmentEvent, 4)
	errs := make(chan error, 1)
	c.subscribers[key] = append(c.subscribers[key], events)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		subs := c.subscribers[key]
		for i, ch := range subs {
			if ch == events {
				c.subscribers[key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}()

	return events, errs, nil
}

// PollValue returns the fulfilled value for a request, or the zero sentinel.
func (c *Client) PollValue(ctx context.Context, requestID domain.Word) (domain.Word, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[requestID.Hex()], nil
}

// deriveValue produces a stable non-zero pseudo-random word for a request.
func deriveValue(requestID domain.Word) domain.Word {
	sum := sha256.Sum256([]byte(fmt.Sprintf("fairdeal-dev-%s", requestID.Hex())))
	value := domain.WordFromBytes(sum[:])
	if value.IsZero() {
		value = domain.WordFromUint64(1)
	}
	return value
}
