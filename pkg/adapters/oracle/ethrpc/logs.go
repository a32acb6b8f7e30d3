package ethrpc

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

// logEntry is the JSON-RPC shape of an emitted contract log.
type logEntry struct {
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	Removed     bool     `json:"removed"`
}

// QueryLogs fetches RequestFulfilled events for the given request id from
// fromBlock onward, catching fulfillments that landed before any watcher
// was attached.
func (c *Client) QueryLogs(ctx context.Context, requestID domain.Word, fromBlock uint64) ([]ports.FulfillmentEvent, error) {
	filter := map[string]any{
		"address":   c.cfg.ContractAddress,
		"fromBlock": fmt.Sprintf("0x%x", fromBlock),
		"toBlock":   "latest",
		"topics":    []any{topicRequestFulfilled, requestID.Hex32()},
	}

	var entries []logEntry
	if err := c.call(ctx, "eth_getLogs", []any{filter}, &entries); err != nil {
		return nil, fmt.Errorf("query fulfillment logs: %w", err)
	}

	events := make([]ports.FulfillmentEvent, 0, len(entries))
	for _, entry := range entries {
		if entry.Removed {
			continue
		}
		ev, err := decodeFulfillment(entry)
		if err != nil {
			c.logger.Warn("skipping undecodable fulfillment log",
				zap.Error(err),
				zap.String("request_id", requestID.Hex()))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// decodeFulfillment extracts the request id and random word from a
// RequestFulfilled log. The request id is the first indexed topic, the
// value lives in the data field.
func decodeFulfillment(entry logEntry) (ports.FulfillmentEvent, error) {
	if len(entry.Topics) < 2 {
		return ports.FulfillmentEvent{}, fmt.Errorf("expected 2 topics, got %d", len(entry.Topics))
	}
	requestID, err := parseWord(entry.Topics[1])
	if err != nil {
		return ports.FulfillmentEvent{}, fmt.Errorf("parse request id topic: %w", err)
	}
	value, err := parseWord(entry.Data)
	if err != nil {
		return ports.FulfillmentEvent{}, fmt.Errorf("parse value data: %w", err)
	}
	blockNumber, err := parseQuantity(entry.BlockNumber)
	if err != nil {
		return ports.FulfillmentEvent{}, fmt.Errorf("parse block number: %w", err)
	}
	return ports.FulfillmentEvent{
		RequestID:   requestID,
		Value:       value,
		BlockNumber: blockNumber,
	}, nil
}
