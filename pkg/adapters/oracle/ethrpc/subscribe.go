package ethrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
	"github.com/aescanero/fairdeal/pkg/ports"
)

// subscriptionNotice is the eth_subscription push message shape.
type subscriptionNotice struct {
	Method string `json:"method"`
	Params struct {
		Subscription string   `json:"subscription"`
		Result       logEntry `json:"result"`
	} `json:"params"`
}

// SubscribeFulfillment opens a websocket log subscription filtered to
// RequestFulfilled events for the given request id. The subscription lives
// until ctx is cancelled or the connection drops; either way the event
// channel is closed and a final error may be delivered on the error channel.
func (c *Client) SubscribeFulfillment(ctx context.Context, requestID domain.Word, fromBlock uint64) (<-chan ports.FulfillmentEvent, <-chan error, error) {
	if c.cfg.WSURL == "" {
		return nil, nil, &domain.ConfigError{Reason: "oracle websocket URL is required for subscriptions"}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.WSURL, nil)
	if err != nil {
		return nil, nil, domain.Transient(fmt.Errorf("dial oracle websocket: %w", err))
	}

	subReq := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.callID.Add(1),
		Method:  "eth_subscribe",
		Params: []any{
			"logs",
			map[string]any{
				"address": c.cfg.ContractAddress,
				"topics":  []any{topicRequestFulfilled, requestID.Hex32()},
			},
		},
	}
	if err := conn.WriteJSON(subReq); err != nil {
		conn.Close()
		return nil, nil, domain.Transient(fmt.Errorf("send subscription request: %w", err))
	}

	var subResp rpcResponse
	if err := conn.ReadJSON(&subResp); err != nil {
		conn.Close()
		return nil, nil, domain.Transient(fmt.Errorf("read subscription ack: %w", err))
	}
	if subResp.Error != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("subscription rejected: %w", subResp.Error)
	}

	events := make(chan ports.FulfillmentEvent, 4)
	errs := make(chan error, 1)

	// Closing the connection on ctx cancellation unblocks the reader.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(events)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- domain.Transient(fmt.Errorf("oracle websocket read: %w", err))
				}
				return
			}

			var notice subscriptionNotice
			if err := json.Unmarshal(payload, &notice); err != nil || notice.Method != "eth_subscription" {
				continue
			}
			ev, err := decodeFulfillment(notice.Params.Result)
			if err != nil {
				c.logger.Warn("skipping undecodable subscription event",
					zap.Error(err),
					zap.String("request_id", requestID.Hex()))
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs, nil
}
