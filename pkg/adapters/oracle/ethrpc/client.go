// Package ethrpc implements the oracle client against an Ethereum-style
// JSON-RPC endpoint. Requests and polls go over HTTP; live fulfillment
// notifications use a websocket log subscription.
package ethrpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"github.com/aescanero/fairdeal/pkg/domain"
)

// ABI selectors and event topics, derived from the consumer contract
// signatures at package init.
var (
	selectorRequestRandomWords = methodSelector("requestRandomWords()")
	selectorGetRandomWords     = methodSelector("getRandomWords(uint256)")
	topicRequestFulfilled      = eventTopic("RequestFulfilled(uint256,uint256)")
)

func methodSelector(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

func eventTopic(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Config holds the connection parameters for the oracle endpoint.
type Config struct {
	RPCURL          string
	WSURL           string
	ContractAddress string
	RequestTimeout  time.Duration
}

// Client talks JSON-RPC to the VRF consumer contract.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	callID     atomic.Uint64
}

// NewClient validates the configuration and creates a client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, &domain.ConfigError{Reason: "oracle RPC URL is required"}
	}
	if cfg.ContractAddress == "" {
		return nil, &domain.ConfigError{Reason: "oracle contract address is required"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call performs a single JSON-RPC request over HTTP.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.callID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Transient(fmt.Errorf("%s: %w", method, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Transient(fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return domain.Transient(fmt.Errorf("decode %s response: %w", method, err))
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// ethCall runs a read-only contract call and returns the raw hex result.
func (c *Client) ethCall(ctx context.Context, data string) (string, error) {
	params := []any{
		map[string]string{"to": c.cfg.ContractAddress, "data": data},
		"latest",
	}
	var out string
	if err := c.call(ctx, "eth_call", params, &out); err != nil {
		return "", err
	}
	return out, nil
}

// parseWord decodes a 0x-prefixed hex result into a Word. An empty result
// ("0x") decodes to zero.
func parseWord(raw string) (domain.Word, error) {
	trimmed := strings.TrimPrefix(raw, "0x")
	if trimmed == "" {
		return domain.Word{}, nil
	}
	return domain.WordFromHex(raw)
}

// parseQuantity decodes a 0x-prefixed hex quantity into a uint64.
func parseQuantity(raw string) (uint64, error) {
	w, err := parseWord(raw)
	if err != nil {
		return 0, err
	}
	return w.Big().Uint64(), nil
}

// SubmitRequest invokes requestRandomWords on the contract and records the
// block at which the request was made.
func (c *Client) SubmitRequest(ctx context.Context) (domain.Word, uint64, error) {
	raw, err := c.ethCall(ctx, selectorRequestRandomWords)
	if err != nil {
		return domain.Word{}, 0, fmt.Errorf("submit randomness request: %w", err)
	}
	requestID, err := parseWord(raw)
	if err != nil {
		return domain.Word{}, 0, fmt.Errorf("parse request id: %w", err)
	}

	var blockHex string
	if err := c.call(ctx, "eth_blockNumber", []any{}, &blockHex); err != nil {
		return domain.Word{}, 0, fmt.Errorf("fetch block number: %w", err)
	}
	blockNumber, err := parseQuantity(blockHex)
	if err != nil {
		return domain.Word{}, 0, fmt.Errorf("parse block number: %w", err)
	}

	c.logger.Info("randomness request submitted",
		zap.String("request_id", requestID.Hex()),
		zap.Uint64("block", blockNumber))

	return requestID, blockNumber, nil
}

// PollValue reads the fulfilled random word for a request. A zero word means
// the oracle has not answered yet.
func (c *Client) PollValue(ctx context.Context, requestID domain.Word) (domain.Word, error) {
	data := selectorGetRandomWords + hex.EncodeToString(word32(requestID))
	raw, err := c.ethCall(ctx, data)
	if err != nil {
		return domain.Word{}, fmt.Errorf("poll random word: %w", err)
	}
	value, err := parseWord(raw)
	if err != nil {
		return domain.Word{}, fmt.Errorf("parse random word: %w", err)
	}
	return value, nil
}

func word32(w domain.Word) []byte {
	b := w.Bytes32()
	return b[:]
}
