// Package pinata archives proof artifacts on IPFS through the Pinata
// pinning service.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
)

const defaultBaseURL = "https://api.pinata.cloud"

// Config holds the Pinata credentials and endpoint.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

// Store pins JSON artifacts to IPFS and returns their content hashes.
type Store struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewStore validates credentials and creates a Pinata-backed store.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, &domain.ConfigError{Reason: "pinata API key and secret are required"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Store{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

type pinRequest struct {
	PinataContent json.RawMessage `json:"pinataContent"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Put pins the JSON payload and returns its IPFS hash. Authentication
// failures surface as configuration errors so callers do not retry them;
// provider-side and network failures are marked transient.
func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	body, err := json.Marshal(pinRequest{PinataContent: payload})
	if err != nil {
		return "", fmt.Errorf("marshal pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("pinata_api_key", s.cfg.APIKey)
	req.Header.Set("pinata_secret_api_key", s.cfg.APISecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", domain.Transient(fmt.Errorf("pinata request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &domain.ConfigError{Reason: fmt.Sprintf("pinata rejected credentials (status %d)", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", domain.Transient(fmt.Errorf("pinata unavailable (status %d)", resp.StatusCode))
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pinata rejected pin (status %d): %s", resp.StatusCode, detail)
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", domain.Transient(fmt.Errorf("decode pinata response: %w", err))
	}
	if pinned.IpfsHash == "" {
		return "", domain.Transient(fmt.Errorf("pinata returned empty hash"))
	}

	s.logger.Info("artifact pinned to IPFS",
		zap.String("ipfs_hash", pinned.IpfsHash),
		zap.Int64("pin_size", pinned.PinSize))

	return pinned.IpfsHash, nil
}
