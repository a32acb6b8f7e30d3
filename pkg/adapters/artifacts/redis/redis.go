// Package redis implements a content-addressed artifact store on Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aescanero/fairdeal/pkg/domain"
)

const keyPrefix = "fairdeal:artifact:"

// Store archives artifacts in Redis keyed by content hash. Archived proofs
// are evidence, so they carry no expiry unless one is configured.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed artifact store. A zero ttl keeps
// artifacts forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Put stores the payload under its content hash and returns the reference.
func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	sum := sha256.Sum256(payload)
	digest := hex.EncodeToString(sum[:])

	if err := s.client.Set(ctx, keyPrefix+digest, payload, s.ttl).Err(); err != nil {
		return "", domain.Transient(fmt.Errorf("store artifact: %w", err))
	}
	return "sha256:" + digest, nil
}

// Get retrieves an artifact by its "sha256:<hex>" reference.
func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	const scheme = "sha256:"
	if len(ref) <= len(scheme) || ref[:len(scheme)] != scheme {
		return nil, fmt.Errorf("malformed artifact reference: %q", ref)
	}

	payload, err := s.client.Get(ctx, keyPrefix+ref[len(scheme):]).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("artifact %s not found", ref)
	}
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("fetch artifact: %w", err))
	}
	return payload, nil
}

// Ping verifies connectivity to Redis.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
