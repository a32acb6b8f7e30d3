// Package memory implements a content-addressed in-memory artifact store.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Store keeps artifacts in a map keyed by content hash.
type Store struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{artifacts: make(map[string][]byte)}
}

// Put stores the payload and returns its content-addressed reference.
func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	sum := sha256.Sum256(payload)
	ref := "sha256:" + hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.artifacts[ref] = buf
	return ref, nil
}

// Get retrieves a stored artifact by reference.
func (s *Store) Get(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.artifacts[ref]
	return payload, ok
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
