package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutReturnsContentAddress(t *testing.T) {
	store := NewStore()

	ref, err := store.Put(context.Background(), []byte("payload"))
	require.NoError(t, err)

	// sha256("payload")
	assert.Equal(t, "sha256:239f59ed55e737c77147cf55ad0c1b030b6d7ee748a7426952f9b852d5a935e5", ref)

	payload, ok := store.Get(ref)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), payload)
}

func TestPutIsIdempotent(t *testing.T) {
	store := NewStore()

	a, err := store.Put(context.Background(), []byte("same"))
	require.NoError(t, err)
	b, err := store.Put(context.Background(), []byte("same"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, store.Len())
}

func TestGetUnknownRef(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("sha256:unknown")
	assert.False(t, ok)
}

func TestPutCopiesPayload(t *testing.T) {
	store := NewStore()

	payload := []byte("mutable")
	ref, err := store.Put(context.Background(), payload)
	require.NoError(t, err)

	payload[0] = 'X'

	stored, ok := store.Get(ref)
	require.True(t, ok)
	assert.Equal(t, []byte("mutable"), stored)
}
