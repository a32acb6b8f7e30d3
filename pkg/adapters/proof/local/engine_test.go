package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
)

func TestComputeCommitments(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	seed := [32]byte{1, 2, 3}

	artifact, err := engine.Compute(context.Background(), 4, 7, seed)
	require.NoError(t, err)

	assert.Equal(t, "fairdeal-commitment-v1", artifact.ImageID)
	assert.NotEmpty(t, artifact.Proof)
	assert.Len(t, artifact.PublicValues.HandCommitments, 4)
	assert.NotEmpty(t, artifact.PublicValues.DrawPileHash)
	assert.NotEmpty(t, artifact.PublicValues.MerkleRoot)
	assert.Equal(t, uint8(4), artifact.PublicValues.NumPlayers)
	assert.Equal(t, uint8(7), artifact.PublicValues.CardsPerPlayer)
	assert.Equal(t, "0x"+hex.EncodeToString(seed[:]), artifact.PublicValues.Seed)
}

func TestComputeCommitmentsMatchDeal(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	seed := [32]byte{9}

	artifact, err := engine.Compute(context.Background(), 2, 5, seed)
	require.NoError(t, err)

	// A verifier holding the seed re-derives the deal and checks the
	// commitments independently.
	outcome, err := domain.PerformShuffle(2, 5, seed)
	require.NoError(t, err)

	for i, hand := range outcome.PlayerHands {
		sum := sha256.Sum256(hand)
		assert.Equal(t, hex.EncodeToString(sum[:]), artifact.PublicValues.HandCommitments[i])
	}
	pileSum := sha256.Sum256(outcome.DrawPile)
	assert.Equal(t, hex.EncodeToString(pileSum[:]), artifact.PublicValues.DrawPileHash)
}

func TestComputeDeterministic(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	seed := [32]byte{42}

	a, err := engine.Compute(context.Background(), 3, 6, seed)
	require.NoError(t, err)
	b, err := engine.Compute(context.Background(), 3, 6, seed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestComputeSeedSensitivity(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	a, err := engine.Compute(context.Background(), 3, 6, [32]byte{1})
	require.NoError(t, err)
	b, err := engine.Compute(context.Background(), 3, 6, [32]byte{2})
	require.NoError(t, err)

	assert.NotEqual(t, a.PublicValues.MerkleRoot, b.PublicValues.MerkleRoot)
	assert.NotEqual(t, a.Proof, b.Proof)
}

func TestComputeRejectsInvalidParams(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	_, err := engine.Compute(context.Background(), 0, 7, [32]byte{})
	assert.Error(t, err)
}

func TestComputeHonorsContext(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Compute(ctx, 2, 5, [32]byte{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMerkleRootOddLeaves(t *testing.T) {
	root3 := merkleRoot([]string{"a", "b", "c"})
	root4 := merkleRoot([]string{"a", "b", "c", "c"})

	// An odd leaf is paired with itself.
	assert.Equal(t, root4, root3)
	assert.NotEmpty(t, merkleRoot(nil))
}
