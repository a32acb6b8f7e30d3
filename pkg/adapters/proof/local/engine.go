// Package local implements a deterministic commitment-based proof engine.
//
// The engine re-derives the deal from the seed and commits to it with
// SHA-256: one commitment per hand, one over the draw pile, and a merkle
// root binding them together. Anyone holding the seed can recompute the
// same commitments and check them against the archived artifact.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
)

// imageID identifies the commitment scheme version. Bump it whenever the
// commitment layout changes so old artifacts stay verifiable.
const imageID = "fairdeal-commitment-v1"

// Engine computes deal commitments locally.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a local proof engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Compute re-derives the shuffle from the seed and produces the commitment
// artifact over the resulting deal.
func (e *Engine) Compute(ctx context.Context, numPlayers, cardsPerPlayer uint8, seed [32]byte) (*domain.ProofArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome, err := domain.PerformShuffle(numPlayers, cardsPerPlayer, seed)
	if err != nil {
		return nil, fmt.Errorf("derive deal for commitment: %w", err)
	}

	handCommitments := make([]string, len(outcome.PlayerHands))
	for i, hand := range outcome.PlayerHands {
		handCommitments[i] = hashCards(hand)
	}
	drawPileHash := hashCards(outcome.DrawPile)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	leaves := make([]string, 0, len(handCommitments)+1)
	leaves = append(leaves, handCommitments...)
	leaves = append(leaves, drawPileHash)
	root := merkleRoot(leaves)

	seedHex := "0x" + hex.EncodeToString(seed[:])
	artifact := &domain.ProofArtifact{
		ImageID: imageID,
		Proof:   bindingProof(root, seedHex),
		PublicValues: domain.PublicValues{
			NumPlayers:      numPlayers,
			CardsPerPlayer:  cardsPerPlayer,
			HandCommitments: handCommitments,
			DrawPileHash:    drawPileHash,
			MerkleRoot:      root,
			Seed:            seedHex,
		},
	}

	e.logger.Debug("deal commitment computed",
		zap.Uint8("num_players", numPlayers),
		zap.Uint8("cards_per_player", cardsPerPlayer),
		zap.String("merkle_root", root))

	return artifact, nil
}

// hashCards commits to an ordered card sequence.
func hashCards(cards []uint8) string {
	sum := sha256.Sum256(cards)
	return hex.EncodeToString(sum[:])
}

// merkleRoot folds hex-encoded leaves pairwise with SHA-256. An odd leaf is
// paired with itself.
func merkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return hex.EncodeToString(make([]byte, sha256.Size))
	}

	level := make([]string, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			sum := sha256.Sum256([]byte(level[i] + level[i+1]))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
	}
	return level[0]
}

// bindingProof ties the merkle root to the seed that produced it.
func bindingProof(root, seedHex string) string {
	sum := sha256.Sum256([]byte(imageID + ":" + root + ":" + seedHex))
	return hex.EncodeToString(sum[:])
}
