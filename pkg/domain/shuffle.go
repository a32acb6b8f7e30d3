package domain

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

const (
	// DeckSize is the number of cards in the full pack.
	DeckSize = 108
	// MaxPlayers is the upper bound on players per game.
	MaxPlayers = 10
	// MaxCardsPerPlayer is the upper bound on the initial hand size.
	MaxCardsPerPlayer = 20
)

// ShuffleOutcome is the realized deal for a given seed and parameters.
type ShuffleOutcome struct {
	PlayerHands [][]uint8
	DrawPile    []uint8
}

// ValidateGameParams checks player and hand-size bounds and that the deck
// can cover the requested deal with at least one card left over.
func ValidateGameParams(numPlayers, cardsPerPlayer uint8) error {
	if numPlayers == 0 || numPlayers > MaxPlayers {
		return Validationf("number of players must be 1-%d, got %d", MaxPlayers, numPlayers)
	}
	if cardsPerPlayer == 0 || cardsPerPlayer > MaxCardsPerPlayer {
		return Validationf("cards per player must be 1-%d, got %d", MaxCardsPerPlayer, cardsPerPlayer)
	}
	needed := int(numPlayers) * int(cardsPerPlayer)
	if needed >= DeckSize {
		return Validationf("not enough cards: need %d for %d players with %d cards each (deck has %d)",
			needed, numPlayers, cardsPerPlayer, DeckSize)
	}
	return nil
}

// deckRand draws shuffle indices from a ChaCha20 keystream so that the same
// seed always yields the same permutation.
type deckRand struct {
	cipher *chacha20.Cipher
}

func newDeckRand(seed [32]byte) *deckRand {
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		// Key and nonce sizes are fixed at compile time.
		panic(err)
	}
	return &deckRand{cipher: c}
}

func (r *deckRand) intn(n int) int {
	var buf [8]byte
	r.cipher.XORKeyStream(buf[:], buf[:])
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n))
}

// ShuffleDeck permutes deck in place with a seeded Fisher-Yates shuffle.
func ShuffleDeck(deck []uint8, seed [32]byte) {
	r := newDeckRand(seed)
	for i := len(deck) - 1; i > 0; i-- {
		j := r.intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// DistributeCards deals the top of the shuffled deck round-robin: card i
// goes to player i mod numPlayers.
func DistributeCards(deck []uint8, numPlayers, cardsPerPlayer uint8) [][]uint8 {
	hands := make([][]uint8, numPlayers)
	for i := range hands {
		hands[i] = make([]uint8, 0, cardsPerPlayer)
	}
	total := int(numPlayers) * int(cardsPerPlayer)
	for i, card := range deck[:total] {
		p := i % int(numPlayers)
		hands[p] = append(hands[p], card)
	}
	return hands
}

// PerformShuffle validates the parameters, shuffles a fresh deck with the
// seed, and splits it into player hands and a draw pile.
func PerformShuffle(numPlayers, cardsPerPlayer uint8, seed [32]byte) (*ShuffleOutcome, error) {
	if err := ValidateGameParams(numPlayers, cardsPerPlayer); err != nil {
		return nil, err
	}

	deck := make([]uint8, DeckSize)
	for i := range deck {
		deck[i] = uint8(i)
	}

	ShuffleDeck(deck, seed)

	hands := DistributeCards(deck, numPlayers, cardsPerPlayer)

	dealt := int(numPlayers) * int(cardsPerPlayer)
	drawPile := make([]uint8, DeckSize-dealt)
	copy(drawPile, deck[dealt:])

	return &ShuffleOutcome{
		PlayerHands: hands,
		DrawPile:    drawPile,
	}, nil
}
