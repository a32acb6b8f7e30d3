package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T) *GameState {
	t.Helper()

	seed := WordFromUint64(1234)
	outcome, err := PerformShuffle(2, 5, seed.Bytes32())
	require.NoError(t, err)

	return &GameState{
		PlayerHands: outcome.PlayerHands,
		DrawPile:    outcome.DrawPile,
		DiscardPile: []uint8{},
		IsShuffled:  true,
		Seed:        SeedMetadata{Value: seed},
	}
}

func TestDrawCard(t *testing.T) {
	g := newTestGame(t)
	top := g.DrawPile[len(g.DrawPile)-1]
	pileBefore := len(g.DrawPile)

	card, err := g.DrawCard(0)
	require.NoError(t, err)

	assert.Equal(t, top, card)
	assert.Len(t, g.DrawPile, pileBefore-1)
	assert.Len(t, g.PlayerHands[0], 6)
	assert.Equal(t, DeckSize, g.TotalCards())
}

func TestDrawCardInvalidPlayer(t *testing.T) {
	g := newTestGame(t)

	_, err := g.DrawCard(2)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDrawCardUninitialized(t *testing.T) {
	g := &GameState{}
	_, err := g.DrawCard(0)
	assert.Error(t, err)
}

func TestDrawCardReshufflesDiscard(t *testing.T) {
	g := newTestGame(t)

	// Move the entire draw pile into the discard pile.
	g.DiscardPile = append(g.DiscardPile, g.DrawPile...)
	g.DrawPile = nil
	discardSize := len(g.DiscardPile)
	top := g.DiscardPile[discardSize-1]

	card, err := g.DrawCard(0)
	require.NoError(t, err)

	// The top discard stays where it is, the rest became the new draw pile
	// and one card of it was drawn.
	assert.Equal(t, []uint8{top}, g.DiscardPile)
	assert.Len(t, g.DrawPile, discardSize-2)
	assert.NotEqual(t, top, card)
	assert.Equal(t, DeckSize, g.TotalCards())
}

func TestDrawCardExhausted(t *testing.T) {
	g := newTestGame(t)
	g.DrawPile = nil
	g.DiscardPile = []uint8{42}

	_, err := g.DrawCard(0)
	assert.Error(t, err)
}

func TestDrawCards(t *testing.T) {
	g := newTestGame(t)

	drawn, err := g.DrawCards(1, 4)
	require.NoError(t, err)

	assert.Len(t, drawn, 4)
	assert.Len(t, g.PlayerHands[1], 9)
	assert.Equal(t, DeckSize, g.TotalCards())
}

func TestDrawCardsZero(t *testing.T) {
	g := newTestGame(t)

	drawn, err := g.DrawCards(0, 0)
	require.NoError(t, err)
	assert.Empty(t, drawn)
}

func TestPlayCard(t *testing.T) {
	g := newTestGame(t)
	want := g.PlayerHands[0][2]

	played, err := g.PlayCard(0, 2)
	require.NoError(t, err)

	assert.Equal(t, want, played)
	assert.Len(t, g.PlayerHands[0], 4)
	assert.Equal(t, []uint8{want}, g.DiscardPile)
	assert.Equal(t, DeckSize, g.TotalCards())
}

func TestPlayCardOutOfBounds(t *testing.T) {
	g := newTestGame(t)

	_, err := g.PlayCard(0, 5)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = g.PlayCard(0, -1)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestHandReturnsCopy(t *testing.T) {
	g := newTestGame(t)

	hand, err := g.Hand(0)
	require.NoError(t, err)
	require.Len(t, hand, 5)

	hand[0] = 255
	assert.NotEqual(t, uint8(255), g.PlayerHands[0][0])
}

func TestCardNames(t *testing.T) {
	assert.Equal(t, PackOfCards[0], CardName(0))
	assert.Equal(t, PackOfCards[DeckSize-1], CardName(DeckSize-1))

	names := CardNames([]uint8{0, 1, 2})
	require.Len(t, names, 3)
	assert.Equal(t, PackOfCards[1], names[1])
}
