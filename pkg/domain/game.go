package domain

import "fmt"

// GameState is the mutable state of a dealt game: the hands, the face-down
// draw pile, and the face-up discard pile, together with the seed provenance
// the deal was computed from.
type GameState struct {
	PlayerHands [][]uint8    `json:"player_hands"`
	DrawPile    []uint8      `json:"draw_pile"`
	DiscardPile []uint8      `json:"discard_pile"`
	IsShuffled  bool         `json:"is_shuffled"`
	Seed        SeedMetadata `json:"seed_metadata"`
}

// Initialized reports whether the game has been dealt.
func (g *GameState) Initialized() bool {
	return g.IsShuffled && len(g.PlayerHands) > 0
}

// ValidPlayer reports whether the player id is in range.
func (g *GameState) ValidPlayer(player uint8) bool {
	return int(player) < len(g.PlayerHands)
}

// TotalCards returns the number of cards in circulation.
func (g *GameState) TotalCards() int {
	total := len(g.DrawPile) + len(g.DiscardPile)
	for _, hand := range g.PlayerHands {
		total += len(hand)
	}
	return total
}

// Clone returns a deep copy of the game state.
func (g *GameState) Clone() GameState {
	out := *g
	out.PlayerHands = make([][]uint8, len(g.PlayerHands))
	for i, hand := range g.PlayerHands {
		out.PlayerHands[i] = append([]uint8(nil), hand...)
	}
	out.DrawPile = append([]uint8(nil), g.DrawPile...)
	out.DiscardPile = append([]uint8(nil), g.DiscardPile...)
	return out
}

// DrawCard moves the top card of the draw pile into the player's hand. When
// the draw pile is empty, the discard pile minus its top card is reshuffled
// into a new draw pile using a seed derived from the original.
func (g *GameState) DrawCard(player uint8) (uint8, error) {
	if !g.Initialized() {
		return 0, fmt.Errorf("game not initialized")
	}
	if !g.ValidPlayer(player) {
		return 0, Validationf("player %d not found (valid range: 0-%d)", player, len(g.PlayerHands)-1)
	}

	if len(g.DrawPile) == 0 {
		if len(g.DiscardPile) <= 1 {
			return 0, fmt.Errorf("no cards available")
		}

		top := g.DiscardPile[len(g.DiscardPile)-1]
		g.DrawPile = append(g.DrawPile, g.DiscardPile[:len(g.DiscardPile)-1]...)
		g.DiscardPile = []uint8{top}

		ShuffleDeck(g.DrawPile, g.Seed.Value.Add(1).Bytes32())
	}

	card := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	g.PlayerHands[player] = append(g.PlayerHands[player], card)
	return card, nil
}

// DrawCards draws count cards for a player, for draw-two and draw-four
// penalties.
func (g *GameState) DrawCards(player uint8, count uint8) ([]uint8, error) {
	if count == 0 {
		return nil, nil
	}
	drawn := make([]uint8, 0, count)
	for i := uint8(0); i < count; i++ {
		card, err := g.DrawCard(player)
		if err != nil {
			return drawn, err
		}
		drawn = append(drawn, card)
	}
	return drawn, nil
}

// PlayCard moves the card at cardIndex from the player's hand to the top of
// the discard pile and returns it.
func (g *GameState) PlayCard(player uint8, cardIndex int) (uint8, error) {
	if !g.Initialized() {
		return 0, fmt.Errorf("game not initialized")
	}
	if !g.ValidPlayer(player) {
		return 0, Validationf("player %d not found (valid range: 0-%d)", player, len(g.PlayerHands)-1)
	}

	hand := g.PlayerHands[player]
	if cardIndex < 0 || cardIndex >= len(hand) {
		return 0, Validationf("card index %d out of bounds (hand has %d cards)", cardIndex, len(hand))
	}

	played := hand[cardIndex]
	g.PlayerHands[player] = append(hand[:cardIndex], hand[cardIndex+1:]...)
	g.DiscardPile = append(g.DiscardPile, played)
	return played, nil
}

// Hand returns a copy of the player's current hand.
func (g *GameState) Hand(player uint8) ([]uint8, error) {
	if !g.Initialized() {
		return nil, fmt.Errorf("game not initialized")
	}
	if !g.ValidPlayer(player) {
		return nil, Validationf("player %d not found (valid range: 0-%d)", player, len(g.PlayerHands)-1)
	}
	return append([]uint8(nil), g.PlayerHands[player]...), nil
}
