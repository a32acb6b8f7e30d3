package domain

// PackOfCards maps card indices 0..107 to their display names. The layout
// matches the JavaScript client exactly: per color (R, G, B, Y) one zero,
// two of each 1-9, two skips, two reverses ("_"), two draw-twos, then four
// wilds and four wild-draw-fours.
var PackOfCards = [DeckSize]string{
	"0R", "1R", "1R", "2R", "2R", "3R", "3R", "4R", "4R", "5R", "5R", "6R", "6R", "7R", "7R", "8R",
	"8R", "9R", "9R", "skipR", "skipR", "_R", "_R", "D2R", "D2R", "0G", "1G", "1G", "2G", "2G",
	"3G", "3G", "4G", "4G", "5G", "5G", "6G", "6G", "7G", "7G", "8G", "8G", "9G", "9G", "skipG",
	"skipG", "_G", "_G", "D2G", "D2G", "0B", "1B", "1B", "2B", "2B", "3B", "3B", "4B", "4B", "5B",
	"5B", "6B", "6B", "7B", "7B", "8B", "8B", "9B", "9B", "skipB", "skipB", "_B", "_B", "D2B",
	"D2B", "0Y", "1Y", "1Y", "2Y", "2Y", "3Y", "3Y", "4Y", "4Y", "5Y", "5Y", "6Y", "6Y", "7Y",
	"7Y", "8Y", "8Y", "9Y", "9Y", "skipY", "skipY", "_Y", "_Y", "D2Y", "D2Y", "W", "W", "W", "W",
	"D4W", "D4W", "D4W", "D4W",
}

// CardName returns the display name for a card index.
func CardName(index uint8) string {
	return PackOfCards[index]
}

// CardNames converts a slice of card indices to display names.
func CardNames(indices []uint8) []string {
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = PackOfCards[idx]
	}
	return names
}

// HandNames converts per-player hands of indices to display names.
func HandNames(hands [][]uint8) [][]string {
	out := make([][]string, len(hands))
	for i, hand := range hands {
		out[i] = CardNames(hand)
	}
	return out
}
