package deck

import "math/rand"

var suits = []byte{Spades, Hearts, Diamonds, Clubs}

// Standard returns the 52 cards of a standard deck in canonical order.
func Standard() []Card {
	cards := make([]Card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			cards = append(cards, New(r, s))
		}
	}
	return cards
}

// Shuffled returns a freshly shuffled standard deck. Cards are dealt by
// popping from the end of the slice.
func Shuffled(rng *rand.Rand) []Card {
	cards := Standard()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
