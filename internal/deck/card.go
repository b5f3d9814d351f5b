package deck

import (
	"fmt"
	"strings"
)

// Card is a card code: rank followed by a suit letter, e.g. "AS", "7D", "10H".
// Ten is the only three-character code. Codes are unique tokens; most of the
// engine treats them as opaque and only the evaluator parses them.
type Card string

// Suit letters used in card codes.
const (
	Spades   = 'S'
	Hearts   = 'H'
	Diamonds = 'D'
	Clubs    = 'C'
)

var ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// New builds a card code from a rank string and a suit letter.
func New(rank string, suit byte) Card {
	return Card(rank + string(suit))
}

// Rank returns the numeric rank of the card, 2 through 14 (Ace high).
func (c Card) Rank() (int, error) {
	if len(c) < 2 {
		return 0, fmt.Errorf("malformed card code %q", string(c))
	}
	r := string(c[:len(c)-1])
	for i, name := range ranks {
		if r == name {
			return i + 2, nil
		}
	}
	return 0, fmt.Errorf("unknown rank in card code %q", string(c))
}

// Suit returns the suit letter of the card.
func (c Card) Suit() (byte, error) {
	if len(c) < 2 {
		return 0, fmt.Errorf("malformed card code %q", string(c))
	}
	s := c[len(c)-1]
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return s, nil
	}
	return 0, fmt.Errorf("unknown suit in card code %q", string(c))
}

// IsRed returns true for hearts and diamonds.
func (c Card) IsRed() bool {
	s, err := c.Suit()
	return err == nil && (s == Hearts || s == Diamonds)
}

func (c Card) String() string {
	return string(c)
}

var suitWords = map[string]byte{
	"spade":   Spades,
	"heart":   Hearts,
	"diamond": Diamonds,
	"club":    Clubs,
}

// Normalize converts the long "rank_suit" form ("A_spade", "10_heart") to the
// canonical code. Codes already in canonical form are returned uppercased.
func Normalize(code string) Card {
	if rank, suit, ok := strings.Cut(code, "_"); ok {
		if letter, known := suitWords[strings.ToLower(suit)]; known {
			return New(strings.ToUpper(rank), letter)
		}
	}
	return Card(strings.ToUpper(code))
}
