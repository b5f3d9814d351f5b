// Package evaluator ranks poker hands. It wraps github.com/paulhankin/poker:
// higher strength always wins and equal strengths are exactly tied, so the
// engine can compare hands without knowing anything about poker categories.
package evaluator

import (
	"fmt"

	poker "github.com/paulhankin/poker"

	"github.com/feltworks/holdem/internal/deck"
)

// Value is the outcome of evaluating a hand: a human-readable rank name and a
// totally ordered strength. Strengths from different evaluations are directly
// comparable.
type Value struct {
	Rank     string
	Strength int16
}

// Best returns the value of the best five-card hand formable from two hole
// cards and up to five community cards.
func Best(hole []deck.Card, community []deck.Card) (Value, error) {
	if len(hole) != 2 {
		return Value{}, fmt.Errorf("expected 2 hole cards, got %d", len(hole))
	}
	if len(community) > 5 {
		return Value{}, fmt.Errorf("expected at most 5 community cards, got %d", len(community))
	}

	cards := make([]poker.Card, 0, 7)
	for _, c := range append(append([]deck.Card{}, hole...), community...) {
		pc, err := toLibCard(c)
		if err != nil {
			return Value{}, err
		}
		cards = append(cards, pc)
	}

	var strength int16
	switch len(cards) {
	case 7:
		var a [7]poker.Card
		copy(a[:], cards)
		strength = poker.Eval7(&a)
	case 5:
		var a [5]poker.Card
		copy(a[:], cards)
		strength = poker.Eval5(&a)
	case 6:
		strength = bestFiveOf(cards)
	default:
		return Value{}, fmt.Errorf("cannot evaluate %d cards, need 5-7", len(cards))
	}

	name, err := poker.Describe(cards)
	if err != nil {
		name = ""
	}

	return Value{Rank: name, Strength: strength}, nil
}

// bestFiveOf evaluates every five-card subset and keeps the strongest.
func bestFiveOf(cards []poker.Card) int16 {
	var best int16
	var five [5]poker.Card
	n := len(cards)
	for skip := 0; skip < n; skip++ {
		k := 0
		for i, c := range cards {
			if i == skip {
				continue
			}
			five[k] = c
			k++
		}
		if s := poker.Eval5(&five); skip == 0 || s > best {
			best = s
		}
	}
	return best
}

// toLibCard maps a card code onto the library's representation. The library
// numbers aces as rank 1.
func toLibCard(c deck.Card) (poker.Card, error) {
	suit, err := c.Suit()
	if err != nil {
		return 0, err
	}
	rank, err := c.Rank()
	if err != nil {
		return 0, err
	}

	var s poker.Suit
	switch suit {
	case deck.Clubs:
		s = poker.Club
	case deck.Diamonds:
		s = poker.Diamond
	case deck.Hearts:
		s = poker.Heart
	case deck.Spades:
		s = poker.Spade
	}

	r := poker.Rank(rank)
	if rank == 14 {
		r = poker.Rank(1)
	}

	card, err := poker.MakeCard(s, r)
	if err != nil {
		return 0, fmt.Errorf("card %s: %w", c, err)
	}
	return card, nil
}
