package game

import "github.com/feltworks/holdem/internal/deck"

// Option configures a Game at construction.
type Option func(*Game)

// WithDeck replaces the shuffled deck for the first hand. Cards are dealt
// from the end of the slice. Later hands reshuffle from the game's RNG.
func WithDeck(cards []deck.Card) Option {
	return func(g *Game) {
		g.Deck = append([]deck.Card(nil), cards...)
	}
}

// WithEvaluator replaces the hand evaluator.
func WithEvaluator(eval EvalFunc) Option {
	return func(g *Game) {
		g.eval = eval
	}
}

// WithEventBus attaches an event bus for observers.
func WithEventBus(bus EventBus) Option {
	return func(g *Game) {
		g.bus = bus
	}
}

// WithCreator records who created the game.
func WithCreator(playerID string) Option {
	return func(g *Game) {
		g.CreatedBy = playerID
	}
}
