package game

import "github.com/feltworks/holdem/internal/deck"

// Seat is the per-seat ledger: the chips, bets and status flags for one
// player in one game. Seats are created on join and never removed mid-hand;
// folding, elimination and leaving only flip Active.
type Seat struct {
	Position int    // fixed seat order, stable for the table's lifetime
	PlayerID string
	Name     string
	Avatar   string

	Chips      int
	HoleCards  []deck.Card // empty or exactly two
	CurrentBet int         // wagered in the current betting round
	TotalBet   int         // wagered in the current hand, drives side pots
	Active     bool        // still contesting the pot this hand
	AllIn      bool        // sticky for the rest of the hand once set
	Acted      bool        // has acted since the last bet/raise
}

// CanAct reports whether the seat is still eligible to take voluntary
// actions this round.
func (s *Seat) CanAct() bool {
	return s.Active && !s.AllIn
}
