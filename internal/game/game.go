package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/feltworks/holdem/internal/deck"
	"github.com/feltworks/holdem/internal/evaluator"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// EvalFunc ranks the best five-card hand formable from two hole cards and
// the community cards. evaluator.Best is the default; tests substitute
// deterministic rankings.
type EvalFunc func(hole, community []deck.Card) (evaluator.Value, error)

// Game is the per-table aggregate: seats, pot, board and deck for the hand
// in progress. It is a strictly turn-based sequential state machine — the
// caller must serialize actions per game; the engine performs no locking.
type Game struct {
	ID         string
	Name       string
	MaxPlayers int
	Status     Status
	CreatedBy  string

	Seats          []*Seat
	Pot            int
	SidePots       []Pot // recomputed at settlement, not authoritative between hands
	CommunityCards []deck.Card
	Round          Round
	DealerIndex    int
	CurrentIndex   int // -1 when no actor is pending
	Deck           []deck.Card
	Burned         []deck.Card

	Structure  *Structure
	BlindLevel int
	HandNum    int

	CurrentHand *HandRecord
	CreatedAt   time.Time
	UpdatedAt   time.Time

	rng  *rand.Rand
	eval EvalFunc
	bus  EventBus
}

// Award is one seat's share of a distributed pot.
type Award struct {
	Position int
	Amount   int
	Rank     string // empty for wins without a showdown
}

// Outcome reports the consequence of a committed action. When HandOver is
// set the pot has been fully distributed; NextHand tells the caller whether
// StartHand can follow, making hand-chaining an explicit decision rather
// than something the engine does behind the caller's back.
type Outcome struct {
	Result   ActionResult
	HandOver bool
	FoldWin  bool
	Winner   int // position of the fold winner; -1 otherwise
	Awards   []Award
	NextHand bool
}

// NewGame creates a game in the waiting state. The RNG drives shuffling and
// dealer selection; pass a seeded one for deterministic play.
func NewGame(id, name string, maxPlayers int, structure *Structure, rng *rand.Rand, opts ...Option) *Game {
	now := time.Now()
	g := &Game{
		ID:           id,
		Name:         name,
		MaxPlayers:   maxPlayers,
		Status:       StatusWaiting,
		Round:        Preflop,
		CurrentIndex: -1,
		Structure:    structure,
		CreatedAt:    now,
		UpdatedAt:    now,
		rng:          rng,
		eval:         evaluator.Best,
	}
	g.Deck = deck.Shuffled(rng)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Join seats a new player. Position is assigned in join order and stays
// fixed for the table's lifetime.
func (g *Game) Join(playerID, name string, chips int) (*Seat, error) {
	if g.Status != StatusWaiting {
		return nil, fmt.Errorf("%w: cannot join after the game has started", ErrIllegalAction)
	}
	if g.SeatByPlayer(playerID) != nil {
		return nil, ErrAlreadyJoined
	}
	if len(g.Seats) >= g.MaxPlayers {
		return nil, ErrGameFull
	}
	s := &Seat{
		Position: len(g.Seats),
		PlayerID: playerID,
		Name:     name,
		Chips:    chips,
		Active:   true,
	}
	g.Seats = append(g.Seats, s)
	g.UpdatedAt = time.Now()
	return s, nil
}

// SeatAt returns the seat at a position.
func (g *Game) SeatAt(pos int) (*Seat, error) {
	if pos < 0 || pos >= len(g.Seats) {
		return nil, fmt.Errorf("%w: seat %d", ErrNotFound, pos)
	}
	return g.Seats[pos], nil
}

// SeatByPlayer returns the seat held by a player, or nil.
func (g *Game) SeatByPlayer(playerID string) *Seat {
	for _, s := range g.Seats {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

// FundedSeats counts seats that still have chips.
func (g *Game) FundedSeats() int {
	n := 0
	for _, s := range g.Seats {
		if s.Chips > 0 {
			n++
		}
	}
	return n
}

// ChipsInPlay is the conserved quantity: stacks plus the pot. It only
// changes when players join.
func (g *Game) ChipsInPlay() int {
	total := g.Pot
	for _, s := range g.Seats {
		total += s.Chips
	}
	return total
}

// StartGame is the one-time transition from waiting to playing: it picks a
// dealer, posts blinds, deals hole cards and sets the first actor.
func (g *Game) StartGame() (*Outcome, error) {
	if g.Status != StatusWaiting {
		return nil, ErrAlreadyStarted
	}
	if g.FundedSeats() < 2 {
		return nil, ErrNotEnoughPlayers
	}
	for _, s := range g.Seats {
		s.Active = s.Chips > 0
	}
	g.Status = StatusPlaying
	g.DealerIndex = g.nextActiveFrom(g.rng.Intn(len(g.Seats)))
	return g.DealHand()
}

// StartHand resets the table for the next hand: the button moves to the next
// funded seat, the board and pot clear, a fresh deck is shuffled and every
// seat's per-hand state is wiped. Eliminated seats (zero chips) are marked
// inactive. Cards are not dealt until DealHand.
func (g *Game) StartHand() error {
	if g.Status != StatusPlaying {
		return ErrNotPlaying
	}
	if g.FundedSeats() < 2 {
		return ErrNotEnoughPlayers
	}

	g.DealerIndex = g.nextFundedFrom(g.DealerIndex + 1)
	g.Pot = 0
	g.SidePots = nil
	g.CommunityCards = nil
	g.Burned = nil
	g.Round = Preflop
	g.Deck = deck.Shuffled(g.rng)
	g.CurrentIndex = -1
	g.CurrentHand = nil

	for _, s := range g.Seats {
		s.HoleCards = nil
		s.CurrentBet = 0
		s.TotalBet = 0
		s.Acted = false
		s.AllIn = false
		s.Active = s.Chips > 0
	}
	g.UpdatedAt = time.Now()
	return nil
}

// DealHand posts blinds and antes for the current level, deals two hole
// cards to every active seat and sets the first actor. Heads-up, the dealer
// posts the small blind and acts first preflop. Blinds are capped at the
// seat's stack and can force an immediate all-in.
//
// The returned outcome is only terminal in the degenerate case where the
// forced posts leave no action to take, in which case the board runs out
// and the hand settles immediately.
func (g *Game) DealHand() (*Outcome, error) {
	if g.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if g.Structure == nil || len(g.Structure.Levels) == 0 {
		return nil, fmt.Errorf("%w: blind structure", ErrNotFound)
	}

	var active []*Seat
	for _, s := range g.Seats {
		if s.Active {
			active = append(active, s)
		}
	}
	if len(active) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	level := g.Structure.LevelAt(g.BlindLevel)
	headsUp := len(active) == 2

	var sb int
	if headsUp {
		sb = g.nextActiveFrom(g.DealerIndex)
	} else {
		sb = g.nextActiveFrom(g.DealerIndex + 1)
	}
	bb := g.nextActiveFrom(sb + 1)

	if level.Ante > 0 {
		for _, s := range active {
			ante := min(level.Ante, s.Chips)
			s.Chips -= ante
			s.TotalBet += ante
			g.Pot += ante
			if s.Chips == 0 {
				s.AllIn = true
			}
		}
	}

	post := func(pos, blind int) {
		s := g.Seats[pos]
		amount := min(blind, s.Chips)
		s.Chips -= amount
		s.CurrentBet += amount
		s.TotalBet += amount
		g.Pot += amount
		if s.Chips == 0 {
			s.AllIn = true
		}
	}
	post(sb, level.SmallBlind)
	post(bb, level.BigBlind)

	// The small blind's forced post counts as having acted; the big blind
	// still gets a turn through the unacted check in round completion.
	g.Seats[sb].Acted = true

	for _, s := range active {
		s.HoleCards = []deck.Card{g.draw(), g.draw()}
	}

	g.HandNum++
	g.beginHandRecord()

	if headsUp {
		g.CurrentIndex = g.firstEligibleAt(sb)
	} else {
		g.CurrentIndex = g.firstEligibleAt(bb + 1)
	}
	g.UpdatedAt = time.Now()

	g.publish(HandStartEvent{
		GameID:     g.ID,
		HandNumber: g.HandNum,
		Dealer:     g.DealerIndex,
		SmallBlind: level.SmallBlind,
		BigBlind:   level.BigBlind,
		Ante:       level.Ante,
		timestamp:  time.Now(),
	})

	// Short stacks can be all-in from the posts alone. When that leaves no
	// seat owing action, settle straight away instead of waiting for an
	// action that can never come.
	if IsRoundComplete(g.Seats) {
		return g.advanceRound()
	}
	return &Outcome{Winner: -1}, nil
}

// Apply validates, commits and resolves a single action by the seat at pos.
// It fails without mutating anything if the seat is not the pending actor or
// the action is illegal. A bet or raise reopens the action for every other
// live seat.
func (g *Game) Apply(pos int, action Action, amount int) (*Outcome, error) {
	if g.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if g.CurrentIndex < 0 || g.CurrentIndex >= len(g.Seats) {
		return nil, fmt.Errorf("%w: no actor pending", ErrIllegalActor)
	}
	if pos != g.CurrentIndex {
		return nil, fmt.Errorf("%w: seat %d acted out of turn", ErrIllegalActor, pos)
	}
	seat := g.Seats[pos]
	level := g.Structure.LevelAt(g.BlindLevel)

	res, err := ApplyAction(g.Seats, seat, action, amount, level.BigBlind)
	if err != nil {
		return nil, err
	}

	seat.CurrentBet = res.NewBet
	seat.TotalBet += res.BetIncrease
	seat.Chips -= res.BetIncrease
	seat.Acted = true
	seat.Active = res.StillActive
	if res.BecameAllIn {
		seat.AllIn = true
	}
	g.Pot += res.BetIncrease
	g.UpdatedAt = time.Now()

	// A bet or raise reopens the action for everyone still live.
	if action == Bet || action == Raise {
		for _, other := range g.Seats {
			if other != seat && other.CanAct() {
				other.Acted = false
			}
		}
	}

	g.recordAction(seat, action, res.BetIncrease)
	g.publish(PlayerActionEvent{
		GameID:    g.ID,
		Position:  pos,
		Action:    action,
		Amount:    res.BetIncrease,
		Round:     g.Round,
		PotAfter:  g.Pot,
		timestamp: time.Now(),
	})

	out, err := g.resolve()
	if err != nil {
		return nil, err
	}
	out.Result = res
	return out, nil
}

// Leave marks a seat as out of the game and clears its transient flags. The
// seat record and its chips stay put; chip custody on leave is a business
// concern outside the engine. A leave during a hand resolves like a forced
// fold so the hand cannot stall on the departed seat.
func (g *Game) Leave(pos int) (*Outcome, error) {
	seat, err := g.SeatAt(pos)
	if err != nil {
		return nil, err
	}
	wasLive := seat.Active
	seat.Active = false
	seat.Acted = false
	seat.AllIn = false
	g.UpdatedAt = time.Now()

	if g.Status != StatusPlaying || !wasLive || g.CurrentIndex < 0 {
		return &Outcome{Winner: -1}, nil
	}
	return g.resolve()
}

// resolve applies the post-mutation checks shared by Apply and Leave:
// last-seat shortcut, round completion, or turn advancement.
func (g *Game) resolve() (*Outcome, error) {
	var active []*Seat
	for _, s := range g.Seats {
		if s.Active {
			active = append(active, s)
		}
	}
	if len(active) == 1 {
		return g.finishByFold(active[0]), nil
	}
	if IsRoundComplete(g.Seats) {
		return g.advanceRound()
	}
	if next := NextActorIndex(g.Seats, g.CurrentIndex); next != g.CurrentIndex {
		g.CurrentIndex = next
	}
	return &Outcome{Winner: -1}, nil
}

// NextBlindLevel advances the blind level. Reaching the end of the schedule
// is a normal outcome, reported as false without mutating anything.
func (g *Game) NextBlindLevel() bool {
	if g.Structure == nil || g.BlindLevel >= len(g.Structure.Levels)-1 {
		return false
	}
	g.BlindLevel++
	g.UpdatedAt = time.Now()
	g.publish(BlindLevelEvent{
		GameID:    g.ID,
		Level:     g.Structure.LevelAt(g.BlindLevel),
		timestamp: time.Now(),
	})
	return true
}

// finishByFold awards the whole pot to the last active seat.
func (g *Game) finishByFold(winner *Seat) *Outcome {
	amount := g.Pot
	winner.Chips += amount
	g.Pot = 0
	g.SidePots = nil
	g.CurrentIndex = -1

	awards := []Award{{Position: winner.Position, Amount: amount}}
	g.completeHandRecord(amount, awards)

	next := g.FundedSeats() >= 2
	if !next {
		g.Status = StatusFinished
	}
	g.publish(HandEndEvent{
		GameID:     g.ID,
		HandNumber: g.HandNum,
		ByFold:     true,
		Awards:     awards,
		Board:      g.CommunityCards,
		timestamp:  time.Now(),
	})
	return &Outcome{
		HandOver: true,
		FoldWin:  true,
		Winner:   winner.Position,
		Awards:   awards,
		NextHand: next,
	}
}

// finishAtShowdown settles all pot tiers and reports whether another hand
// can start.
func (g *Game) finishAtShowdown() (*Outcome, error) {
	potBefore := g.Pot
	awards, err := g.settle()
	if err != nil {
		return nil, err
	}
	g.Round = Showdown
	g.CurrentIndex = -1
	g.completeHandRecord(potBefore, awards)

	next := g.FundedSeats() >= 2
	if !next {
		g.Status = StatusFinished
	}
	g.publish(HandEndEvent{
		GameID:     g.ID,
		HandNumber: g.HandNum,
		Awards:     awards,
		Board:      g.CommunityCards,
		timestamp:  time.Now(),
	})
	return &Outcome{
		HandOver: true,
		Winner:   -1,
		Awards:   awards,
		NextHand: next,
	}, nil
}

// draw pops the next card off the end of the deck. Exhaustion means an
// upstream invariant was broken, never a recoverable condition.
func (g *Game) draw() deck.Card {
	if len(g.Deck) == 0 {
		panic("deck exhausted")
	}
	c := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	return c
}

func (g *Game) burn() {
	g.Burned = append(g.Burned, g.draw())
}

func (g *Game) dealCommunity(n int) {
	for i := 0; i < n; i++ {
		g.CommunityCards = append(g.CommunityCards, g.draw())
	}
}

// nextActiveFrom returns the first active seat at or after pos, cyclically.
func (g *Game) nextActiveFrom(pos int) int {
	n := len(g.Seats)
	for i := 0; i < n; i++ {
		p := ((pos + i) % n + n) % n
		if g.Seats[p].Active {
			return p
		}
	}
	return -1
}

// nextFundedFrom returns the first seat with chips at or after pos,
// cyclically. Used for button rotation so eliminated seats are skipped.
func (g *Game) nextFundedFrom(pos int) int {
	n := len(g.Seats)
	for i := 0; i < n; i++ {
		p := ((pos + i) % n + n) % n
		if g.Seats[p].Chips > 0 {
			return p
		}
	}
	return -1
}

// firstEligibleAt returns the first seat at or after pos that can act, or -1.
func (g *Game) firstEligibleAt(pos int) int {
	n := len(g.Seats)
	for i := 0; i < n; i++ {
		p := ((pos + i) % n + n) % n
		if g.Seats[p].CanAct() {
			return p
		}
	}
	return -1
}

func (g *Game) publish(event GameEvent) {
	if g.bus != nil {
		g.bus.Publish(event)
	}
}
