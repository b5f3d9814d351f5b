package game

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltworks/holdem/internal/deck"
	"github.com/feltworks/holdem/internal/evaluator"
)

func testStructure() *Structure {
	return &Structure{
		ID:   "test",
		Name: "test",
		Levels: []BlindLevel{
			{Level: 1, SmallBlind: 10, BigBlind: 20},
			{Level: 2, SmallBlind: 20, BigBlind: 40},
		},
	}
}

func lifecycleGame(t *testing.T, chips ...int) *Game {
	t.Helper()
	g := NewGame("g1", "table", 9, testStructure(), rand.New(rand.NewSource(1)))
	for i, c := range chips {
		_, err := g.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("player-%d", i), c)
		require.NoError(t, err)
	}
	return g
}

// positionEval scores whichever seat holds the given hole cards, lower
// positions stronger, so showdown outcomes are deterministic.
func positionEval(g *Game) EvalFunc {
	return func(hole, community []deck.Card) (evaluator.Value, error) {
		for _, s := range g.Seats {
			if len(s.HoleCards) == 2 && s.HoleCards[0] == hole[0] && s.HoleCards[1] == hole[1] {
				return evaluator.Value{Rank: "stub", Strength: int16(100 - s.Position)}, nil
			}
		}
		return evaluator.Value{}, errors.New("unknown hole cards")
	}
}

// driveHand plays every pending turn as a check, or a call when facing a
// bet, until the hand completes.
func driveHand(t *testing.T, g *Game) *Outcome {
	t.Helper()
	for i := 0; i < 40; i++ {
		pos := g.CurrentIndex
		require.GreaterOrEqual(t, pos, 0, "no pending actor but hand not over")
		action := Check
		if g.Seats[pos].CurrentBet < HighestBet(g.Seats) {
			action = Call
		}
		out, err := g.Apply(pos, action, 0)
		require.NoError(t, err)
		if out.HandOver {
			return out
		}
	}
	t.Fatal("hand did not complete")
	return nil
}

func TestJoinValidation(t *testing.T) {
	t.Parallel()

	g := NewGame("g1", "table", 2, testStructure(), rand.New(rand.NewSource(1)))
	_, err := g.Join("p0", "a", 1000)
	require.NoError(t, err)

	_, err = g.Join("p0", "a again", 1000)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = g.Join("p1", "b", 1000)
	require.NoError(t, err)
	_, err = g.Join("p2", "c", 1000)
	assert.ErrorIs(t, err, ErrGameFull)

	_, err = g.StartGame()
	require.NoError(t, err)
	_, err = g.Join("p3", "late", 1000)
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestStartGameValidation(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000)
	_, err := g.StartGame()
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	g = lifecycleGame(t, 1000, 1000)
	_, err = g.StartGame()
	require.NoError(t, err)
	_, err = g.StartGame()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStartGamePostsBlindsAndDeals(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000, 1000)
	out, err := g.StartGame()
	require.NoError(t, err)
	assert.False(t, out.HandOver)

	assert.Equal(t, StatusPlaying, g.Status)
	assert.Equal(t, 30, g.Pot)
	assert.Equal(t, 3000, g.ChipsInPlay())
	assert.Equal(t, 1, g.HandNum)

	d := g.DealerIndex
	sb, bb := (d+1)%3, (d+2)%3
	assert.Equal(t, 10, g.Seats[sb].CurrentBet)
	assert.True(t, g.Seats[sb].Acted)
	assert.Equal(t, 20, g.Seats[bb].CurrentBet)
	assert.False(t, g.Seats[bb].Acted)

	// Under the gun is the dealer at a three-handed table.
	assert.Equal(t, d, g.CurrentIndex)

	for _, s := range g.Seats {
		assert.Len(t, s.HoleCards, 2, "seat %d", s.Position)
	}
	assert.Empty(t, g.CommunityCards)
}

func TestHeadsUpDealerIsSmallBlind(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	other := (d + 1) % 2
	assert.Equal(t, 10, g.Seats[d].CurrentBet)
	assert.Equal(t, 20, g.Seats[other].CurrentBet)
	assert.Equal(t, d, g.CurrentIndex, "dealer acts first preflop heads-up")
}

func TestApplyTurnValidation(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000, 1000)
	_, err := g.Apply(0, Check, 0)
	assert.ErrorIs(t, err, ErrNotPlaying)

	_, err = g.StartGame()
	require.NoError(t, err)

	wrong := (g.CurrentIndex + 1) % 3
	_, err = g.Apply(wrong, Fold, 0)
	assert.ErrorIs(t, err, ErrIllegalActor)
}

func TestFoldWinShortcut(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	sb, bb := (d+1)%3, (d+2)%3

	out, err := g.Apply(d, Fold, 0)
	require.NoError(t, err)
	assert.False(t, out.HandOver)
	assert.Equal(t, sb, g.CurrentIndex)

	out, err = g.Apply(sb, Fold, 0)
	require.NoError(t, err)
	assert.True(t, out.HandOver)
	assert.True(t, out.FoldWin)
	assert.Equal(t, bb, out.Winner)
	assert.True(t, out.NextHand)
	require.Len(t, out.Awards, 1)
	assert.Equal(t, Award{Position: bb, Amount: 30}, out.Awards[0])

	assert.Equal(t, 1010, g.Seats[bb].Chips)
	assert.Equal(t, 0, g.Pot)
	assert.Equal(t, -1, g.CurrentIndex)
	assert.Equal(t, 3000, g.ChipsInPlay())
	assert.Equal(t, StatusPlaying, g.Status)
}

func TestBetReopensAction(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	sb, bb := (d+1)%3, (d+2)%3

	_, err = g.Apply(d, Call, 0)
	require.NoError(t, err)
	_, err = g.Apply(sb, Call, 0)
	require.NoError(t, err)

	// The big blind's raise reopens the action for the callers.
	_, err = g.Apply(bb, Raise, 40)
	require.NoError(t, err)
	assert.Equal(t, 60, g.Seats[bb].CurrentBet)
	assert.False(t, g.Seats[d].Acted)
	assert.False(t, g.Seats[sb].Acted)
	assert.Equal(t, d, g.CurrentIndex)

	_, err = g.Apply(d, Fold, 0)
	require.NoError(t, err)
	out, err := g.Apply(sb, Call, 0)
	require.NoError(t, err)
	assert.False(t, out.HandOver)

	assert.Equal(t, Flop, g.Round)
	assert.Len(t, g.CommunityCards, 3)
	assert.Equal(t, 3000, g.ChipsInPlay())
}

func TestCheckDownToShowdown(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)
	g.eval = positionEval(g)

	out := driveHand(t, g)
	assert.False(t, out.FoldWin)
	assert.True(t, out.NextHand)
	require.Len(t, out.Awards, 1)
	assert.Equal(t, Award{Position: 0, Amount: 40, Rank: "stub"}, out.Awards[0])

	assert.Equal(t, Showdown, g.Round)
	assert.Len(t, g.CommunityCards, 5)
	assert.Equal(t, 1020, g.Seats[0].Chips)
	assert.Equal(t, 980, g.Seats[1].Chips)
	assert.Equal(t, 2000, g.ChipsInPlay())
}

func TestAllInRunout(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)
	g.eval = positionEval(g)

	d := g.DealerIndex
	other := (d + 1) % 2

	out, err := g.Apply(d, AllIn, 0)
	require.NoError(t, err)
	assert.False(t, out.HandOver)

	out, err = g.Apply(other, Call, 0)
	require.NoError(t, err)
	assert.True(t, out.HandOver)
	assert.False(t, out.FoldWin)
	assert.False(t, out.NextHand, "loser is felted")

	assert.Len(t, g.CommunityCards, 5)
	assert.Equal(t, 2000, g.Seats[0].Chips)
	assert.Equal(t, 0, g.Seats[1].Chips)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, 1, g.FundedSeats())
}

func TestBlindsCappedAtStack(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 5)
	g.Status = StatusPlaying
	g.DealerIndex = 0
	g.eval = positionEval(g)
	out, err := g.DealHand()
	require.NoError(t, err)

	assert.Equal(t, 5, g.Seats[1].TotalBet)
	assert.True(t, g.Seats[1].AllIn)

	// The small blind covers the short big blind, so no betting is possible
	// and the hand settles within the deal.
	require.True(t, out.HandOver)
	assert.Len(t, g.CommunityCards, 5)
	assert.Equal(t, 1005, g.Seats[0].Chips)
	assert.Equal(t, 1005, g.ChipsInPlay())
	assert.Equal(t, StatusFinished, g.Status)
}

func TestAllInShoveKeepsRoundOpen(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)
	g.eval = positionEval(g)

	d := g.DealerIndex
	other := (d + 1) % 2

	out, err := g.Apply(d, AllIn, 0)
	require.NoError(t, err)
	require.False(t, out.HandOver)
	assert.Equal(t, Preflop, g.Round, "no street deals while the shove is unmatched")
	assert.Empty(t, g.CommunityCards)
	assert.Equal(t, other, g.CurrentIndex, "the covered seat still owes a call")
	assert.Equal(t, 1000, g.Seats[d].CurrentBet)

	out, err = g.Apply(other, Call, 0)
	require.NoError(t, err)
	assert.Equal(t, 980, out.Result.BetIncrease, "the call matches the full shove")
	assert.True(t, out.HandOver)
	assert.Equal(t, 2000, g.Seats[0].Chips)
	assert.Equal(t, 2000, g.ChipsInPlay())
}

func TestFoldingOutOfAShoveEndsHandWithoutRunout(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	other := (d + 1) % 2
	_, err = g.Apply(d, AllIn, 0)
	require.NoError(t, err)

	out, err := g.Apply(other, Fold, 0)
	require.NoError(t, err)
	assert.True(t, out.HandOver)
	assert.True(t, out.FoldWin)
	assert.Equal(t, d, out.Winner)
	assert.Empty(t, g.CommunityCards, "a fold win deals no board")
	assert.Equal(t, 1020, g.Seats[d].Chips)
	assert.Equal(t, 980, g.Seats[other].Chips)
	assert.Equal(t, 2000, g.ChipsInPlay())
}

func TestAntesGoToThePot(t *testing.T) {
	t.Parallel()

	g := NewGame("g1", "table", 9, &Structure{
		ID:     "ante",
		Name:   "ante",
		Levels: []BlindLevel{{Level: 1, SmallBlind: 10, BigBlind: 20, Ante: 5}},
	}, rand.New(rand.NewSource(1)))
	for i := 0; i < 2; i++ {
		_, err := g.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("player-%d", i), 1000)
		require.NoError(t, err)
	}
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	other := (d + 1) % 2
	assert.Equal(t, 40, g.Pot)
	assert.Equal(t, 15, g.Seats[d].TotalBet)
	assert.Equal(t, 10, g.Seats[d].CurrentBet, "antes do not count toward the round bet")
	assert.Equal(t, 25, g.Seats[other].TotalBet)
	assert.Equal(t, 2000, g.ChipsInPlay())
}

func TestStartHandResetsAndRotatesDealer(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	sb := (d + 1) % 3
	_, err = g.Apply(d, Fold, 0)
	require.NoError(t, err)
	out, err := g.Apply(sb, Fold, 0)
	require.NoError(t, err)
	require.True(t, out.HandOver)
	require.NotNil(t, g.CurrentHand)
	assert.True(t, g.CurrentHand.Complete())

	require.NoError(t, g.StartHand())
	assert.Equal(t, sb, g.DealerIndex, "button moves one funded seat")
	assert.Equal(t, 0, g.Pot)
	assert.Empty(t, g.CommunityCards)
	assert.Equal(t, Preflop, g.Round)
	assert.Equal(t, -1, g.CurrentIndex)
	assert.Nil(t, g.CurrentHand)
	assert.Len(t, g.Deck, 52)
	for _, s := range g.Seats {
		assert.Empty(t, s.HoleCards)
		assert.Zero(t, s.CurrentBet)
		assert.Zero(t, s.TotalBet)
		assert.False(t, s.AllIn)
		assert.True(t, s.Active)
	}

	_, err = g.DealHand()
	require.NoError(t, err)
	assert.Equal(t, 2, g.HandNum)
	assert.Equal(t, 30, g.Pot)
}

func TestStartHandSkipsEliminatedSeats(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	sb := (d + 1) % 3
	_, err = g.Apply(d, Fold, 0)
	require.NoError(t, err)
	_, err = g.Apply(sb, Fold, 0)
	require.NoError(t, err)

	// The seat the button would move to busts between hands.
	g.Seats[sb].Chips = 0
	require.NoError(t, g.StartHand())
	assert.Equal(t, (d+2)%3, g.DealerIndex)
	assert.False(t, g.Seats[sb].Active)
}

func TestStartHandNeedsTwoFundedSeats(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)
	g.eval = positionEval(g)

	d := g.DealerIndex
	_, err = g.Apply(d, AllIn, 0)
	require.NoError(t, err)
	_, err = g.Apply((d+1)%2, Call, 0)
	require.NoError(t, err)

	// Felting the loser finishes the game outright.
	assert.Equal(t, StatusFinished, g.Status)
	assert.ErrorIs(t, g.StartHand(), ErrNotPlaying)

	// A playing game with only one funded seat cannot deal either.
	g = lifecycleGame(t, 1000, 1000, 1000)
	_, err = g.StartGame()
	require.NoError(t, err)
	g.Seats[(g.DealerIndex+1)%3].Chips = 0
	g.Seats[(g.DealerIndex+2)%3].Chips = 0
	assert.ErrorIs(t, g.StartHand(), ErrNotEnoughPlayers)
}

func TestNextBlindLevel(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	assert.True(t, g.NextBlindLevel())
	assert.Equal(t, 1, g.BlindLevel)
	assert.False(t, g.NextBlindLevel(), "schedule exhausted")
	assert.Equal(t, 1, g.BlindLevel)

	_, err := g.StartGame()
	require.NoError(t, err)
	d := g.DealerIndex
	assert.Equal(t, 20, g.Seats[d].CurrentBet, "level two blinds in force")
	assert.Equal(t, 60, g.Pot)
}

func TestLeaveBeforeStart(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	out, err := g.Leave(1)
	require.NoError(t, err)
	assert.False(t, out.HandOver)
	assert.False(t, g.Seats[1].Active)
}

func TestLeaveMidHandResolvesAsFold(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	other := (d + 1) % 2
	out, err := g.Leave(d)
	require.NoError(t, err)
	assert.True(t, out.HandOver)
	assert.True(t, out.FoldWin)
	assert.Equal(t, other, out.Winner)
	assert.Equal(t, 1010, g.Seats[other].Chips)
	assert.Equal(t, 2000, g.ChipsInPlay())
}

func TestLeaveUnknownSeat(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000)
	_, err := g.Leave(5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandRecordAssembly(t *testing.T) {
	t.Parallel()

	g := lifecycleGame(t, 1000, 1000, 1000)
	_, err := g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	sb, bb := (d+1)%3, (d+2)%3
	_, err = g.Apply(d, Fold, 0)
	require.NoError(t, err)
	_, err = g.Apply(sb, Fold, 0)
	require.NoError(t, err)

	h := g.CurrentHand
	require.NotNil(t, h)
	assert.True(t, h.Complete())
	assert.Equal(t, "g1", h.GameID)
	assert.Equal(t, 1, h.HandNumber)
	assert.Equal(t, 30, h.PotAmount)
	require.Len(t, h.Actions, 2)
	assert.Equal(t, "fold", h.Actions[0].Action)
	require.Len(t, h.Winners, 1)
	assert.Equal(t, g.Seats[bb].PlayerID, h.Winners[0].PlayerID)
	assert.Equal(t, 30, h.Winners[0].Amount)
}

func TestEventsPublishedThroughHand(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	var types []EventType
	bus.Subscribe(eventCollector{types: &types})

	g := NewGame("g1", "table", 9, testStructure(), rand.New(rand.NewSource(1)), WithEventBus(bus))
	for i := 0; i < 2; i++ {
		_, err := g.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("player-%d", i), 1000)
		require.NoError(t, err)
	}
	_, err := g.StartGame()
	require.NoError(t, err)
	g.eval = positionEval(g)
	driveHand(t, g)

	require.NotEmpty(t, types)
	assert.Equal(t, EventTypeHandStart, types[0])
	assert.Equal(t, EventTypeHandEnd, types[len(types)-1])
	assert.Contains(t, types, EventTypePlayerAction)
	assert.Contains(t, types, EventTypeStreetChange)
}

func TestRunoutReportsEachStreet(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	var streets []StreetChangeEvent
	bus.Subscribe(streetCollector{events: &streets})

	g := NewGame("g1", "table", 9, testStructure(), rand.New(rand.NewSource(1)), WithEventBus(bus))
	for i := 0; i < 2; i++ {
		_, err := g.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("player-%d", i), 1000)
		require.NoError(t, err)
	}
	_, err := g.StartGame()
	require.NoError(t, err)
	g.eval = positionEval(g)

	d := g.DealerIndex
	_, err = g.Apply(d, AllIn, 0)
	require.NoError(t, err)
	out, err := g.Apply((d+1)%2, Call, 0)
	require.NoError(t, err)
	require.True(t, out.HandOver)

	require.Len(t, streets, 3)
	wantRounds := []Round{Flop, Turn, River}
	wantBoard := []int{3, 4, 5}
	for i, e := range streets {
		assert.Equal(t, wantRounds[i], e.Round, "street %d", i)
		assert.Len(t, e.CommunityCards, wantBoard[i], "street %d", i)
	}
}

type eventCollector struct {
	types *[]EventType
}

func (c eventCollector) OnEvent(event GameEvent) {
	*c.types = append(*c.types, event.EventType())
}

type streetCollector struct {
	events *[]StreetChangeEvent
}

func (c streetCollector) OnEvent(event GameEvent) {
	if e, ok := event.(StreetChangeEvent); ok {
		*c.events = append(*c.events, e)
	}
}
