package protocol

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltworks/holdem/internal/deck"
	"github.com/feltworks/holdem/internal/game"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := Encode(TypeAction, Action{GameID: "g1", Action: "raise", Amount: 60})
	require.NoError(t, err)

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeAction, env.Type)

	var a Action
	require.NoError(t, env.Payload(&a))
	assert.Equal(t, "g1", a.GameID)
	assert.Equal(t, "raise", a.Action)
	assert.Equal(t, 60, a.Amount)
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err, "missing type")
}

func TestSnapshotRedactsHoleCards(t *testing.T) {
	t.Parallel()

	structure := game.DefaultStructures()[0]
	g := game.NewGame("g1", "table", 9, structure, rand.New(rand.NewSource(7)))
	_, err := g.Join("p0", "alice", 1000)
	require.NoError(t, err)
	_, err = g.Join("p1", "bob", 1000)
	require.NoError(t, err)
	_, err = g.StartGame()
	require.NoError(t, err)

	state := Snapshot(g, 0)
	require.Len(t, state.Players, 2)
	assert.Len(t, state.Players[0].HoleCards, 2, "viewer sees own cards")
	assert.Empty(t, state.Players[1].HoleCards, "opponent cards hidden")
	assert.Equal(t, "preflop", state.Round)
	assert.Equal(t, 75, state.Pot, "level one blinds posted")

	spectator := Snapshot(g, -1)
	for _, p := range spectator.Players {
		assert.Empty(t, p.HoleCards)
	}
}

func TestSnapshotShowsLiveHandsAtShowdown(t *testing.T) {
	t.Parallel()

	structure := game.DefaultStructures()[0]
	g := game.NewGame("g1", "table", 9, structure, rand.New(rand.NewSource(7)))
	_, err := g.Join("p0", "alice", 1000)
	require.NoError(t, err)
	_, err = g.Join("p1", "bob", 1000)
	require.NoError(t, err)
	_, err = g.StartGame()
	require.NoError(t, err)

	d := g.DealerIndex
	_, err = g.Apply(d, game.AllIn, 0)
	require.NoError(t, err)
	out, err := g.Apply((d+1)%2, game.Call, 0)
	require.NoError(t, err)
	require.True(t, out.HandOver)

	state := Snapshot(g, -1)
	for _, p := range state.Players {
		assert.Len(t, p.HoleCards, 2, "showdown reveals live hands")
	}
}

func TestSnapshotShowsAwardedFoldedSeatAtShowdown(t *testing.T) {
	t.Parallel()

	structure := game.DefaultStructures()[0]
	g := game.NewGame("g1", "table", 9, structure, rand.New(rand.NewSource(7)))
	hole := [][]deck.Card{
		{"AS", "KS"},
		{"QD", "QH"},
		{"9C", "9D"},
		{"2C", "7D"},
	}
	for i := 0; i < 4; i++ {
		_, err := g.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("p%d", i), 1000)
		require.NoError(t, err)
		g.Seats[i].HoleCards = hole[i]
	}

	// Seat 2 funded a pot tier that no live seat could contest, so its hand
	// was evaluated at showdown and part of the pot came back to it. Seat 3
	// folded and won nothing.
	g.Status = game.StatusPlaying
	g.Round = game.Showdown
	g.Seats[2].Active = false
	g.Seats[3].Active = false
	g.CurrentHand = &game.HandRecord{
		GameID:     "g1",
		HandNumber: 1,
		Winners: []game.WinnerRecord{
			{Position: 0, PlayerID: "p0", Amount: 300},
			{Position: 2, PlayerID: "p2", Amount: 40},
		},
	}

	state := Snapshot(g, -1)
	assert.Len(t, state.Players[0].HoleCards, 2, "live winner is tabled")
	assert.Len(t, state.Players[1].HoleCards, 2, "live loser is tabled")
	assert.Len(t, state.Players[2].HoleCards, 2, "awarded folded seat is tabled")
	assert.Empty(t, state.Players[3].HoleCards, "mucked hand stays hidden")
}
