package server

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltworks/holdem/internal/deck"
	"github.com/feltworks/holdem/internal/game"
	"github.com/feltworks/holdem/internal/protocol"
	"github.com/feltworks/holdem/internal/store"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []sentMsg
}

type sentMsg struct {
	t       protocol.MessageType
	payload any
}

func (f *fakeSender) Send(t protocol.MessageType, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sentMsg{t: t, payload: payload})
	return nil
}

func (f *fakeSender) count(t protocol.MessageType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.msgs {
		if m.t == t {
			n++
		}
	}
	return n
}

func (f *fakeSender) last(t protocol.MessageType) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].t == t {
			return f.msgs[i].payload, true
		}
	}
	return nil, false
}

func newTestService(t *testing.T, clock quartz.Clock) *Service {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	return NewService(DefaultConfig(), store.NewMemory(), logger, clock, 42)
}

// startHeadsUp creates a two-player game and starts it, returning the game
// ID and both fake connections keyed by player ID.
func startHeadsUp(t *testing.T, svc *Service) (string, map[string]*fakeSender) {
	t.Helper()
	ctx := context.Background()
	alice, bob := &fakeSender{}, &fakeSender{}

	gameID, err := svc.CreateGame(ctx, "alice", "Alice", protocol.CreateGame{Name: "test table"}, alice)
	require.NoError(t, err)
	require.NoError(t, svc.JoinGame(ctx, gameID, "bob", "Bob", bob))
	require.NoError(t, svc.StartGame(ctx, gameID, "alice"))

	return gameID, map[string]*fakeSender{"alice": alice, "bob": bob}
}

func (s *Service) gameFor(t *testing.T, gameID string) *game.Game {
	t.Helper()
	sess, err := s.session(gameID)
	require.NoError(t, err)
	return sess.game
}

func TestCreateJoinStartFlow(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, quartz.NewMock(t))
	ctx := context.Background()
	alice, bob := &fakeSender{}, &fakeSender{}

	gameID, err := svc.CreateGame(ctx, "alice", "Alice", protocol.CreateGame{}, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, alice.count(protocol.TypeGameState))

	require.NoError(t, svc.JoinGame(ctx, gameID, "bob", "Bob", bob))
	assert.Equal(t, 1, bob.count(protocol.TypeGameState))

	// Only the creator can start.
	err = svc.StartGame(ctx, gameID, "bob")
	assert.ErrorIs(t, err, game.ErrIllegalAction)

	require.NoError(t, svc.StartGame(ctx, gameID, "alice"))

	// Everyone gets a hand start with only their own hole cards.
	for player, conn := range map[string]*fakeSender{"alice": alice, "bob": bob} {
		payload, ok := conn.last(protocol.TypeHandStart)
		require.True(t, ok, player)
		hs := payload.(protocol.HandStart)
		assert.Len(t, hs.HoleCards, 2, player)
		assert.Equal(t, 1, hs.HandNumber)
	}

	g := svc.gameFor(t, gameID)
	actor := g.Seats[g.CurrentIndex].PlayerID
	conn := map[string]*fakeSender{"alice": alice, "bob": bob}[actor]
	payload, ok := conn.last(protocol.TypeActionRequest)
	require.True(t, ok)
	req := payload.(protocol.ActionRequest)
	assert.Equal(t, g.CurrentIndex, req.Position)
	assert.Equal(t, 25, req.ToCall, "small blind owes half the big blind")
}

func TestFoldEndsHandAndSchedulesNext(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	svc := newTestService(t, clock)
	ctx := context.Background()

	gameID, conns := startHeadsUp(t, svc)
	g := svc.gameFor(t, gameID)

	actor := g.Seats[g.CurrentIndex].PlayerID
	require.NoError(t, svc.Action(ctx, gameID, actor, "fold", 0))

	payload, ok := conns["alice"].last(protocol.TypeHandResult)
	require.True(t, ok)
	result := payload.(protocol.HandResult)
	assert.True(t, result.ByFold)
	require.Len(t, result.Winners, 1)
	assert.Equal(t, 75, result.Winners[0].Amount)

	hands, err := svc.HandHistory(ctx, gameID, 10)
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Equal(t, 1, hands[0].HandNumber)

	// The next hand deals after the configured delay.
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	clock.Advance(svc.cfg.Game.HandDelay()).MustWait(waitCtx)
	assert.Equal(t, 2, g.HandNum)
	assert.Equal(t, 2, conns["bob"].count(protocol.TypeHandStart))
}

func TestTurnTimeoutFoldsActor(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	svc := newTestService(t, clock)

	gameID, conns := startHeadsUp(t, svc)
	g := svc.gameFor(t, gameID)
	before := g.HandNum

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(svc.cfg.Game.TurnTimeout()).MustWait(waitCtx)

	payload, ok := conns["alice"].last(protocol.TypeHandResult)
	require.True(t, ok, "timeout should end the heads-up hand")
	result := payload.(protocol.HandResult)
	assert.True(t, result.ByFold)
	assert.Equal(t, before, result.HandNumber)
}

func TestActionValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, quartz.NewMock(t))
	ctx := context.Background()

	err := svc.Action(ctx, "no-such-game", "alice", "fold", 0)
	assert.ErrorIs(t, err, game.ErrNotFound)

	gameID, _ := startHeadsUp(t, svc)
	g := svc.gameFor(t, gameID)

	waiting := g.Seats[(g.CurrentIndex+1)%2].PlayerID
	err = svc.Action(ctx, gameID, waiting, "check", 0)
	assert.ErrorIs(t, err, game.ErrIllegalActor)

	err = svc.Action(ctx, gameID, waiting, "limp", 0)
	assert.ErrorIs(t, err, game.ErrInvalidAction)
}

func TestLeaveDuringHandFoldsPlayer(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, quartz.NewMock(t))
	ctx := context.Background()

	gameID, conns := startHeadsUp(t, svc)
	g := svc.gameFor(t, gameID)

	actor := g.Seats[g.CurrentIndex].PlayerID
	require.NoError(t, svc.Leave(ctx, gameID, actor))

	other := "alice"
	if actor == "alice" {
		other = "bob"
	}
	payload, ok := conns[other].last(protocol.TypeHandResult)
	require.True(t, ok)
	assert.True(t, payload.(protocol.HandResult).ByFold)
}

func TestListGames(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, quartz.NewMock(t))
	ctx := context.Background()

	assert.Empty(t, svc.ListGames(ctx))

	_, err := svc.CreateGame(ctx, "alice", "Alice", protocol.CreateGame{Name: "one"}, &fakeSender{})
	require.NoError(t, err)
	_, err = svc.CreateGame(ctx, "bob", "Bob", protocol.CreateGame{Name: "two", Structure: "turbo"}, &fakeSender{})
	require.NoError(t, err)

	games := svc.ListGames(ctx)
	require.Len(t, games, 2)
	for _, g := range games {
		assert.Equal(t, "waiting", g.Status)
		assert.Equal(t, 1, g.Players)
	}
}

func TestCreateGameRejectsUnknownStructure(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, quartz.NewMock(t))
	_, err := svc.CreateGame(context.Background(), "alice", "Alice",
		protocol.CreateGame{Structure: "nosebleed"}, &fakeSender{})
	assert.Error(t, err)
}

func TestHandResultTablesAwardedFoldedSeat(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, quartz.NewMock(t))
	conn := &fakeSender{}

	g := game.NewGame("g1", "table", 9, game.DefaultStructures()[0], rand.New(rand.NewSource(7)))
	for i := 0; i < 3; i++ {
		_, err := g.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("p%d", i), 1000)
		require.NoError(t, err)
	}
	g.Seats[2].HoleCards = []deck.Card{"9C", "9D"}
	g.Seats[2].Active = false

	sess := &session{
		svc:   svc,
		log:   svc.logger,
		game:  g,
		conns: map[string]Sender{"p0": conn},
	}

	// A folded seat can still win a pot tier nobody live was eligible for;
	// its evaluated hand is tabled with the result.
	relay := &eventRelay{session: sess}
	relay.OnEvent(game.HandEndEvent{
		GameID:     "g1",
		HandNumber: 1,
		Awards:     []game.Award{{Position: 2, Amount: 40, Rank: "Pair"}},
	})

	payload, ok := conn.last(protocol.TypeHandResult)
	require.True(t, ok)
	result := payload.(protocol.HandResult)
	require.Len(t, result.Winners, 1)
	assert.Equal(t, 2, result.Winners[0].Position)
	assert.Len(t, result.Winners[0].HoleCards, 2)
}

func TestStateRedactsForViewer(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, quartz.NewMock(t))
	gameID, _ := startHeadsUp(t, svc)

	state, err := svc.State(gameID, "alice")
	require.NoError(t, err)
	var mine, theirs []string
	for _, p := range state.Players {
		if p.Name == "Alice" {
			mine = p.HoleCards
		} else {
			theirs = p.HoleCards
		}
	}
	assert.Len(t, mine, 2)
	assert.Empty(t, theirs)

	spectator, err := svc.State(gameID, "nobody")
	require.NoError(t, err)
	for _, p := range spectator.Players {
		assert.Empty(t, p.HoleCards)
	}
}
