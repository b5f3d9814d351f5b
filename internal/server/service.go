package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/feltworks/holdem/internal/game"
	"github.com/feltworks/holdem/internal/gameid"
	"github.com/feltworks/holdem/internal/protocol"
	"github.com/feltworks/holdem/internal/store"
)

// Sender delivers a protocol message to one client. Connections implement
// it; tests substitute recorders.
type Sender interface {
	Send(t protocol.MessageType, payload any) error
}

// Service owns every table the server hosts. All game access goes through a
// per-session mutex: the engine itself is single-threaded by contract.
type Service struct {
	cfg    *Config
	logger *log.Logger
	store  store.Store
	clock  quartz.Clock

	structures map[string]*game.Structure

	mu       sync.Mutex
	sessions map[string]*session
	seed     *rand.Rand
}

// NewService creates the game service. The clock drives turn timeouts, blind
// increases and hand scheduling; pass a mock in tests.
func NewService(cfg *Config, st store.Store, logger *log.Logger, clock quartz.Clock, seed int64) *Service {
	structures := make(map[string]*game.Structure)
	for _, s := range game.DefaultStructures() {
		structures[s.ID] = s
	}
	return &Service{
		cfg:        cfg,
		logger:     logger.WithPrefix("service"),
		store:      st,
		clock:      clock,
		structures: structures,
		sessions:   make(map[string]*session),
		seed:       rand.New(rand.NewSource(seed)),
	}
}

// session pairs one game with its connected players and timers.
type session struct {
	svc *Service
	log *log.Logger

	mu      sync.Mutex
	game    *game.Game
	creator string
	conns   map[string]Sender

	turnTimer  *quartz.Timer
	levelTimer *quartz.Timer
	handTimer  *quartz.Timer
}

// CreateGame opens a table and seats its creator.
func (s *Service) CreateGame(ctx context.Context, playerID, playerName string, req protocol.CreateGame, conn Sender) (string, error) {
	structureID := req.Structure
	if structureID == "" {
		structureID = s.cfg.Game.Structure
	}
	structure, ok := s.structures[structureID]
	if !ok {
		return "", fmt.Errorf("unknown blind structure %q", structureID)
	}
	name := req.Name
	if name == "" {
		name = playerName + "'s table"
	}

	s.mu.Lock()
	rng := rand.New(rand.NewSource(s.seed.Int63()))
	s.mu.Unlock()

	id := gameid.New()
	sess := &session{
		svc:   s,
		log:   s.logger.With("game", id),
		conns: make(map[string]Sender),
	}
	bus := game.NewEventBus()
	bus.Subscribe(&eventRelay{session: sess})
	sess.game = game.NewGame(id, name, s.cfg.Game.MaxPlayers, structure, rng,
		game.WithEventBus(bus), game.WithCreator(playerID))
	sess.creator = playerID

	if _, err := sess.game.Join(playerID, playerName, s.cfg.Game.BuyIn); err != nil {
		return "", err
	}
	sess.conns[playerID] = conn

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.persistGame(ctx, sess.game, structureID)
	s.logger.Info("game created", "game", id, "name", name, "structure", structureID, "creator", playerID)

	sess.mu.Lock()
	sess.broadcastState()
	sess.mu.Unlock()
	return id, nil
}

// JoinGame seats a player at an existing table with the configured buy-in.
func (s *Service) JoinGame(ctx context.Context, gameID, playerID, playerName string, conn Sender) error {
	sess, err := s.session(gameID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, err := sess.game.Join(playerID, playerName, s.cfg.Game.BuyIn); err != nil {
		return err
	}
	sess.conns[playerID] = conn
	sess.log.Info("player joined", "player", playerID, "seats", len(sess.game.Seats))
	sess.broadcastState()
	return nil
}

// StartGame begins play. Only the creator may start.
func (s *Service) StartGame(ctx context.Context, gameID, playerID string) error {
	sess, err := s.session(gameID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if playerID != sess.creator {
		return fmt.Errorf("%w: only the creator can start the game", game.ErrIllegalAction)
	}
	out, err := sess.game.StartGame()
	if err != nil {
		return err
	}
	sess.log.Info("game started", "players", len(sess.game.Seats), "dealer", sess.game.DealerIndex)

	sess.scheduleLevelTimer()
	s.persistGame(ctx, sess.game, sess.game.Structure.ID)
	sess.broadcastState()
	sess.afterChange(ctx, out)
	return nil
}

// Action applies a betting decision from a player.
func (s *Service) Action(ctx context.Context, gameID, playerID, actionName string, amount int) error {
	sess, err := s.session(gameID)
	if err != nil {
		return err
	}
	action, err := game.ParseAction(actionName)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	seat := sess.game.SeatByPlayer(playerID)
	if seat == nil {
		return fmt.Errorf("%w: player %s has no seat", game.ErrNotFound, playerID)
	}
	out, err := sess.game.Apply(seat.Position, action, amount)
	if err != nil {
		return err
	}
	sess.broadcastState()
	sess.afterChange(ctx, out)
	return nil
}

// Leave removes a player from a table. If a hand is running their seat is
// folded out.
func (s *Service) Leave(ctx context.Context, gameID, playerID string) error {
	sess, err := s.session(gameID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	seat := sess.game.SeatByPlayer(playerID)
	if seat == nil {
		return fmt.Errorf("%w: player %s has no seat", game.ErrNotFound, playerID)
	}
	delete(sess.conns, playerID)
	out, err := sess.game.Leave(seat.Position)
	if err != nil {
		return err
	}
	sess.log.Info("player left", "player", playerID, "seat", seat.Position)
	sess.broadcastState()
	sess.afterChange(ctx, out)
	return nil
}

// Disconnect drops a player's connection from every session. Their seat
// stays; a running hand folds them out through Leave semantics only when
// they explicitly leave.
func (s *Service) Disconnect(playerID string) {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		delete(sess.conns, playerID)
		sess.mu.Unlock()
	}
}

// ListGames summarizes every hosted table for the lobby.
func (s *Service) ListGames(ctx context.Context) []protocol.GameSummary {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	var out []protocol.GameSummary
	for _, sess := range sessions {
		sess.mu.Lock()
		out = append(out, protocol.GameSummary{
			GameID:    sess.game.ID,
			Name:      sess.game.Name,
			Status:    string(sess.game.Status),
			Players:   len(sess.game.Seats),
			MaxPlayer: sess.game.MaxPlayers,
		})
		sess.mu.Unlock()
	}
	return out
}

// HandHistory returns recent completed hands for a table.
func (s *Service) HandHistory(ctx context.Context, gameID string, limit int) ([]*game.HandRecord, error) {
	if _, err := s.session(gameID); err != nil {
		return nil, err
	}
	return s.store.Hands(ctx, gameID, limit)
}

// State renders the current table snapshot for one viewer.
func (s *Service) State(gameID, playerID string) (protocol.GameState, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return protocol.GameState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	pos := -1
	if seat := sess.game.SeatByPlayer(playerID); seat != nil {
		pos = seat.Position
	}
	return protocol.Snapshot(sess.game, pos), nil
}

func (s *Service) session(gameID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return sess, nil
}

func (s *Service) persistGame(ctx context.Context, g *game.Game, structureID string) {
	err := s.store.SaveGame(ctx, store.GameRecord{
		ID:          g.ID,
		Name:        g.Name,
		Status:      string(g.Status),
		StructureID: structureID,
		CreatedBy:   g.CreatedBy,
		HandCount:   g.HandNum,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	})
	if err != nil {
		s.logger.Error("saving game", "game", g.ID, "error", err)
	}
}

// afterChange handles the shared post-mutation bookkeeping: hand completion,
// persistence, the next-hand schedule and the turn timer. Callers hold the
// session lock.
func (sess *session) afterChange(ctx context.Context, out *game.Outcome) {
	if out != nil && out.HandOver {
		sess.stopTurnTimer()
		sess.persistHand(ctx)

		if out.NextHand {
			delay := sess.svc.cfg.Game.HandDelay()
			sess.handTimer = sess.svc.clock.AfterFunc(delay, sess.nextHand)
		} else {
			sess.log.Info("game over", "hands", sess.game.HandNum)
			sess.stopTimers()
			sess.svc.persistGame(ctx, sess.game, sess.game.Structure.ID)
		}
		return
	}
	sess.scheduleTurnTimer()
}

// nextHand deals the following hand once the inter-hand delay elapses.
func (sess *session) nextHand() {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.game.StartHand(); err != nil {
		if !errors.Is(err, game.ErrNotPlaying) {
			sess.log.Error("starting hand", "error", err)
		}
		return
	}
	out, err := sess.game.DealHand()
	if err != nil {
		sess.log.Error("dealing hand", "error", err)
		return
	}
	sess.broadcastState()
	sess.afterChange(context.Background(), out)
}

// scheduleTurnTimer arms the auto-fold for the pending actor.
func (sess *session) scheduleTurnTimer() {
	sess.stopTurnTimer()
	pos := sess.game.CurrentIndex
	if pos < 0 || sess.game.Status != game.StatusPlaying {
		return
	}
	hand := sess.game.HandNum
	timeout := sess.svc.cfg.Game.TurnTimeout()

	sess.turnTimer = sess.svc.clock.AfterFunc(timeout, func() {
		sess.timeoutFold(pos, hand)
	})
	sess.sendActionRequest(pos, timeout)
}

// timeoutFold folds the actor that let the clock run out. The position and
// hand number guard against the timer racing a real action.
func (sess *session) timeoutFold(pos, hand int) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.game.CurrentIndex != pos || sess.game.HandNum != hand {
		return
	}
	sess.log.Warn("turn timeout, folding", "seat", pos)
	out, err := sess.game.Apply(pos, game.Fold, 0)
	if err != nil {
		sess.log.Error("timeout fold", "seat", pos, "error", err)
		return
	}
	sess.broadcastState()
	sess.afterChange(context.Background(), out)
}

// scheduleLevelTimer arms the periodic blind increase.
func (sess *session) scheduleLevelTimer() {
	structure := sess.game.Structure
	if structure == nil || structure.BlindDuration <= 0 {
		return
	}
	sess.levelTimer = sess.svc.clock.AfterFunc(structure.BlindDuration, sess.raiseBlinds)
}

func (sess *session) raiseBlinds() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.game.Status != game.StatusPlaying {
		return
	}
	if !sess.game.NextBlindLevel() {
		sess.log.Info("blind schedule exhausted", "level", sess.game.BlindLevel)
		return
	}
	level := sess.game.Structure.LevelAt(sess.game.BlindLevel)
	sess.log.Info("blinds up", "level", level.Level, "small", level.SmallBlind, "big", level.BigBlind)
	sess.scheduleLevelTimer()
}

func (sess *session) stopTurnTimer() {
	if sess.turnTimer != nil {
		sess.turnTimer.Stop()
		sess.turnTimer = nil
	}
}

func (sess *session) stopTimers() {
	sess.stopTurnTimer()
	if sess.levelTimer != nil {
		sess.levelTimer.Stop()
		sess.levelTimer = nil
	}
	if sess.handTimer != nil {
		sess.handTimer.Stop()
		sess.handTimer = nil
	}
}

func (sess *session) persistHand(ctx context.Context) {
	hand := sess.game.CurrentHand
	if hand == nil || !hand.Complete() {
		return
	}
	if err := sess.svc.store.SaveHand(ctx, hand); err != nil {
		sess.log.Error("saving hand", "hand", hand.HandNumber, "error", err)
	}
	sess.svc.persistGame(ctx, sess.game, sess.game.Structure.ID)
}

// broadcastState pushes a personalized snapshot to every connected player.
func (sess *session) broadcastState() {
	for playerID, conn := range sess.conns {
		pos := -1
		if seat := sess.game.SeatByPlayer(playerID); seat != nil {
			pos = seat.Position
		}
		state := protocol.Snapshot(sess.game, pos)
		if err := conn.Send(protocol.TypeGameState, state); err != nil {
			sess.log.Error("sending state", "player", playerID, "error", err)
		}
	}
}

func (sess *session) sendActionRequest(pos int, timeout time.Duration) {
	seat := sess.game.Seats[pos]
	conn, ok := sess.conns[seat.PlayerID]
	if !ok {
		return
	}
	level := sess.game.Structure.LevelAt(sess.game.BlindLevel)
	req := protocol.ActionRequest{
		GameID:        sess.game.ID,
		Position:      pos,
		ToCall:        game.HighestBet(sess.game.Seats) - seat.CurrentBet,
		MinBet:        level.BigBlind,
		Pot:           sess.game.Pot,
		TimeRemaining: int(timeout.Seconds()),
	}
	if err := conn.Send(protocol.TypeActionRequest, req); err != nil {
		sess.log.Error("sending action request", "player", seat.PlayerID, "error", err)
	}
}
