package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/feltworks/holdem/internal/game"
	"github.com/feltworks/holdem/internal/gameid"
	"github.com/feltworks/holdem/internal/protocol"
	"github.com/feltworks/holdem/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 16 * 1024
	sendBuffer     = 64
)

// Connection is one client over a websocket. Outbound messages go through a
// buffered channel so game-holding goroutines never block on a slow socket.
type Connection struct {
	ws      *websocket.Conn
	service *Service
	logger  *log.Logger

	playerID string
	name     string

	send   chan []byte
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

// NewConnection wraps an upgraded websocket.
func NewConnection(ws *websocket.Conn, service *Service, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ws:      ws,
		service: service,
		logger:  logger.WithPrefix("conn"),
		send:    make(chan []byte, sendBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run pumps the connection until either side closes it.
func (c *Connection) Run() {
	go c.writePump()
	c.readPump()
}

// Close tears the connection down. Safe to call more than once.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.cancel()
		if c.playerID != "" {
			c.service.Disconnect(c.playerID)
		}
		_ = c.ws.Close()
	})
}

// Done is closed when the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Send marshals and queues one message. A full buffer drops the connection
// rather than stalling the table.
func (c *Connection) Send(t protocol.MessageType, payload any) error {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.ctx.Done():
		return errors.New("connection closed")
	default:
		c.logger.Warn("send buffer full, dropping connection", "player", c.playerID)
		c.Close()
		return errors.New("send buffer full")
	}
}

func (c *Connection) readPump() {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read failed", "player", c.playerID, "error", err)
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) dispatch(raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		c.sendError("bad_request", err)
		return
	}

	if env.Type != protocol.TypeConnect && c.playerID == "" {
		c.sendError("not_connected", errors.New("connect first"))
		return
	}

	ctx := c.ctx
	switch env.Type {
	case protocol.TypeConnect:
		var req protocol.Connect
		if err := env.Payload(&req); err != nil {
			c.sendError("bad_request", err)
			return
		}
		if req.Name == "" {
			c.sendError("bad_request", errors.New("name is required"))
			return
		}
		c.playerID = gameid.New()
		c.name = req.Name
		c.logger.Info("player connected", "player", c.playerID, "name", c.name)
		_ = c.Send(protocol.TypeWelcome, protocol.Welcome{PlayerID: c.playerID, Name: c.name})

	case protocol.TypeCreateGame:
		var req protocol.CreateGame
		if err := env.Payload(&req); err != nil {
			c.sendError("bad_request", err)
			return
		}
		if _, err := c.service.CreateGame(ctx, c.playerID, c.name, req, c); err != nil {
			c.sendGameError(err)
		}

	case protocol.TypeJoinGame:
		var req protocol.JoinGame
		if err := env.Payload(&req); err != nil {
			c.sendError("bad_request", err)
			return
		}
		if err := c.service.JoinGame(ctx, req.GameID, c.playerID, c.name, c); err != nil {
			c.sendGameError(err)
		}

	case protocol.TypeStartGame:
		var req protocol.StartGame
		if err := env.Payload(&req); err != nil {
			c.sendError("bad_request", err)
			return
		}
		if err := c.service.StartGame(ctx, req.GameID, c.playerID); err != nil {
			c.sendGameError(err)
		}

	case protocol.TypeAction:
		var req protocol.Action
		if err := env.Payload(&req); err != nil {
			c.sendError("bad_request", err)
			return
		}
		if err := c.service.Action(ctx, req.GameID, c.playerID, req.Action, req.Amount); err != nil {
			c.sendGameError(err)
		}

	case protocol.TypeLeaveGame:
		var req protocol.LeaveGame
		if err := env.Payload(&req); err != nil {
			c.sendError("bad_request", err)
			return
		}
		if err := c.service.Leave(ctx, req.GameID, c.playerID); err != nil {
			c.sendGameError(err)
		}

	case protocol.TypeListGames:
		_ = c.Send(protocol.TypeGameList, protocol.GameList{Games: c.service.ListGames(ctx)})

	case protocol.TypeHandHistory:
		var req protocol.HandHistory
		if err := env.Payload(&req); err != nil {
			c.sendError("bad_request", err)
			return
		}
		hands, err := c.service.HandHistory(ctx, req.GameID, req.Limit)
		if err != nil {
			c.sendGameError(err)
			return
		}
		_ = c.Send(protocol.TypeHands, hands)

	default:
		c.sendError("bad_request", fmt.Errorf("unknown message type %q", env.Type))
	}
}

func (c *Connection) sendError(code string, err error) {
	_ = c.Send(protocol.TypeError, protocol.Error{Code: code, Message: err.Error()})
}

// sendGameError maps engine sentinels to stable wire codes.
func (c *Connection) sendGameError(err error) {
	code := "internal"
	switch {
	case errors.Is(err, game.ErrNotFound), errors.Is(err, store.ErrNotFound):
		code = "not_found"
	case errors.Is(err, game.ErrIllegalActor):
		code = "not_your_turn"
	case errors.Is(err, game.ErrIllegalAction):
		code = "illegal_action"
	case errors.Is(err, game.ErrBetTooLarge):
		code = "bet_too_large"
	case errors.Is(err, game.ErrRaiseTooSmall):
		code = "raise_too_small"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		code = "not_enough_players"
	case errors.Is(err, game.ErrInvalidAction):
		code = "invalid_action"
	case errors.Is(err, game.ErrGameFull):
		code = "game_full"
	case errors.Is(err, game.ErrAlreadyJoined):
		code = "already_joined"
	case errors.Is(err, game.ErrNotPlaying):
		code = "not_playing"
	case errors.Is(err, game.ErrAlreadyStarted):
		code = "already_started"
	}
	c.sendError(code, err)
}
