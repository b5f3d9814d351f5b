// Package protocol defines the JSON wire format between the server and its
// clients. Every frame is an Envelope whose Data field carries one of the
// typed payloads below.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the payload inside an envelope.
type MessageType string

const (
	// Client -> Server
	TypeConnect     MessageType = "connect"
	TypeCreateGame  MessageType = "create_game"
	TypeJoinGame    MessageType = "join_game"
	TypeStartGame   MessageType = "start_game"
	TypeAction      MessageType = "action"
	TypeLeaveGame   MessageType = "leave_game"
	TypeListGames   MessageType = "list_games"
	TypeHandHistory MessageType = "hand_history"

	// Server -> Client
	TypeWelcome       MessageType = "welcome"
	TypeGameList      MessageType = "game_list"
	TypeGameState     MessageType = "game_state"
	TypeHandStart     MessageType = "hand_start"
	TypeActionRequest MessageType = "action_request"
	TypePlayerAction  MessageType = "player_action"
	TypeStreetChange  MessageType = "street_change"
	TypeHandResult    MessageType = "hand_result"
	TypeBlindLevel    MessageType = "blind_level"
	TypeHands         MessageType = "hands"
	TypeError         MessageType = "error"
)

// Envelope is the outer frame of every message.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload in an envelope and marshals the whole frame.
func Encode(t MessageType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Data: data})
}

// Decode parses an envelope from a raw frame.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decoding envelope: missing type")
	}
	return env, nil
}

// Payload unmarshals the envelope's data into dst.
func (e Envelope) Payload(dst any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return nil
}

// Client -> Server payloads.

// Connect introduces the player. The server assigns the player ID and
// returns it in Welcome.
type Connect struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// CreateGame opens a new table.
type CreateGame struct {
	Name      string `json:"name"`
	Structure string `json:"structure,omitempty"` // normal, turbo or hyper
}

// JoinGame takes a seat at an existing table.
type JoinGame struct {
	GameID string `json:"game_id"`
}

// StartGame begins play. Only the creator may start a game.
type StartGame struct {
	GameID string `json:"game_id"`
}

// Action is a betting decision for the hand in progress.
type Action struct {
	GameID string `json:"game_id"`
	Action string `json:"action"` // fold, check, call, bet, raise, all-in
	Amount int    `json:"amount,omitempty"`
}

// LeaveGame gives up the player's seat.
type LeaveGame struct {
	GameID string `json:"game_id"`
}

// HandHistory requests recent completed hands for a table.
type HandHistory struct {
	GameID string `json:"game_id"`
	Limit  int    `json:"limit,omitempty"`
}

// Server -> Client payloads.

// Welcome acknowledges a connect.
type Welcome struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// GameSummary is one row of the lobby list.
type GameSummary struct {
	GameID    string `json:"game_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Players   int    `json:"players"`
	MaxPlayer int    `json:"max_players"`
}

// GameList answers list_games.
type GameList struct {
	Games []GameSummary `json:"games"`
}

// HandStart announces a fresh hand. HoleCards are the recipient's own.
type HandStart struct {
	GameID     string   `json:"game_id"`
	HandNumber int      `json:"hand_number"`
	Button     int      `json:"button"`
	SmallBlind int      `json:"small_blind"`
	BigBlind   int      `json:"big_blind"`
	Ante       int      `json:"ante,omitempty"`
	YourSeat   int      `json:"your_seat"`
	HoleCards  []string `json:"hole_cards,omitempty"`
}

// ActionRequest tells a player it is their turn.
type ActionRequest struct {
	GameID        string `json:"game_id"`
	Position      int    `json:"position"`
	ToCall        int    `json:"to_call"`
	MinBet        int    `json:"min_bet"`
	Pot           int    `json:"pot"`
	TimeRemaining int    `json:"time_remaining"` // seconds until auto-fold
}

// PlayerAction is broadcast after an action commits.
type PlayerAction struct {
	GameID      string `json:"game_id"`
	Position    int    `json:"position"`
	PlayerName  string `json:"player_name"`
	Action      string `json:"action"`
	AmountPaid  int    `json:"amount_paid"`
	PlayerChips int    `json:"player_chips"`
	Pot         int    `json:"pot"`
	Street      string `json:"street"`
}

// StreetChange is broadcast when community cards are dealt.
type StreetChange struct {
	GameID string   `json:"game_id"`
	Street string   `json:"street"`
	Board  []string `json:"board"`
	Pot    int      `json:"pot"`
}

// Winner is one seat's share of a settled hand.
type Winner struct {
	Position  int      `json:"position"`
	Name      string   `json:"name"`
	Amount    int      `json:"amount"`
	HandRank  string   `json:"hand_rank,omitempty"`
	HoleCards []string `json:"hole_cards,omitempty"`
}

// HandResult is broadcast once the pot is distributed.
type HandResult struct {
	GameID     string   `json:"game_id"`
	HandNumber int      `json:"hand_number"`
	ByFold     bool     `json:"by_fold,omitempty"`
	Winners    []Winner `json:"winners"`
	Board      []string `json:"board"`
	GameOver   bool     `json:"game_over,omitempty"`
}

// BlindLevel is broadcast when the blinds go up.
type BlindLevel struct {
	GameID     string `json:"game_id"`
	Level      int    `json:"level"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	Ante       int    `json:"ante,omitempty"`
}

// Error reports a rejected request. Code is stable; Message is for humans.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
