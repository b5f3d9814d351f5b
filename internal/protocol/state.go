package protocol

import (
	"github.com/feltworks/holdem/internal/deck"
	"github.com/feltworks/holdem/internal/game"
)

// PlayerState is one seat as a viewer sees it. HoleCards are only populated
// for the viewer's own seat, or once the hand reaches showdown for seats
// whose hands are tabled: live seats plus any folded seat that was awarded
// part of the pot.
type PlayerState struct {
	Position  int      `json:"position"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar,omitempty"`
	Chips     int      `json:"chips"`
	Bet       int      `json:"bet"`
	TotalBet  int      `json:"total_bet"`
	Folded    bool     `json:"folded"`
	AllIn     bool     `json:"all_in"`
	HoleCards []string `json:"hole_cards,omitempty"`
}

// GameState is the full redacted table snapshot pushed after every change.
type GameState struct {
	GameID     string        `json:"game_id"`
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	Round      string        `json:"round"`
	Pot        int           `json:"pot"`
	Board      []string      `json:"board"`
	Dealer     int           `json:"dealer"`
	Current    int           `json:"current"`
	HandNumber int           `json:"hand_number"`
	BlindLevel int           `json:"blind_level"`
	SmallBlind int           `json:"small_blind"`
	BigBlind   int           `json:"big_blind"`
	Players    []PlayerState `json:"players"`
}

// Snapshot renders the game for one viewer. viewerPos is -1 for spectators.
func Snapshot(g *game.Game, viewerPos int) GameState {
	level := game.BlindLevel{}
	if g.Structure != nil {
		level = g.Structure.LevelAt(g.BlindLevel)
	}
	state := GameState{
		GameID:     g.ID,
		Name:       g.Name,
		Status:     string(g.Status),
		Round:      g.Round.String(),
		Pot:        g.Pot,
		Board:      Cards(g.CommunityCards),
		Dealer:     g.DealerIndex,
		Current:    g.CurrentIndex,
		HandNumber: g.HandNum,
		BlindLevel: level.Level,
		SmallBlind: level.SmallBlind,
		BigBlind:   level.BigBlind,
	}

	showdown := g.Round == game.Showdown
	awarded := make(map[int]bool)
	if showdown && g.CurrentHand != nil {
		for _, w := range g.CurrentHand.Winners {
			awarded[w.Position] = true
		}
	}
	for _, s := range g.Seats {
		p := PlayerState{
			Position: s.Position,
			Name:     s.Name,
			Avatar:   s.Avatar,
			Chips:    s.Chips,
			Bet:      s.CurrentBet,
			TotalBet: s.TotalBet,
			Folded:   !s.Active,
			AllIn:    s.AllIn,
		}
		if s.Position == viewerPos || (showdown && (s.Active || awarded[s.Position])) {
			p.HoleCards = Cards(s.HoleCards)
		}
		state.Players = append(state.Players, p)
	}
	return state
}

// Cards renders cards as wire strings.
func Cards(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = string(c)
	}
	return out
}
