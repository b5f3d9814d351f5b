package game

import (
	"time"

	"github.com/feltworks/holdem/internal/deck"
)

// WinnerRecord is one seat's winnings in a completed hand.
type WinnerRecord struct {
	Position int    `json:"position"`
	PlayerID string `json:"player_id"`
	Amount   int    `json:"amount"`
	HandRank string `json:"hand_rank,omitempty"`
}

// ActionRecord is one entry of a hand's action log.
type ActionRecord struct {
	Position int    `json:"position"`
	PlayerID string `json:"player_id"`
	Action   string `json:"action"`
	Amount   int    `json:"amount"`
	Round    string `json:"round"`
}

// PotRecord is a settled pot tier.
type PotRecord struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// HandRecord is the full history of one hand, assembled by the lifecycle
// controller and persisted through the store once the hand completes.
type HandRecord struct {
	GameID         string         `json:"game_id"`
	HandNumber     int            `json:"hand_number"`
	Winners        []WinnerRecord `json:"winners"`
	PotAmount      int            `json:"pot_amount"`
	SidePots       []PotRecord    `json:"side_pots,omitempty"`
	CommunityCards []deck.Card    `json:"community_cards"`
	Actions        []ActionRecord `json:"actions"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    time.Time      `json:"completed_at,omitempty"`
}

// Complete reports whether the hand has finished.
func (h *HandRecord) Complete() bool {
	return h != nil && !h.CompletedAt.IsZero()
}

func (g *Game) beginHandRecord() {
	g.CurrentHand = &HandRecord{
		GameID:     g.ID,
		HandNumber: g.HandNum,
		CreatedAt:  time.Now(),
	}
}

func (g *Game) recordAction(s *Seat, action Action, amount int) {
	if g.CurrentHand == nil {
		return
	}
	g.CurrentHand.Actions = append(g.CurrentHand.Actions, ActionRecord{
		Position: s.Position,
		PlayerID: s.PlayerID,
		Action:   action.String(),
		Amount:   amount,
		Round:    g.Round.String(),
	})
}

func (g *Game) completeHandRecord(potBefore int, awards []Award) {
	if g.CurrentHand == nil {
		return
	}
	h := g.CurrentHand
	h.PotAmount = potBefore
	h.CommunityCards = append([]deck.Card{}, g.CommunityCards...)
	for _, p := range g.SidePots {
		h.SidePots = append(h.SidePots, PotRecord{Amount: p.Amount, Eligible: p.Eligible})
	}
	for _, a := range awards {
		h.Winners = append(h.Winners, WinnerRecord{
			Position: a.Position,
			PlayerID: g.Seats[a.Position].PlayerID,
			Amount:   a.Amount,
			HandRank: a.Rank,
		})
	}
	h.CompletedAt = time.Now()
}
