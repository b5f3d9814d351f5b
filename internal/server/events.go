package server

import (
	"github.com/feltworks/holdem/internal/game"
	"github.com/feltworks/holdem/internal/protocol"
)

// eventRelay translates engine events into wire messages. The engine
// publishes synchronously while the session lock is held, so the relay can
// read game state without further locking.
type eventRelay struct {
	session *session
}

func (r *eventRelay) OnEvent(event game.GameEvent) {
	sess := r.session
	g := sess.game

	switch e := event.(type) {
	case game.HandStartEvent:
		for playerID, conn := range sess.conns {
			msg := protocol.HandStart{
				GameID:     e.GameID,
				HandNumber: e.HandNumber,
				Button:     e.Dealer,
				SmallBlind: e.SmallBlind,
				BigBlind:   e.BigBlind,
				Ante:       e.Ante,
				YourSeat:   -1,
			}
			if seat := g.SeatByPlayer(playerID); seat != nil {
				msg.YourSeat = seat.Position
				msg.HoleCards = protocol.Cards(seat.HoleCards)
			}
			r.send(conn, protocol.TypeHandStart, msg)
		}

	case game.PlayerActionEvent:
		seat := g.Seats[e.Position]
		r.broadcast(protocol.TypePlayerAction, protocol.PlayerAction{
			GameID:      e.GameID,
			Position:    e.Position,
			PlayerName:  seat.Name,
			Action:      e.Action.String(),
			AmountPaid:  e.Amount,
			PlayerChips: seat.Chips,
			Pot:         e.PotAfter,
			Street:      e.Round.String(),
		})

	case game.StreetChangeEvent:
		r.broadcast(protocol.TypeStreetChange, protocol.StreetChange{
			GameID: e.GameID,
			Street: e.Round.String(),
			Board:  protocol.Cards(e.CommunityCards),
			Pot:    e.Pot,
		})

	case game.HandEndEvent:
		msg := protocol.HandResult{
			GameID:     e.GameID,
			HandNumber: e.HandNumber,
			ByFold:     e.ByFold,
			Board:      protocol.Cards(e.Board),
			GameOver:   g.Status == game.StatusFinished,
		}
		for _, a := range e.Awards {
			seat := g.Seats[a.Position]
			w := protocol.Winner{
				Position: a.Position,
				Name:     seat.Name,
				Amount:   a.Amount,
				HandRank: a.Rank,
			}
			if !e.ByFold {
				w.HoleCards = protocol.Cards(seat.HoleCards)
			}
			msg.Winners = append(msg.Winners, w)
		}
		r.broadcast(protocol.TypeHandResult, msg)

	case game.BlindLevelEvent:
		r.broadcast(protocol.TypeBlindLevel, protocol.BlindLevel{
			GameID:     e.GameID,
			Level:      e.Level.Level,
			SmallBlind: e.Level.SmallBlind,
			BigBlind:   e.Level.BigBlind,
			Ante:       e.Level.Ante,
		})
	}
}

func (r *eventRelay) broadcast(t protocol.MessageType, payload any) {
	for _, conn := range r.session.conns {
		r.send(conn, t, payload)
	}
}

func (r *eventRelay) send(conn Sender, t protocol.MessageType, payload any) {
	if err := conn.Send(t, payload); err != nil {
		r.session.log.Error("relaying event", "type", t, "error", err)
	}
}
