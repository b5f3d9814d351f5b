package game

import (
	"time"

	"github.com/feltworks/holdem/internal/deck"
)

// EventType identifies a game event.
type EventType string

const (
	EventTypeHandStart    EventType = "hand_start"
	EventTypePlayerAction EventType = "player_action"
	EventTypeStreetChange EventType = "street_change"
	EventTypeHandEnd      EventType = "hand_end"
	EventTypeBlindLevel   EventType = "blind_level"
)

func (et EventType) String() string { return string(et) }

// GameEvent is anything the engine reports about a game in progress. Events
// are an observability hook only: the engine never depends on a subscriber
// for correctness.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// HandStartEvent is published when a hand's blinds are posted and cards dealt.
type HandStartEvent struct {
	GameID     string
	HandNumber int
	Dealer     int
	SmallBlind int
	BigBlind   int
	Ante       int
	timestamp  time.Time
}

func (e HandStartEvent) EventType() EventType { return EventTypeHandStart }
func (e HandStartEvent) Timestamp() time.Time { return e.timestamp }

// PlayerActionEvent is published after an action has been committed.
type PlayerActionEvent struct {
	GameID    string
	Position  int
	Action    Action
	Amount    int
	Round     Round
	PotAfter  int
	timestamp time.Time
}

func (e PlayerActionEvent) EventType() EventType { return EventTypePlayerAction }
func (e PlayerActionEvent) Timestamp() time.Time { return e.timestamp }

// StreetChangeEvent is published when community cards are dealt.
type StreetChangeEvent struct {
	GameID         string
	Round          Round
	CommunityCards []deck.Card
	Pot            int
	timestamp      time.Time
}

func (e StreetChangeEvent) EventType() EventType { return EventTypeStreetChange }
func (e StreetChangeEvent) Timestamp() time.Time { return e.timestamp }

func newStreetChangeEvent(gameID string, round Round, board []deck.Card, pot int) StreetChangeEvent {
	cards := make([]deck.Card, len(board))
	copy(cards, board)
	return StreetChangeEvent{
		GameID:         gameID,
		Round:          round,
		CommunityCards: cards,
		Pot:            pot,
		timestamp:      time.Now(),
	}
}

// HandEndEvent is published once the pot has been fully distributed.
type HandEndEvent struct {
	GameID     string
	HandNumber int
	ByFold     bool
	Awards     []Award
	Board      []deck.Card
	timestamp  time.Time
}

func (e HandEndEvent) EventType() EventType { return EventTypeHandEnd }
func (e HandEndEvent) Timestamp() time.Time { return e.timestamp }

// BlindLevelEvent is published when the blind level advances.
type BlindLevelEvent struct {
	GameID    string
	Level     BlindLevel
	timestamp time.Time
}

func (e BlindLevelEvent) EventType() EventType { return EventTypeBlindLevel }
func (e BlindLevelEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber receives game events.
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus fans events out to subscribers.
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a synchronous in-memory event bus.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() EventBus {
	return &SimpleEventBus{}
}

func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
