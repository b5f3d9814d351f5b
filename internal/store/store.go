// Package store persists game summaries and hand histories. The engine never
// touches storage; the server writes through a Store at hand boundaries.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/feltworks/holdem/internal/game"
)

// ErrNotFound is returned when a game or hand does not exist.
var ErrNotFound = errors.New("store: not found")

// GameRecord is the persisted summary of one table.
type GameRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	StructureID string    `json:"structure_id"`
	CreatedBy   string    `json:"created_by"`
	HandCount   int       `json:"hand_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is the persistence boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveGame(ctx context.Context, rec GameRecord) error
	Game(ctx context.Context, id string) (GameRecord, error)
	Games(ctx context.Context, limit int) ([]GameRecord, error)

	SaveHand(ctx context.Context, hand *game.HandRecord) error
	Hands(ctx context.Context, gameID string, limit int) ([]*game.HandRecord, error)

	Close()
}
