package store

import (
	"context"
	"sort"
	"sync"

	"github.com/feltworks/holdem/internal/game"
)

// Memory is an in-process Store for tests and servers run without a
// database.
type Memory struct {
	mu    sync.RWMutex
	games map[string]GameRecord
	hands map[string][]*game.HandRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		games: make(map[string]GameRecord),
		hands: make(map[string][]*game.HandRecord),
	}
}

func (m *Memory) SaveGame(ctx context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[rec.ID] = rec
	return nil
}

func (m *Memory) Game(ctx context.Context, id string) (GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[id]
	if !ok {
		return GameRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Games(ctx context.Context, limit int) ([]GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]GameRecord, 0, len(m.games))
	for _, rec := range m.games {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SaveHand(ctx context.Context, hand *game.HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *hand
	m.hands[hand.GameID] = append(m.hands[hand.GameID], &copied)
	return nil
}

// Hands returns the most recent hands for a game, newest first.
func (m *Memory) Hands(ctx context.Context, gameID string, limit int) ([]*game.HandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.hands[gameID]
	out := make([]*game.HandRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Close() {}
