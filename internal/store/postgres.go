package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feltworks/holdem/internal/deck"
	"github.com/feltworks/holdem/internal/game"
)

//go:embed schema.sql
var schema embed.FS

// Postgres is the production Store, backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate applies the embedded schema. Statements are idempotent so this
// runs on every startup.
func (p *Postgres) Migrate(ctx context.Context) error {
	ddl, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (p *Postgres) SaveGame(ctx context.Context, rec GameRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO games(id, name, status, structure_id, created_by, hand_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE
		  SET status = EXCLUDED.status,
		      hand_count = EXCLUDED.hand_count,
		      updated_at = EXCLUDED.updated_at
	`, rec.ID, rec.Name, rec.Status, rec.StructureID, rec.CreatedBy, rec.HandCount, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (p *Postgres) Game(ctx context.Context, id string) (GameRecord, error) {
	var rec GameRecord
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, status, structure_id, created_by, hand_count, created_at, updated_at
		  FROM games WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Name, &rec.Status, &rec.StructureID, &rec.CreatedBy,
		&rec.HandCount, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return GameRecord{}, ErrNotFound
	}
	return rec, err
}

func (p *Postgres) Games(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, status, structure_id, created_by, hand_count, created_at, updated_at
		  FROM games ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		var rec GameRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Status, &rec.StructureID, &rec.CreatedBy,
			&rec.HandCount, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveHand(ctx context.Context, hand *game.HandRecord) error {
	winners, err := json.Marshal(hand.Winners)
	if err != nil {
		return err
	}
	actions, err := json.Marshal(hand.Actions)
	if err != nil {
		return err
	}
	sidePots, err := json.Marshal(hand.SidePots)
	if err != nil {
		return err
	}
	board := make([]string, len(hand.CommunityCards))
	for i, c := range hand.CommunityCards {
		board[i] = string(c)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO hands(game_id, hand_number, pot_amount, board, winners, side_pots, actions, created_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (game_id, hand_number) DO NOTHING
	`, hand.GameID, hand.HandNumber, hand.PotAmount, board, winners, sidePots, actions,
		hand.CreatedAt, hand.CompletedAt)
	return err
}

func (p *Postgres) Hands(ctx context.Context, gameID string, limit int) ([]*game.HandRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT game_id, hand_number, pot_amount, board, winners, side_pots, actions, created_at, completed_at
		  FROM hands WHERE game_id = $1 ORDER BY hand_number DESC LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.HandRecord
	for rows.Next() {
		var (
			h                          game.HandRecord
			board                      []string
			winners, sidePots, actions []byte
		)
		if err := rows.Scan(&h.GameID, &h.HandNumber, &h.PotAmount, &board,
			&winners, &sidePots, &actions, &h.CreatedAt, &h.CompletedAt); err != nil {
			return nil, err
		}
		for _, c := range board {
			h.CommunityCards = append(h.CommunityCards, deck.Card(c))
		}
		if err := json.Unmarshal(winners, &h.Winners); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sidePots, &h.SidePots); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(actions, &h.Actions); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() {
	p.pool.Close()
}
