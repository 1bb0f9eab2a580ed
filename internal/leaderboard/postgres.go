package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaderboard_entries (
	game_id     TEXT PRIMARY KEY,
	finished_at TIMESTAMPTZ NOT NULL,
	points      INT NOT NULL,
	entry       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS leaderboard_entries_points_idx
	ON leaderboard_entries (points DESC, finished_at DESC);
`

// PostgresStore keeps one row per finished game with the full entry as
// JSONB. Trimming happens at query time, so nothing ever ages out of the
// table itself.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and creates the schema if it is missing.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Record inserts the entry; a duplicate game id is a no-op.
func (ps *PostgresStore) Record(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = ps.pool.Exec(ctx,
		`INSERT INTO leaderboard_entries (game_id, finished_at, points, entry)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id) DO NOTHING`,
		e.GameID, e.FinishedAt, e.Points, payload)
	return err
}

func (ps *PostgresStore) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Payload queries both lists and the counter.
func (ps *PostgresStore) Payload(ctx context.Context) (Payload, error) {
	cutoff := time.Now().UTC().Add(-recentWindow)
	recent, err := ps.queryEntries(ctx,
		`SELECT entry FROM leaderboard_entries
		 WHERE finished_at >= $1
		 ORDER BY points DESC LIMIT $2`, cutoff, topN)
	if err != nil {
		return Payload{}, err
	}
	alltime, err := ps.queryEntries(ctx,
		`SELECT entry FROM leaderboard_entries
		 ORDER BY points DESC LIMIT $1`, topN)
	if err != nil {
		return Payload{}, err
	}
	var count int
	if err := ps.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leaderboard_entries`).Scan(&count); err != nil {
		return Payload{}, err
	}
	return Payload{Recent: recent, Alltime: alltime, Stats: Stats{GamesPlayed: count}}, nil
}

// Game fetches one stored entry; nil when absent.
func (ps *PostgresStore) Game(ctx context.Context, gameID string) (*Entry, error) {
	var payload []byte
	err := ps.pool.QueryRow(ctx,
		`SELECT entry FROM leaderboard_entries WHERE game_id = $1`, gameID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (ps *PostgresStore) Close() { ps.pool.Close() }
