package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tfm-insights/card-tracker/internal/tm"
)

// ErrCacheMiss is returned when no batch exists for a directory hash.
var ErrCacheMiss = errors.New("game cache: no batch for directory hash")

// GameCache stores one filtered game batch per directory fingerprint.
// A changed data directory produces a new hash, so stale batches are
// simply never read again and get pruned by age.
type GameCache struct {
	db *DB
}

// NewGameCache creates a cache over an open database.
func NewGameCache(db *DB) *GameCache {
	return &GameCache{db: db}
}

// SaveBatch replaces the batch stored for dirHash with games. The write
// is transactional so readers never see a half-written batch.
func (c *GameCache) SaveBatch(ctx context.Context, dirHash string, games []*tm.Game) error {
	tx, err := c.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save batch: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cached_games WHERE dir_hash = ?`, dirHash); err != nil {
		return fmt.Errorf("save batch: clear games: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM game_batches WHERE dir_hash = ?`, dirHash); err != nil {
		return fmt.Errorf("save batch: clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_batches (dir_hash, game_count) VALUES (?, ?)`,
		dirHash, len(games)); err != nil {
		return fmt.Errorf("save batch: insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cached_games (dir_hash, replay_id, perspective, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, g := range games {
		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("save batch: encode game %s: %w", g.ReplayID, err)
		}
		if _, err := stmt.ExecContext(ctx, dirHash, g.ReplayID, g.PlayerPerspective, payload); err != nil {
			return fmt.Errorf("save batch: insert game %s: %w", g.ReplayID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save batch: commit: %w", err)
	}
	return nil
}

// LoadBatch returns the games cached for dirHash, or ErrCacheMiss.
func (c *GameCache) LoadBatch(ctx context.Context, dirHash string) ([]*tm.Game, error) {
	var count int
	err := c.db.conn.QueryRowContext(ctx,
		`SELECT game_count FROM game_batches WHERE dir_hash = ?`, dirHash).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}

	rows, err := c.db.conn.QueryContext(ctx,
		`SELECT payload FROM cached_games WHERE dir_hash = ? ORDER BY replay_id, perspective`, dirHash)
	if err != nil {
		return nil, fmt.Errorf("load batch: query games: %w", err)
	}
	defer rows.Close()

	games := make([]*tm.Game, 0, count)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("load batch: scan: %w", err)
		}
		var g tm.Game
		if err := json.Unmarshal(payload, &g); err != nil {
			return nil, fmt.Errorf("load batch: decode game: %w", err)
		}
		games = append(games, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	return games, nil
}

// Prune removes batches older than maxAge and returns how many were
// deleted.
func (c *GameCache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC()
	if _, err := c.db.conn.ExecContext(ctx,
		`DELETE FROM cached_games WHERE dir_hash IN
		   (SELECT dir_hash FROM game_batches WHERE created_at < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("prune cache: games: %w", err)
	}
	res, err := c.db.conn.ExecContext(ctx,
		`DELETE FROM game_batches WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return n, nil
}
