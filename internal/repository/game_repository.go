package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skemino/skemino-server-go/internal/game"
	"github.com/skemino/skemino-server-go/internal/game/notation"
)

// ErrNotFound is returned when a game is not stored.
var ErrNotFound = errors.New("game not stored")

// GameRepository stores game snapshots and their PSN move lists.
type GameRepository struct {
	db DB
}

// NewGameRepository creates a new game repository
func NewGameRepository(db DB) *GameRepository {
	return &GameRepository{db: db}
}

const upsertGame = `
INSERT INTO games (id, status, winner, victory_condition, end_reason, state, checksum, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    winner = EXCLUDED.winner,
    victory_condition = EXCLUDED.victory_condition,
    end_reason = EXCLUDED.end_reason,
    state = EXCLUDED.state,
    checksum = EXCLUDED.checksum,
    updated_at = now()`

const insertMove = `
INSERT INTO game_moves (game_id, ply, player, psn)
VALUES ($1, $2, $3, $4)
ON CONFLICT (game_id, ply) DO NOTHING`

// SaveGame upserts the snapshot and appends any moves not stored yet, in one
// transaction.
func (r *GameRepository) SaveGame(ctx context.Context, snap *game.Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode game %s: %w", snap.GameID, err)
	}
	sum, err := snap.ComputeChecksum()
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, upsertGame,
		snap.GameID,
		snap.Status.String(),
		snap.Winner.String(),
		string(snap.VictoryCondition),
		string(snap.EndReason),
		state,
		sum.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", snap.GameID, err)
	}

	for ply, mv := range snap.Moves {
		if _, err := tx.Exec(ctx, insertMove, snap.GameID, ply, mv.Player.String(), notation.Format(mv)); err != nil {
			return fmt.Errorf("failed to save move %d of game %s: %w", ply, snap.GameID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit game %s: %w", snap.GameID, err)
	}
	return nil
}

// LoadGame returns the stored snapshot of gameID, verified against its checksum.
func (r *GameRepository) LoadGame(ctx context.Context, gameID string) (*game.Snapshot, error) {
	var (
		state    []byte
		checksum string
	)
	err := r.db.QueryRow(ctx, `SELECT state, checksum FROM games WHERE id = $1`, gameID).Scan(&state, &checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}

	var snap game.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", gameID, err)
	}
	ok, err := snap.VerifyChecksum(&game.SerializationChecksum{Hash: checksum})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("game %s: stored state does not match its checksum", gameID)
	}
	return &snap, nil
}

// ListMoves returns the PSN of every stored move of gameID in order.
func (r *GameRepository) ListMoves(ctx context.Context, gameID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT psn FROM game_moves WHERE game_id = $1 ORDER BY ply`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves of game %s: %w", gameID, err)
	}
	defer rows.Close()

	var moves []string
	for rows.Next() {
		var psn string
		if err := rows.Scan(&psn); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		moves = append(moves, psn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list moves of game %s: %w", gameID, err)
	}
	return moves, nil
}
