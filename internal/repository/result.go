package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
	"github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"
)

type ResultRepository interface {
	SaveGame(ctx context.Context, game *entity.Game, finishedAt time.Time) error
	ListByPlayer(ctx context.Context, playerID string) ([]*entity.Result, error)
}

type resultRepository struct {
	conn *sql.DB
}

func NewResultRepository(conn *sql.DB) ResultRepository {
	return &resultRepository{
		conn: conn,
	}
}

// SaveGame archives the final state of every seated player in one
// transaction. Saving the same game twice overwrites the earlier rows.
func (that *resultRepository) SaveGame(ctx context.Context, game *entity.Game, finishedAt time.Time) error {
	if game.Players == nil {
		return fmt.Errorf("can't save results of game %s: %w", game.ID, player.ErrNilStore)
	}

	query := `INSERT OR REPLACE INTO results (game_id, seat, player_id, mark, moves, outcome, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	for _, seated := range game.Seats {
		state, err := game.Players.Get(seated.Seat)
		if err != nil {
			return fmt.Errorf("can't read state of seat %s: %w", seated.Seat, err)
		}

		_, err = tx.ExecContext(ctx, query,
			game.ID, string(seated.Seat), seated.ID, state.Mark, state.Moves, state.Result, finishedAt.Unix())
		if err != nil {
			return fmt.Errorf("can't save result: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit results: %w", err)
	}

	return nil
}

func (that *resultRepository) ListByPlayer(ctx context.Context, playerID string) ([]*entity.Result, error) {
	query := `SELECT game_id, seat, player_id, mark, moves, outcome, finished_at
		FROM results WHERE player_id = ? ORDER BY finished_at DESC, game_id`

	rows, err := that.conn.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}
	defer rows.Close()

	results := make([]*entity.Result, 0)

	for rows.Next() {
		var result entity.Result
		if err = rows.Scan(&result.GameID, &result.Seat, &result.PlayerID, &result.Mark,
			&result.Moves, &result.Outcome, &result.FinishedAt); err != nil {
			return nil, fmt.Errorf("can't scan result: %w", err)
		}

		results = append(results, &result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read results: %w", err)
	}

	return results, nil
}
