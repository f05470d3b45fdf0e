package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

const resultsSchema = `CREATE TABLE IF NOT EXISTS results (
	game_id     TEXT    NOT NULL,
	seat        TEXT    NOT NULL,
	player_id   TEXT    NOT NULL,
	mark        TEXT    NOT NULL,
	moves       INTEGER NOT NULL,
	outcome     TEXT    NOT NULL,
	finished_at INTEGER NOT NULL,
	PRIMARY KEY (game_id, seat)
)`

// NewSQLite opens the results archive and creates its schema.
func NewSQLite(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	if _, err = conn.ExecContext(ctx, resultsSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't create table: %w", err)
	}

	return conn, nil
}
