package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"
)

var ErrNilMove = errors.New("move is nil")

// Move is game logic run against the current player's view.
type Move[S any] func(view *player.View[S]) error

// Engine drives the player plugin through setup and per-move access/commit.
type Engine[S any] struct {
	logger *slog.Logger
	plugin *player.Plugin[S]
}

func New[S any](logger *slog.Logger, plugin *player.Plugin[S]) *Engine[S] {
	return &Engine[S]{
		logger: logger.With("component", "engine", "plugin", plugin.Name()),
		plugin: plugin,
	}
}

// Setup creates the per-player state for a new game.
func (that *Engine[S]) Setup(numPlayers int) (player.Data[S], error) {
	data, err := that.plugin.Setup(player.TurnContext{NumPlayers: numPlayers})
	if err != nil {
		return player.Data[S]{}, fmt.Errorf("failed to set up game: %w", err)
	}

	that.logger.Debug("players set up", "players", numPlayers)

	return data, nil
}

// Apply runs move for ctx.CurrentPlayer and returns the state to commit.
// The move works on a copy of data.Players, so data is left as it was when
// the move fails.
func (that *Engine[S]) Apply(ctx player.TurnContext, data player.Data[S], move Move[S]) (player.Data[S], error) {
	log := that.logger.With("method", "Apply", "player", ctx.CurrentPlayer)

	if move == nil {
		return player.Data[S]{}, ErrNilMove
	}

	if err := ctx.Validate(); err != nil {
		return player.Data[S]{}, fmt.Errorf("invalid turn context: %w", err)
	}

	if data.Players == nil {
		return player.Data[S]{}, player.ErrNilStore
	}

	view, err := that.plugin.API(ctx, player.Data[S]{Players: data.Players.Clone()})
	if err != nil {
		return player.Data[S]{}, fmt.Errorf("failed to open player view: %w", err)
	}

	if err = move(view); err != nil {
		log.Debug("move rejected, discarding player state", "error", err)
		return player.Data[S]{}, err
	}

	return that.plugin.Flush(view), nil
}
