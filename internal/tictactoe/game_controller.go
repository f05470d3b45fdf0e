package tictactoe

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/playerstate-backend/internal/apperror"
	"github.com/rocketscienceinc/playerstate-backend/internal/engine"
	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
	"github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"
)

// Seats is the number of players of a tic-tac-toe game.
const Seats = 2

var ErrInvalidCell = errors.New("invalid cell index")

// InitialState gives the first seat X and every other seat O.
func InitialState(id player.ID) entity.PlayerState {
	if id == player.IDFor(0) {
		return entity.PlayerState{Mark: entity.PlayerX}
	}
	return entity.PlayerState{Mark: entity.PlayerO}
}

func NewPlugin() *player.Plugin[entity.PlayerState] {
	return player.New(player.WithSetup(InitialState))
}

// Turn returns the move that puts the current player's mark on cell.
func Turn(game *entity.Game, cell int) engine.Move[entity.PlayerState] {
	return func(view *player.View[entity.PlayerState]) error {
		return MakeTurn(game, view, cell)
	}
}

func MakeTurn(game *entity.Game, view *player.View[entity.PlayerState], cell int) error {
	if game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if err := validateMove(game, view.Player(), cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	state := view.Get()
	game.Board[cell] = state.Mark

	state.Moves++
	view.Set(state)

	return updateGameStatus(game, view)
}

// validateMove - checks if the move is valid.
func validateMove(game *entity.Game, seat player.ID, cell int) error {
	if cell < 0 || cell >= len(game.Board) {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if game.Turn != seat {
		return apperror.ErrNotYourTurn
	}

	if game.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(game *entity.Game, view *player.View[entity.PlayerState]) error {
	switch winner := game.DetermineGameResult(); winner {
	case "":
		next, err := nextSeat(view)
		if err != nil {
			return err
		}

		game.Status = entity.StatusOngoing
		game.Turn = next
	case entity.PlayerTie:
		game.Winner = entity.PlayerTie
		game.Status = entity.StatusFinished

		return setResults(view, entity.ResultDraw, entity.ResultDraw)
	default:
		game.Winner = string(view.Player())
		game.Status = entity.StatusFinished

		return setResults(view, entity.ResultWin, entity.ResultLoss)
	}

	return nil
}

// setResults records the current player's outcome and the outcome of
// everybody else.
func setResults(view *player.View[entity.PlayerState], current, others string) error {
	state := view.Get()
	state.Result = current
	view.Set(state)

	if opponent, ok := view.Opponent(); ok {
		state = opponent.Get()
		state.Result = others
		opponent.Set(state)

		return nil
	}

	store := view.State()
	for _, id := range store.IDs() {
		if id == view.Player() {
			continue
		}

		state, err := store.Get(id)
		if err != nil {
			return fmt.Errorf("failed to read player %s: %w", id, err)
		}

		state.Result = others
		if err = store.Set(id, state); err != nil {
			return fmt.Errorf("failed to record result of player %s: %w", id, err)
		}
	}

	return nil
}

func nextSeat(view *player.View[entity.PlayerState]) (player.ID, error) {
	if opponent, ok := view.Opponent(); ok {
		return opponent.ID(), nil
	}

	seat, err := view.Player().Seat()
	if err != nil {
		return "", fmt.Errorf("failed to pass the turn: %w", err)
	}

	return player.IDFor((seat + 1) % view.State().Len()), nil
}
