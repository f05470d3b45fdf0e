package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/playerstate-backend/internal/apperror"
	"github.com/rocketscienceinc/playerstate-backend/internal/engine"
	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
	"github.com/rocketscienceinc/playerstate-backend/internal/pkg"
	"github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"
	"github.com/rocketscienceinc/playerstate-backend/internal/tictactoe"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type resultRepo interface {
	SaveGame(ctx context.Context, game *entity.Game, finishedAt time.Time) error
	ListByPlayer(ctx context.Context, playerID string) ([]*entity.Result, error)
}

// GameManager is the host of the player plugin: it owns the canonical game
// state and commits the per-player state flushed after every move.
type GameManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	gameRepo   gameRepo
	resultRepo resultRepo
	engine     *engine.Engine[entity.PlayerState]

	now func() time.Time
}

func NewGameManager(
	logger *slog.Logger,
	playerRepo playerRepo,
	gameRepo gameRepo,
	resultRepo resultRepo,
	engine *engine.Engine[entity.PlayerState],
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		resultRepo: resultRepo,
		engine:     engine,

		now: time.Now,
	}
}

// MakeTurn plays cell for the player's seat. The whole turn runs inside one
// game update, so concurrent turns on the same game are serialized. A turn
// that ends the game returns the finished game without error;
// apperror.ErrGameFinished means the game had already ended.
func (that *GameManager) MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error) {
	log := that.logger.With("method", "MakeTurn", "playerID", playerID)

	currentPlayer, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if currentPlayer.GameID == "" {
		return nil, apperror.ErrNotInGame
	}

	game, err := that.gameRepo.Update(ctx, currentPlayer.GameID, func(game *entity.Game) error {
		if err := game.ConfirmOngoingState(); err != nil {
			return err
		}

		if currentPlayer.Seat != game.Turn {
			return apperror.ErrNotYourTurn
		}

		data, err := that.engine.Apply(game.TurnContext(), game.PlayerData(), tictactoe.Turn(game, cell))
		if err != nil {
			return fmt.Errorf("failed make turn: %w", err)
		}

		game.Commit(data)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", currentPlayer.GameID, err)
	}

	log.Debug("turn committed", "gameID", game.ID, "seat", currentPlayer.Seat, "cell", cell)

	if game.IsFinished() {
		that.finishGame(ctx, game)
	}

	return game, nil
}

// ConnectToGame seats the player in the game. Seat assignment runs inside one
// game update, so two sessions joining at once never share a seat.
func (that *GameManager) ConnectToGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	currentPlayer, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if currentPlayer.GameID == gameID {
		return that.getGameByID(ctx, gameID)
	}

	if currentPlayer.GameID != "" {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrAlreadyInGame, currentPlayer.GameID)
	}

	existingGame, err := that.gameRepo.Update(ctx, gameID, func(game *entity.Game) error {
		if seat, ok := game.SeatOf(currentPlayer.ID); ok {
			currentPlayer.GameID = game.ID
			currentPlayer.Seat = seat

			return nil
		}

		if game.IsFull() {
			return fmt.Errorf("%w: game id %s", apperror.ErrGameIsFull, gameID)
		}

		that.seatPlayer(game, currentPlayer)

		if game.IsFull() {
			game.Status = entity.StatusOngoing
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	if err = that.updatePlayer(ctx, currentPlayer); err != nil {
		return nil, fmt.Errorf("failed update player by id: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) GetOrCreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	currentPlayer, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if currentPlayer.GameID == "" {
		newGame, err := that.createGame(ctx, currentPlayer)
		if err != nil {
			return nil, fmt.Errorf("failed create game: %w", err)
		}

		return newGame, nil
	}

	existingGame, err := that.getGameByID(ctx, currentPlayer.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game: %w", err)
	}

	return existingGame, nil
}

// GetGame returns the committed state of a game.
func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.getGameByID(ctx, gameID)
}

// History lists the archived results of a player, newest first.
func (that *GameManager) History(ctx context.Context, playerID string) ([]*entity.Result, error) {
	results, err := that.resultRepo.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		newPlayer, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player: %w", err)
		}

		return newPlayer, nil
	}

	existingPlayer, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return existingPlayer, nil
}

func (that *GameManager) createGame(ctx context.Context, creator *entity.Player) (*entity.Game, error) {
	data, err := that.engine.Setup(tictactoe.Seats)
	if err != nil {
		return nil, fmt.Errorf("failed to set up players: %w", err)
	}

	newGame := entity.NewGame(pkg.GenerateGameID(), data)

	that.seatPlayer(newGame, creator)
	if err = that.updatePlayer(ctx, creator); err != nil {
		return nil, fmt.Errorf("failed update player: %w", err)
	}

	if err = that.gameRepo.CreateOrUpdate(ctx, newGame); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return newGame, nil
}

// seatPlayer gives the player the next free seat.
func (that *GameManager) seatPlayer(game *entity.Game, newPlayer *entity.Player) {
	newPlayer.GameID = game.ID
	newPlayer.Seat = player.IDFor(len(game.Seats))

	game.Seats = append(game.Seats, newPlayer)
}

// finishGame archives the final player state and frees the seats.
func (that *GameManager) finishGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "finishGame", "gameID", game.ID)

	if err := that.resultRepo.SaveGame(ctx, game, that.now()); err != nil {
		log.Error("failed to archive results", "error", err)
	}

	if err := that.gameRepo.DeleteByID(ctx, game.ID); err != nil {
		log.Error("failed to delete game", "error", err)
	}

	for _, seated := range game.Seats {
		released := *seated
		released.Leave()

		if err := that.playerRepo.CreateOrUpdate(ctx, &released); err != nil {
			log.Error("failed to update player", "playerID", seated.ID, "error", err)
		}
	}

	log.Info("game finished", "winner", game.Winner)
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	newPlayer := &entity.Player{
		ID: pkg.GenerateNewSessionID(),
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, newPlayer); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return newPlayer, nil
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	existingPlayer, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return existingPlayer, nil
}

func (that *GameManager) updatePlayer(ctx context.Context, updated *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, updated); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
