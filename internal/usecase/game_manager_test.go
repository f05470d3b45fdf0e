package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/playerstate-backend/internal/apperror"
	"github.com/rocketscienceinc/playerstate-backend/internal/engine"
	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
	"github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"
	"github.com/rocketscienceinc/playerstate-backend/internal/tictactoe"
)

var errRedisDown = errors.New("redis down")

type fixture struct {
	manager    *GameManager
	playerRepo *mockPlayerRepo
	gameRepo   *mockGameRepo
	resultRepo *mockResultRepo
	finishedAt time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		playerRepo: &mockPlayerRepo{},
		gameRepo:   &mockGameRepo{},
		resultRepo: &mockResultRepo{},
		finishedAt: time.Unix(1700000000, 0),
	}

	f.manager = NewGameManager(logger, f.playerRepo, f.gameRepo, f.resultRepo, engine.New(logger, tictactoe.NewPlugin()))
	f.manager.now = func() time.Time { return f.finishedAt }

	t.Cleanup(func() {
		f.playerRepo.AssertExpectations(t)
		f.gameRepo.AssertExpectations(t)
		f.resultRepo.AssertExpectations(t)
	})

	return f
}

// ongoingGame returns a started game with alice on seat 0 and bob on seat 1.
func ongoingGame(t *testing.T) (*entity.Game, *entity.Player, *entity.Player) {
	t.Helper()

	plugin := tictactoe.NewPlugin()
	data, err := plugin.Setup(player.TurnContext{NumPlayers: tictactoe.Seats})
	require.NoError(t, err)

	game := entity.NewGame("game-1", data)
	game.Status = entity.StatusOngoing

	alice := &entity.Player{ID: "alice", GameID: game.ID, Seat: "0"}
	bob := &entity.Player{ID: "bob", GameID: game.ID, Seat: "1"}
	game.Seats = []*entity.Player{alice, bob}

	return game, alice, bob
}

func stateOf(t *testing.T, game *entity.Game, seat player.ID) entity.PlayerState {
	t.Helper()

	state, err := game.Players.Get(seat)
	require.NoError(t, err)

	return state
}

func TestGameManager_GetOrCreatePlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a new player when id is empty", func(t *testing.T) {
		// Given: a repository accepting any player
		f := newFixture(t)
		f.playerRepo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Player")).Return(nil).Once()

		// When: asking for a player without an id
		created, err := f.manager.GetOrCreatePlayer(ctx, "")

		// Then: a player with a fresh id is stored
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Empty(t, created.GameID)
	})

	t.Run("Returns the existing player", func(t *testing.T) {
		f := newFixture(t)
		existing := &entity.Player{ID: "alice"}
		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(existing, nil).Once()

		found, err := f.manager.GetOrCreatePlayer(ctx, "alice")

		require.NoError(t, err)
		assert.Same(t, existing, found)
	})

	t.Run("Propagates storage errors", func(t *testing.T) {
		f := newFixture(t)
		f.playerRepo.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(errRedisDown).Once()

		_, err := f.manager.GetOrCreatePlayer(ctx, "")

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestGameManager_GetOrCreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Sets up per-player state for a new game", func(t *testing.T) {
		// Given: a player without a game
		f := newFixture(t)
		alice := &entity.Player{ID: "alice"}
		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.playerRepo.On("CreateOrUpdate", mock.Anything, alice).Return(nil).Once()
		f.gameRepo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Game")).Return(nil).Once()

		// When: the player asks for a game
		game, err := f.manager.GetOrCreateGame(ctx, "alice")
		require.NoError(t, err)

		// Then: the game waits for a second player and every seat has its mark
		assert.Equal(t, entity.StatusWaiting, game.Status)
		assert.Equal(t, player.ID("0"), game.Turn)
		assert.Equal(t, []player.ID{"0", "1"}, game.Players.IDs())
		assert.Equal(t, entity.PlayerState{Mark: entity.PlayerX}, stateOf(t, game, "0"))
		assert.Equal(t, entity.PlayerState{Mark: entity.PlayerO}, stateOf(t, game, "1"))

		// Then: the creator sits on seat 0
		assert.Equal(t, game.ID, alice.GameID)
		assert.Equal(t, player.ID("0"), alice.Seat)
	})

	t.Run("Returns the game the player is already in", func(t *testing.T) {
		f := newFixture(t)
		game, alice, _ := ongoingGame(t)
		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.gameRepo.On("GetByID", mock.Anything, game.ID).Return(game, nil).Once()

		found, err := f.manager.GetOrCreateGame(ctx, "alice")

		require.NoError(t, err)
		assert.Same(t, game, found)
	})
}

func TestGameManager_ConnectToGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Second player takes seat 1 and starts the game", func(t *testing.T) {
		// Given: a waiting game with alice seated
		f := newFixture(t)
		game, _, _ := ongoingGame(t)
		game.Status = entity.StatusWaiting
		game.Seats = game.Seats[:1]

		bob := &entity.Player{ID: "bob"}
		f.playerRepo.On("GetByID", mock.Anything, "bob").Return(bob, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()
		f.playerRepo.On("CreateOrUpdate", mock.Anything, bob).Return(nil).Once()

		// When: bob joins
		joined, err := f.manager.ConnectToGame(ctx, game.ID, "bob")
		require.NoError(t, err)

		// Then: bob plays seat 1 and the game is on
		assert.Equal(t, player.ID("1"), bob.Seat)
		assert.Equal(t, game.ID, bob.GameID)
		assert.Equal(t, entity.StatusOngoing, joined.Status)
		assert.True(t, joined.IsFull())
	})

	t.Run("Rejoining returns the same game", func(t *testing.T) {
		f := newFixture(t)
		game, _, bob := ongoingGame(t)
		f.playerRepo.On("GetByID", mock.Anything, "bob").Return(bob, nil).Once()
		f.gameRepo.On("GetByID", mock.Anything, game.ID).Return(game, nil).Once()

		joined, err := f.manager.ConnectToGame(ctx, game.ID, "bob")

		require.NoError(t, err)
		assert.Same(t, game, joined)
	})

	t.Run("Session already seated keeps its seat", func(t *testing.T) {
		// Given: bob sits on seat 1 but his session record lost the game
		f := newFixture(t)
		game, _, _ := ongoingGame(t)
		bob := &entity.Player{ID: "bob"}

		f.playerRepo.On("GetByID", mock.Anything, "bob").Return(bob, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()
		f.playerRepo.On("CreateOrUpdate", mock.Anything, bob).Return(nil).Once()

		// When: bob joins again
		joined, err := f.manager.ConnectToGame(ctx, game.ID, "bob")

		// Then: he gets seat 1 back and no seat is added
		require.NoError(t, err)
		assert.Equal(t, player.ID("1"), bob.Seat)
		assert.Len(t, joined.Seats, 2)
	})

	t.Run("Full game is rejected", func(t *testing.T) {
		// Given: the stored game already has both seats taken
		f := newFixture(t)
		game, _, _ := ongoingGame(t)
		carol := &entity.Player{ID: "carol"}
		f.playerRepo.On("GetByID", mock.Anything, "carol").Return(carol, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()

		_, err := f.manager.ConnectToGame(ctx, game.ID, "carol")

		require.ErrorIs(t, err, apperror.ErrGameIsFull)
		assert.Empty(t, carol.Seat)
		assert.Len(t, game.Seats, 2)
	})

	t.Run("Contended join is not saved", func(t *testing.T) {
		// Given: the game store keeps losing the race for this game
		f := newFixture(t)
		carol := &entity.Player{ID: "carol"}
		f.playerRepo.On("GetByID", mock.Anything, "carol").Return(carol, nil).Once()
		f.gameRepo.On("Update", mock.Anything, "game-1").Return(nil, apperror.ErrConflict).Once()

		// When: carol joins
		_, err := f.manager.ConnectToGame(ctx, "game-1", "carol")

		// Then: the conflict is reported and her session is not tied to the game
		require.ErrorIs(t, err, apperror.ErrConflict)
		f.playerRepo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	})

	t.Run("Player in another game is rejected", func(t *testing.T) {
		f := newFixture(t)
		dave := &entity.Player{ID: "dave", GameID: "other", Seat: "0"}
		f.playerRepo.On("GetByID", mock.Anything, "dave").Return(dave, nil).Once()

		_, err := f.manager.ConnectToGame(ctx, "game-1", "dave")

		require.ErrorIs(t, err, apperror.ErrAlreadyInGame)
	})
}

func TestGameManager_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits the flushed player state", func(t *testing.T) {
		// Given: an ongoing game where it is alice's turn
		f := newFixture(t)
		game, alice, _ := ongoingGame(t)
		before := game.Players

		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()

		// When: alice plays the center
		updated, err := f.manager.MakeTurn(ctx, "alice", 4)
		require.NoError(t, err)

		// Then: the committed store replaced the previous one and the turn passed
		assert.NotSame(t, before, updated.Players)
		assert.Equal(t, entity.PlayerX, updated.Board[4])
		assert.Equal(t, 1, stateOf(t, updated, "0").Moves)
		assert.Equal(t, player.ID("1"), updated.Turn)

		// Then: the previous store was not touched by the move
		previous, err := before.Get("0")
		require.NoError(t, err)
		assert.Equal(t, 0, previous.Moves)
	})

	t.Run("Not your turn", func(t *testing.T) {
		f := newFixture(t)
		game, _, bob := ongoingGame(t)
		f.playerRepo.On("GetByID", mock.Anything, "bob").Return(bob, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()

		_, err := f.manager.MakeTurn(ctx, "bob", 0)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Rejected move is not committed", func(t *testing.T) {
		// Given: the center is already taken
		f := newFixture(t)
		game, alice, _ := ongoingGame(t)
		game.Board[4] = entity.PlayerO
		before := game.Players

		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()

		// When: alice plays the center
		_, err := f.manager.MakeTurn(ctx, "alice", 4)

		// Then: the move fails and the player state is untouched
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Same(t, before, game.Players)
		assert.Equal(t, 0, stateOf(t, game, "0").Moves)
	})

	t.Run("Game not started", func(t *testing.T) {
		f := newFixture(t)
		game, alice, _ := ongoingGame(t)
		game.Status = entity.StatusWaiting
		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()

		_, err := f.manager.MakeTurn(ctx, "alice", 0)

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Game that already ended is rejected", func(t *testing.T) {
		// Given: a finished game that was never cleaned up
		f := newFixture(t)
		game, alice, _ := ongoingGame(t)
		game.Status = entity.StatusFinished
		game.Winner = "1"
		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()

		// When: alice tries to play
		ended, err := f.manager.MakeTurn(ctx, "alice", 0)

		// Then: the turn is refused and nothing is archived again
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Nil(t, ended)
		f.resultRepo.AssertNotCalled(t, "SaveGame", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Contended turn is reported", func(t *testing.T) {
		f := newFixture(t)
		_, alice, _ := ongoingGame(t)
		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.gameRepo.On("Update", mock.Anything, alice.GameID).Return(nil, apperror.ErrConflict).Once()

		_, err := f.manager.MakeTurn(ctx, "alice", 0)

		require.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("Player without a game", func(t *testing.T) {
		f := newFixture(t)
		f.playerRepo.On("GetByID", mock.Anything, "erin").Return(&entity.Player{ID: "erin"}, nil).Once()

		_, err := f.manager.MakeTurn(ctx, "erin", 0)

		require.ErrorIs(t, err, apperror.ErrNotInGame)
	})

	t.Run("Winning move archives and releases the seats", func(t *testing.T) {
		// Given: alice holds 0 and 1, bob holds 3 and 4
		f := newFixture(t)
		game, alice, _ := ongoingGame(t)
		game.Board = [9]string{
			entity.PlayerX, entity.PlayerX, entity.EmptyCell,
			entity.PlayerO, entity.PlayerO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		f.playerRepo.On("GetByID", mock.Anything, "alice").Return(alice, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()
		f.resultRepo.On("SaveGame", mock.Anything, mock.MatchedBy(func(saved *entity.Game) bool {
			winner, _ := saved.Players.Get("0")
			loser, _ := saved.Players.Get("1")
			return winner.Result == entity.ResultWin && loser.Result == entity.ResultLoss
		}), f.finishedAt).Return(nil).Once()
		f.gameRepo.On("DeleteByID", mock.Anything, game.ID).Return(nil).Once()
		f.playerRepo.On("CreateOrUpdate", mock.Anything, mock.MatchedBy(func(released *entity.Player) bool {
			return released.GameID == "" && released.Seat == ""
		})).Return(nil).Twice()

		// When: alice completes the top row
		finished, err := f.manager.MakeTurn(ctx, "alice", 2)

		// Then: the finished game comes back with alice as the winner
		require.NoError(t, err)
		assert.True(t, finished.IsFinished())
		assert.Equal(t, "0", finished.Winner)
		assert.Equal(t, entity.ResultLoss, stateOf(t, finished, "1").Result)
	})

	t.Run("Archive failure does not fail the turn", func(t *testing.T) {
		f := newFixture(t)
		game, _, bob := ongoingGame(t)
		game.Turn = "1"
		game.Board = [9]string{
			entity.PlayerX, entity.PlayerX, entity.EmptyCell,
			entity.PlayerO, entity.PlayerO, entity.EmptyCell,
			entity.PlayerX, entity.EmptyCell, entity.EmptyCell,
		}

		f.playerRepo.On("GetByID", mock.Anything, "bob").Return(bob, nil).Once()
		f.gameRepo.On("Update", mock.Anything, game.ID).Return(game, nil).Once()
		f.resultRepo.On("SaveGame", mock.Anything, game, f.finishedAt).Return(errRedisDown).Once()
		f.gameRepo.On("DeleteByID", mock.Anything, game.ID).Return(nil).Once()
		f.playerRepo.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(nil).Twice()

		finished, err := f.manager.MakeTurn(ctx, "bob", 5)

		require.NoError(t, err)
		assert.Equal(t, "1", finished.Winner)
		assert.Equal(t, entity.ResultWin, stateOf(t, finished, "1").Result)
	})
}

func TestGameManager_History(t *testing.T) {
	f := newFixture(t)
	results := []*entity.Result{{GameID: "game-1", PlayerID: "alice", Outcome: entity.ResultWin}}
	f.resultRepo.On("ListByPlayer", mock.Anything, "alice").Return(results, nil).Once()

	found, err := f.manager.History(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, results, found)
}
