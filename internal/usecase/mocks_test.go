package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
)

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	args := that.Called(ctx, player)
	return args.Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)

	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)

	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

// Update runs fn on the game the mock returns, the way the store does for a
// transaction that is not contended.
func (that *mockGameRepo) Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	args := that.Called(ctx, id)

	if err := args.Error(1); err != nil {
		return nil, err
	}

	game, _ := args.Get(0).(*entity.Game)
	if err := fn(game); err != nil {
		return nil, err
	}

	return game, nil
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

type mockResultRepo struct {
	mock.Mock
}

func (that *mockResultRepo) SaveGame(ctx context.Context, game *entity.Game, finishedAt time.Time) error {
	args := that.Called(ctx, game, finishedAt)
	return args.Error(0)
}

func (that *mockResultRepo) ListByPlayer(ctx context.Context, playerID string) ([]*entity.Result, error) {
	args := that.Called(ctx, playerID)

	results, _ := args.Get(0).([]*entity.Result)
	return results, args.Error(1)
}
