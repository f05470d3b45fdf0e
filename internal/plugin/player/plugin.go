// Package player keeps one state value per seat of a turn-based game.
//
// The host calls Setup once when the game is created and persists the
// returned store. For every move it calls API with the persisted store, lets
// the move read and write through the returned View, then calls Flush and
// commits the returned store in place of the previous one.
package player

import (
	"errors"
	"fmt"
)

// Name is the identifier the host routes this plugin's hooks by.
const Name = "player"

var ErrPlayerCountMismatch = errors.New("store size does not match number of players")

// Data is what the plugin exchanges with the host.
type Data[S any] struct {
	Players *Store[S] `json:"players"`
}

// Factory builds the initial state of a seat.
type Factory[S any] func(id ID) S

type Option[S any] func(*Plugin[S])

// WithSetup sets the factory used for every seat by Setup.
func WithSetup[S any](factory Factory[S]) Option[S] {
	return func(plugin *Plugin[S]) {
		plugin.setup = factory
	}
}

type Plugin[S any] struct {
	setup Factory[S]
}

func New[S any](opts ...Option[S]) *Plugin[S] {
	plugin := &Plugin[S]{}

	for _, opt := range opts {
		opt(plugin)
	}

	return plugin
}

func (that *Plugin[S]) Name() string {
	return Name
}

// Setup builds the initial store. Only ctx.NumPlayers is used.
func (that *Plugin[S]) Setup(ctx TurnContext) (Data[S], error) {
	store, err := NewStore(ctx.NumPlayers, that.setup)
	if err != nil {
		return Data[S]{}, fmt.Errorf("failed to set up players: %w", err)
	}

	return Data[S]{Players: store}, nil
}

// API builds the view for the move described by ctx. The view aliases
// data.Players; nothing is copied.
func (that *Plugin[S]) API(ctx TurnContext, data Data[S]) (*View[S], error) {
	if ctx.NumPlayers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNumPlayers, ctx.NumPlayers)
	}

	store := data.Players
	if store == nil {
		return nil, ErrNilStore
	}

	if store.Len() != ctx.NumPlayers {
		return nil, fmt.Errorf("%w: %d players, %d states", ErrPlayerCountMismatch, ctx.NumPlayers, store.Len())
	}

	if !store.Has(ctx.CurrentPlayer) {
		return nil, fmt.Errorf("%w: current player %q", ErrUnknownPlayer, ctx.CurrentPlayer)
	}

	view := &View[S]{
		Accessor: Accessor[S]{store: store, id: ctx.CurrentPlayer},
	}

	if ctx.NumPlayers == 2 {
		view.opponent = &Accessor[S]{store: store, id: ctx.CurrentPlayer.complement()}
	}

	return view, nil
}

// Flush hands the view's store back for commit.
func (that *Plugin[S]) Flush(view *View[S]) Data[S] {
	return Data[S]{Players: view.State()}
}
