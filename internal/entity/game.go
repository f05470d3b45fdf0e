package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/playerstate-backend/internal/apperror"
	"github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

var (
	ErrUnknownGameStatus = errors.New("unknown game status")

	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Game is the canonical state the host persists between moves. Per-player
// data lives in Players and is only replaced as a whole by Commit.
type Game struct {
	ID      string                     `json:"id"`
	Board   [9]string                  `json:"board"`
	Winner  string                     `json:"winner"`
	Status  string                     `json:"status"`
	Turn    player.ID                  `json:"player_turn"`
	Seats   []*Player                  `json:"seats,omitempty"`
	Players *player.Store[PlayerState] `json:"players,omitempty"`
}

func NewGame(id string, data player.Data[PlayerState]) *Game {
	return &Game{
		ID:      id,
		Board:   [9]string{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell},
		Turn:    player.IDFor(0),
		Status:  StatusWaiting,
		Players: data.Players,
	}
}

// NumPlayers is the number of seats the game was set up with.
func (that *Game) NumPlayers() int {
	if that.Players == nil {
		return 0
	}
	return that.Players.Len()
}

// TurnContext describes the move about to be made.
func (that *Game) TurnContext() player.TurnContext {
	return player.TurnContext{
		CurrentPlayer: that.Turn,
		NumPlayers:    that.NumPlayers(),
	}
}

func (that *Game) PlayerData() player.Data[PlayerState] {
	return player.Data[PlayerState]{Players: that.Players}
}

// Commit replaces the per-player state with the flushed one.
func (that *Game) Commit(data player.Data[PlayerState]) {
	that.Players = data.Players
}

// SeatOf returns the seat taken by the given session player.
func (that *Game) SeatOf(playerID string) (player.ID, bool) {
	for _, seated := range that.Seats {
		if seated.ID == playerID {
			return seated.Seat, true
		}
	}

	return "", false
}

func (that *Game) IsFull() bool {
	return len(that.Seats) >= that.NumPlayers()
}

// MarkOf returns the mark of the given seat.
func (that *Game) MarkOf(seat player.ID) string {
	if that.Players == nil {
		return ""
	}

	state, err := that.Players.Get(seat)
	if err != nil {
		return ""
	}

	return state.Mark
}

// DetermineGameResult returns the winning mark, PlayerTie, or "" while the
// game goes on.
func (that *Game) DetermineGameResult() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ""
		}
	}

	return PlayerTie
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}
