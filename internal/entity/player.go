package entity

import "github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"

const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// Player is a connected session. Seat is empty while not in a game.
type Player struct {
	ID     string    `json:"id"`
	GameID string    `json:"game_id,omitempty"`
	Seat   player.ID `json:"seat,omitempty"`
}

// PlayerState is the per-seat state kept by the player plugin.
type PlayerState struct {
	Mark   string `json:"mark"`
	Moves  int    `json:"moves"`
	Result string `json:"result,omitempty"`
}

// Leave detaches the player from its game.
func (that *Player) Leave() {
	that.GameID = ""
	that.Seat = ""
}

// Result is one archived seat of a finished game.
type Result struct {
	GameID     string    `json:"game_id"`
	Seat       player.ID `json:"seat"`
	PlayerID   string    `json:"player_id"`
	Mark       string    `json:"mark"`
	Moves      int       `json:"moves"`
	Outcome    string    `json:"outcome"`
	FinishedAt int64     `json:"finished_at"`
}
