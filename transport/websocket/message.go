package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
)

const (
	actionConnect  = "connect"
	actionGameNew  = "game:new"
	actionGameJoin = "game:join"
	actionGameTurn = "game:turn"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Cell   *int           `json:"cell,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func newMessage(action string, payload Payload) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Message{Action: action, Payload: raw}, nil
}

func (that *Message) decode() (*Payload, error) {
	var payload Payload
	if len(that.Payload) == 0 {
		return &payload, nil
	}

	if err := json.Unmarshal(that.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payload, nil
}

// maskGameDetails hides the session ids of the seated players.
func maskGameDetails(game *entity.Game) *entity.Game {
	masked := *game
	masked.Seats = nil

	return &masked
}
