package player

import "fmt"

// TurnContext is supplied by the host for every hook call.
type TurnContext struct {
	CurrentPlayer ID  `json:"current_player"`
	NumPlayers    int `json:"num_players"`
}

// Validate checks the context on its own. Membership of CurrentPlayer in a
// store is checked when the view is built.
func (that TurnContext) Validate() error {
	if that.NumPlayers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidNumPlayers, that.NumPlayers)
	}

	if _, err := ParseID(string(that.CurrentPlayer), that.NumPlayers); err != nil {
		return fmt.Errorf("invalid current player: %w", err)
	}

	return nil
}
