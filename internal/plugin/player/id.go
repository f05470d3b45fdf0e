package player

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMalformedID       = errors.New("malformed player id")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrInvalidNumPlayers = errors.New("number of players must be at least 1")
)

// ID identifies a seat: "0" .. "N-1".
type ID string

// IDFor returns the id of the given zero-based seat.
func IDFor(seat int) ID {
	return ID(strconv.Itoa(seat))
}

// ParseID validates raw against a game of numPlayers seats.
func ParseID(raw string, numPlayers int) (ID, error) {
	seat, err := ID(raw).Seat()
	if err != nil {
		return "", err
	}

	if seat >= numPlayers {
		return "", fmt.Errorf("%w: %q in a %d player game", ErrUnknownPlayer, raw, numPlayers)
	}

	return ID(raw), nil
}

// Seat returns the zero-based seat the id refers to.
func (that ID) Seat() (int, error) {
	raw := string(that)

	// "01" and "+1" would parse but are not canonical ids
	if raw == "" || (len(raw) > 1 && raw[0] == '0') || raw[0] < '0' || raw[0] > '9' {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}

	seat, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}

	return seat, nil
}

func (that ID) String() string {
	return string(that)
}

// complement returns the other seat of a two player game.
func (that ID) complement() ID {
	if that == "0" {
		return "1"
	}
	return "0"
}
