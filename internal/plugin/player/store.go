package player

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNilStore       = errors.New("player store is nil")
	ErrMalformedStore = errors.New("malformed player store")
)

// Store maps every seat of a game to its state. Keys are always exactly
// "0" .. "N-1" and iterate in seat order.
type Store[S any] struct {
	ids    []ID
	values map[ID]S
}

// NewStore creates a store for numPlayers seats. When init is nil every seat
// holds its own EmptyState.
func NewStore[S any](numPlayers int, init func(id ID) S) (*Store[S], error) {
	if numPlayers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNumPlayers, numPlayers)
	}

	store := &Store[S]{
		ids:    make([]ID, numPlayers),
		values: make(map[ID]S, numPlayers),
	}

	for seat := range numPlayers {
		id := IDFor(seat)

		value := EmptyState[S]()
		if init != nil {
			value = init(id)
		}

		store.ids[seat] = id
		store.values[id] = value
	}

	return store, nil
}

// EmptyState returns a writable empty value of S: a new map, a pointer to a
// new zero value or an empty slice. Other kinds get their zero value.
func EmptyState[S any]() S {
	var zero S

	typ := reflect.TypeOf(&zero).Elem()

	switch typ.Kind() {
	case reflect.Map:
		return reflect.MakeMap(typ).Interface().(S)
	case reflect.Pointer:
		return reflect.New(typ.Elem()).Interface().(S)
	case reflect.Slice:
		return reflect.MakeSlice(typ, 0, 0).Interface().(S)
	default:
		return zero
	}
}

func (that *Store[S]) Len() int {
	return len(that.ids)
}

// IDs returns the seat ids in order. The slice is a copy.
func (that *Store[S]) IDs() []ID {
	ids := make([]ID, len(that.ids))
	copy(ids, that.ids)

	return ids
}

func (that *Store[S]) Has(id ID) bool {
	_, ok := that.values[id]
	return ok
}

func (that *Store[S]) Get(id ID) (S, error) {
	value, ok := that.values[id]
	if !ok {
		var zero S
		return zero, fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
	}

	return value, nil
}

func (that *Store[S]) Set(id ID, value S) error {
	if !that.Has(id) {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
	}

	that.values[id] = value

	return nil
}

// Range calls fn for every seat in order until fn returns false.
func (that *Store[S]) Range(fn func(id ID, value S) bool) {
	for _, id := range that.ids {
		if !fn(id, that.values[id]) {
			return
		}
	}
}

// Clone returns a new store holding the same values. Values are copied by
// assignment, so pointer states still share their targets.
func (that *Store[S]) Clone() *Store[S] {
	clone := &Store[S]{
		ids:    that.IDs(),
		values: make(map[ID]S, len(that.values)),
	}

	for id, value := range that.values {
		clone.values[id] = value
	}

	return clone
}

// MarshalJSON encodes the store as an object keyed by seat id, in seat order.
func (that *Store[S]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, id := range that.ids {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(string(id))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal player id: %w", err)
		}

		value, err := json.Marshal(that.values[id])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state of player %s: %w", id, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object whose keys must be exactly "0" .. "N-1".
func (that *Store[S]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedStore, err)
	}

	if len(raw) == 0 {
		return fmt.Errorf("%w: no players", ErrMalformedStore)
	}

	ids := make([]ID, len(raw))
	values := make(map[ID]S, len(raw))

	for seat := range ids {
		id := IDFor(seat)

		encoded, ok := raw[string(id)]
		if !ok {
			return fmt.Errorf("%w: missing player %s", ErrMalformedStore, id)
		}

		var value S
		if err := json.Unmarshal(encoded, &value); err != nil {
			return fmt.Errorf("%w: player %s: %w", ErrMalformedStore, id, err)
		}

		ids[seat] = id
		values[id] = value
	}

	that.ids = ids
	that.values = values

	return nil
}
