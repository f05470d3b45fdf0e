package player

// Accessor reads and writes the state of one seat in a shared store.
type Accessor[S any] struct {
	store *Store[S]
	id    ID
}

func (that *Accessor[S]) ID() ID {
	return that.id
}

func (that *Accessor[S]) Get() S {
	return that.store.values[that.id]
}

// Set stores value for the seat and returns it. The write lands in the
// shared store immediately.
func (that *Accessor[S]) Set(value S) S {
	that.store.values[that.id] = value
	return value
}

// View is the per-move handle over a store. It is valid until the host
// flushes it and must not be kept across moves.
type View[S any] struct {
	Accessor[S]

	opponent *Accessor[S]
}

// State returns the store the view writes to.
func (that *View[S]) State() *Store[S] {
	return that.store
}

// Player returns the current player's id.
func (that *View[S]) Player() ID {
	return that.id
}

// Opponent is only available in two player games.
func (that *View[S]) Opponent() (*Accessor[S], bool) {
	if that.opponent == nil {
		return nil, false
	}

	return that.opponent, true
}
