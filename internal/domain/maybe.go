package domain

// Maybe holds a value that may be absent. It replaces nil/empty checks for
// optional tables so downstream stages have a single way to ask "is there
// data?".
type Maybe[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.ok
}

// Present reports whether a value is held.
func (m Maybe[T]) Present() bool {
	return m.ok
}
