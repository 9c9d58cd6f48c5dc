package lua

import "errors"

// Lua runtime errors.
var (
	// ErrStateClosed is returned when using a closed Lua state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotFunction is returned when a named global is not callable.
	ErrNotFunction = errors.New("global is not a function")
)
