package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfRange   = errors.New("history index out of range")
	ErrEditDeclined = errors.New("edit declined")
)
