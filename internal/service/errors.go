package service

import "errors"

// Domain errors surfaced to handlers. Ownership failures map onto
// ErrNotFound deliberately: a caller probing someone else's session must
// not learn that it exists.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrSessionNotActive  = errors.New("session is not in progress")
	ErrInvalidOption     = errors.New("selected option must be one of A, B, C or D")
	ErrInvalidTransition = errors.New("session is already in a terminal state")
	ErrDataIntegrity     = errors.New("session references a question missing from the store")
)
