package game

import "fmt"

// IllegalActionError rejects an action that is valid JSON but not legal in
// the current game state (wrong turn, occupied cell, order violation). The
// action leaves no trace; the client gets the reason verbatim.
type IllegalActionError struct {
	Reason string
}

func (e *IllegalActionError) Error() string { return e.Reason }

func illegalf(format string, args ...any) error {
	return &IllegalActionError{Reason: fmt.Sprintf(format, args...)}
}

// AuthError means the passphrase did not match. The hub closes the socket
// after sending it.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// NotFoundError covers unknown game or player ids.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }
