package model

import "errors"

// Typed errors the store returns and the API layer maps to HTTP status
// codes. Wrap with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a lookup of a record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an operation losing to existing state, such as
	// claiming an item another claim already holds.
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition marks a state change the lifecycle does not
	// allow, such as resolving a claim twice.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden marks a caller lacking the required capability.
	ErrForbidden = errors.New("forbidden")
)
