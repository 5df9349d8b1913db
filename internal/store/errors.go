package store

import "errors"

// Sentinel errors for the domain error taxonomy. Store functions wrap these
// with context; callers match with errors.Is and map them to HTTP statuses.
var (
	// ErrNotFound means a referenced gift, list or reservation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a state-machine precondition failed: the gift is no
	// longer available, or no longer reserved.
	ErrConflict = errors.New("conflict")

	// ErrForbidden means the caller is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalid means the input is malformed or missing required fields.
	ErrInvalid = errors.New("invalid input")
)
