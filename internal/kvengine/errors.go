package kvengine

import "errors"

// Error taxonomy exposed to callers, per spec section 6.
var (
	// ErrAlreadyOpen is returned by Open when another session for the same
	// path is already live in this process (or another process holds the
	// advisory file lock).
	ErrAlreadyOpen = errors.New("kvengine: database already open")

	// ErrBadName is returned for a malformed or empty database path.
	ErrBadName = errors.New("kvengine: bad database path")

	// ErrNotFound is returned by Get for an absent key.
	ErrNotFound = errors.New("kvengine: key not found")

	// ErrIo wraps underlying storage errors.
	ErrIo = errors.New("kvengine: storage error")

	// ErrInternal marks a violated internal precondition (misuse of the API,
	// not a storage or data problem).
	ErrInternal = errors.New("kvengine: internal error")
)
