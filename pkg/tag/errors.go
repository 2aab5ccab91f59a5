package tag

import "errors"

var (
	// ErrMissingKey is returned when a typed read targets an absent key.
	ErrMissingKey = errors.New("missing key")

	// ErrTypeMismatch is returned when a stored tag has a different kind than requested.
	ErrTypeMismatch = errors.New("tag type mismatch")
)
