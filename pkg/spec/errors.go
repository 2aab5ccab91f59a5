package spec

import "errors"

var (
	// ErrDuplicateField is returned when a specification declares a name twice.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrUnsupportedFieldType is returned when derivation finds a member type
	// that is neither a value kind, a registered type nor a nested structure.
	ErrUnsupportedFieldType = errors.New("unsupported field type")

	// ErrUndeclaredField is returned when a specified region holds or receives
	// a key the specification does not declare.
	ErrUndeclaredField = errors.New("undeclared field")

	ErrInvalidField = errors.New("invalid field")
)
