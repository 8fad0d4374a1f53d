package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or inconsistent request input.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration indicates missing or malformed statutory configuration.
	ErrConfiguration = errors.New("configuration invalid")
	// ErrForbidden indicates the caller is not a member of the company scope.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates the underlying atomic write failed; callers may retry.
	ErrConflict = errors.New("transaction conflict")
)
