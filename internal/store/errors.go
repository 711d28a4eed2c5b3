package store

import "errors"

var (
	// ErrDuplicateAccount is returned when a create collides with an
	// existing account on the github_id unique index.
	ErrDuplicateAccount = errors.New("duplicate account on field github_id")

	// ErrUserNotFound wraps GORM's not found error for consistency
	ErrUserNotFound = errors.New("user not found")
)
