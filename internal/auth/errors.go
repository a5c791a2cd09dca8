package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoSession          = errors.New("no active session")
	ErrEmptyPassword      = errors.New("password must not be empty")
)
