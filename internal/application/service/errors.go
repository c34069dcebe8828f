package service

import "errors"

var (
	// ErrValidation is returned when a required input is missing or
	// malformed. No side effects have been performed.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when the referenced form or user does not
	// exist. No side effects have been performed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when creating a user with an email that is
	// already registered.
	ErrEmailTaken = errors.New("email already registered")
)
