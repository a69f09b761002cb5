package service

import (
	"errors"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("wrong email or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrRevocationDisabled = errors.New("token revocation is disabled")

	ErrUnauthorized       = errors.New("unauthorized")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMalformedHeader    = errors.New("malformed authorization header")
)

// AuthError is the single rejection type of the session gate. It matches
// ErrUnauthorized and its Cause with errors.Is, so callers can answer 401
// uniformly while logs keep the specific reason.
type AuthError struct {
	Cause  error
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

func (e *AuthError) Unwrap() []error {
	return []error{ErrUnauthorized, e.Cause}
}

// InputError carries a message meant for the client. It matches
// ErrInvalidInput.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(reason string) error {
	return &InputError{Reason: reason}
}
