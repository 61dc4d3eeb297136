package errors

import (
	"errors"
	"fmt"
)

// Failures of the session layer. Callers match them with Is through any wrapping.
var (
	// The remote API refused the user name or password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Nothing is stored in the credential region
	ErrNoActiveSession = errors.New("no active session")

	// A credential is present but cannot be decoded
	ErrMalformedCredential = errors.New("malformed credential")

	// The remote API answered with a status or body the client does not understand
	ErrUnexpectedResponse = errors.New("unexpected response from remote api")

	ErrNotFound = errors.New("not found")
)

// Wrapf prefixes err with a formatted message. A nil err stays nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
