package credential

import (
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
)

// Credential is the opaque, self-expiring token issued by the remote API.
// A new login always yields a new Credential.
type Credential string

func (c Credential) String() string {
	return string(c)
}

// Claims are the fields decoded from a Credential
type Claims struct {
	Subject   string    // Display name of the user (name claim, falling back to sub)
	UserID    string    // sub claim
	Roles     []string  // roles claim, empty when absent
	IssuedAt  time.Time // zero when the token carries no iat
	ExpiresAt time.Time
}

// ValidAt reports whether the claims are still valid at now. The expiry instant itself is expired.
func (c Claims) ValidAt(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// HasRole is true when any of roles was granted
func (c Claims) HasRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// DecodeError is returned for any token that cannot be decoded.
// It matches apperrors.ErrMalformedCredential with errors.Is.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", apperrors.ErrMalformedCredential, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrMalformedCredential, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == apperrors.ErrMalformedCredential
}

// Decoder turns raw credentials into claims without trusting anything but the token itself
type Decoder interface {
	// Decode returns the claims or a *DecodeError
	Decode(raw Credential) (Claims, error)

	// IsExpired is true when raw is expired at now or cannot be decoded
	IsExpired(raw Credential, now time.Time) bool
}
