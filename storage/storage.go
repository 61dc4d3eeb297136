package storage

import (
	"time"

	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
)

// Well known keys of the two storage regions
const (
	KeyAccessToken = "access_token"
	KeyUsername    = "USERNAME"
)

// ErrNotFound is returned by Get when a key holds no value
var ErrNotFound = apperrors.ErrNotFound

// Store is a scoped key-value region.
// Remove of a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

// ExpiringStore is implemented by regions that can bind an entry's lifetime to an instant.
// Setting an expiry at or before now removes the key.
type ExpiringStore interface {
	Store
	SetWithExpiry(key, value string, expiresAt time.Time) error
}
