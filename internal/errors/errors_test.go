package errors_test

import (
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, apperrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("sentinel survives wrapping", func(t *testing.T) {
		err := apperrors.Wrapf(apperrors.ErrInvalidCredentials, "log in as %s", "alice")
		require.EqualError(t, err, "log in as alice: invalid credentials")
		require.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
		require.False(t, apperrors.Is(err, apperrors.ErrNoActiveSession))
	})

	t.Run("double wrap", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", apperrors.Wrapf(apperrors.ErrMalformedCredential, "decode"))
		require.True(t, apperrors.Is(err, apperrors.ErrMalformedCredential))
	})
}
