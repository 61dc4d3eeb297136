package credential_test

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/book-library-client/credential"
	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, claims jwtlib.MapClaims) credential.Credential {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return credential.Credential(token)
}

func TestJWTDecoder_Decode(t *testing.T) {
	d := credential.NewJWTDecoder()

	t.Run("full claims", func(t *testing.T) {
		raw := sign(t, jwtlib.MapClaims{
			"sub":   "user-1",
			"name":  "alice",
			"roles": []string{"USER", "ADMIN"},
			"iat":   testNow.Unix(),
			"exp":   testNow.Add(time.Hour).Unix(),
		})

		claims, err := d.Decode(raw)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, "user-1", claims.UserID)
		require.Equal(t, []string{"USER", "ADMIN"}, claims.Roles)
		require.True(t, claims.HasRole("ADMIN"))
		require.False(t, claims.HasRole("LIBRARIAN"))
		require.True(t, claims.IssuedAt.Equal(testNow))
		require.True(t, claims.ExpiresAt.Equal(testNow.Add(time.Hour)))
	})

	t.Run("subject falls back to sub", func(t *testing.T) {
		claims, err := d.Decode(sign(t, jwtlib.MapClaims{"sub": "user-2", "exp": testNow.Unix()}))
		require.NoError(t, err)
		require.Equal(t, "user-2", claims.Subject)
		require.Empty(t, claims.Roles)
		require.True(t, claims.IssuedAt.IsZero())
	})

	valid := sign(t, jwtlib.MapClaims{"name": "alice", "exp": testNow.Add(time.Hour).Unix()})

	malformed := []struct {
		name   string
		raw    credential.Credential
		reason string
	}{
		{"empty", "", "empty credential"},
		{"whitespace", "   ", "empty credential"},
		{"garbage", "garbage", "not a jwt"},
		{"truncated", credential.Credential(valid.String()[:strings.LastIndex(valid.String(), ".")]), "not a jwt"},
		{"bad base64", "@@@.@@@.@@@", "not a jwt"},
		{"missing exp", sign(t, jwtlib.MapClaims{"name": "alice"}), "missing exp claim"},
		{"non numeric exp", sign(t, jwtlib.MapClaims{"name": "alice", "exp": "tomorrow"}), "invalid exp claim"},
		{"missing subject", sign(t, jwtlib.MapClaims{"exp": testNow.Unix()}), "missing subject"},
	}

	for _, tc := range malformed {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Decode(tc.raw)
			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrMalformedCredential)

			var decodeErr *credential.DecodeError
			require.ErrorAs(t, err, &decodeErr)
			require.Equal(t, tc.reason, decodeErr.Reason)
		})
	}
}

func TestJWTDecoder_IsExpired(t *testing.T) {
	d := credential.NewJWTDecoder()
	raw := sign(t, jwtlib.MapClaims{"name": "alice", "exp": testNow.Unix()})

	require.False(t, d.IsExpired(raw, testNow.Add(-time.Second)))
	require.True(t, d.IsExpired(raw, testNow), "expiry instant counts as expired")
	require.True(t, d.IsExpired(raw, testNow.Add(time.Second)))
	require.True(t, d.IsExpired("garbage", testNow))
}
