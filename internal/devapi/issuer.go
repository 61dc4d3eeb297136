package devapi

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiry matches the one hour sessions of the book-library API
const DefaultTokenExpiry = time.Hour

// Issuer creates and verifies HS256 credentials
type Issuer struct {
	secret  []byte
	expiry  time.Duration
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(expiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.expiry = expiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(secret []byte, options ...IssuerOption) *Issuer {
	i := &Issuer{
		secret:  secret,
		expiry:  DefaultTokenExpiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Issue signs a credential for account
func (i *Issuer) Issue(account *Account) (string, error) {
	now := i.nowFunc()
	claims := jwtlib.MapClaims{
		"sub":   account.ID,    // Users unique ID
		"name":  account.Name,  // Display name shown by the client
		"email": account.Email, // Login name
		"roles": account.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(i.expiry).Unix(),
		"jti":   uuid.New().String(),
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims
func (i *Issuer) Verify(raw string) (jwtlib.MapClaims, error) {
	token, err := jwtlib.ParseWithClaims(raw, jwtlib.MapClaims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwtlib.WithTimeFunc(i.nowFunc), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid credential")
	}
	return claims, nil
}
