package credential

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/book-library-client/internal/utils"
)

var _ Decoder = (*JWTDecoder)(nil)

// JWTDecoder reads the claims of a JWT without verifying its signature.
// The client has no key material; the token's self-declared expiry is the whole trust model.
type JWTDecoder struct {
	parser *jwtlib.Parser
}

func NewJWTDecoder() *JWTDecoder {
	return &JWTDecoder{parser: jwtlib.NewParser()}
}

func (d *JWTDecoder) Decode(raw Credential) (claims Claims, err error) {
	// The parser must never take the caller down, whatever the input.
	defer func() {
		if r := recover(); r != nil {
			claims, err = Claims{}, &DecodeError{Reason: "decoder fault"}
		}
	}()

	rawToken := strings.TrimSpace(raw.String())
	if rawToken == "" {
		return Claims{}, &DecodeError{Reason: "empty credential"}
	}

	token, _, err := d.parser.ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}, &DecodeError{Reason: "not a jwt", Err: err}
	}

	mapClaims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}, &DecodeError{Reason: "error extracting claims"}
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return Claims{}, &DecodeError{Reason: "invalid exp claim", Err: err}
	}
	if exp == nil {
		return Claims{}, &DecodeError{Reason: "missing exp claim"}
	}

	sub, _ := mapClaims["sub"].(string)
	name, _ := mapClaims["name"].(string)
	subject := strings.TrimSpace(name)
	if subject == "" {
		subject = sub
	}
	if subject == "" {
		return Claims{}, &DecodeError{Reason: "missing subject"}
	}

	var issuedAt time.Time
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		issuedAt = iat.Time
	}

	return Claims{
		Subject:   subject,
		UserID:    sub,
		Roles:     utils.ToStringSlice(mapClaims["roles"]),
		IssuedAt:  issuedAt,
		ExpiresAt: exp.Time,
	}, nil
}

func (d *JWTDecoder) IsExpired(raw Credential, now time.Time) bool {
	claims, err := d.Decode(raw)
	if err != nil {
		return true
	}
	return !claims.ValidAt(now)
}
