package remote

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/book-library-client/credential"
	"github.com/rs/zerolog/log"
)

// TokenSource yields the credential to present, if any
type TokenSource interface {
	Token() (credential.Credential, bool)
}

// CredentialSink accepts a credential handed out by the API on an ordinary response
type CredentialSink interface {
	SetCredential(raw credential.Credential) error
}

var _ http.RoundTripper = (*BearerTransport)(nil)

// BearerTransport presents the stored credential as a Bearer token and hands any
// fresh credential in the token header back to Sink.
type BearerTransport struct {
	Base   http.RoundTripper // http.DefaultTransport when nil
	Source TokenSource
	Sink   CredentialSink // optional
	Header string         // DefaultTokenHeader when empty
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var (
		current credential.Credential
		ok      bool
	)
	if t.Source != nil {
		current, ok = t.Source.Token()
	}

	// RoundTrippers must not modify the caller's request
	if ok {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+current.String())
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.Sink != nil {
		if fresh := strings.TrimSpace(resp.Header.Get(t.header())); fresh != "" && fresh != current.String() {
			if err := t.Sink.SetCredential(credential.Credential(fresh)); err != nil {
				log.Err(err).Msg("BearerTransport: failed to store fresh credential")
			}
		}
	}
	return resp, nil
}

func (t *BearerTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *BearerTransport) header() string {
	if t.Header != "" {
		return t.Header
	}
	return DefaultTokenHeader
}
