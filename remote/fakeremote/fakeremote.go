package fakeremote

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/book-library-client/credential"
	"github.com/jrsteele09/book-library-client/internal/devapi"
	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/jrsteele09/book-library-client/session"
)

var _ session.Authenticator = (*FakeAuthenticator)(nil)

// FakeAuthenticator issues real signed credentials for a fixed set of users
// without any HTTP round trip.
type FakeAuthenticator struct {
	users  map[string]fakeUser
	issuer *devapi.Issuer
	calls  int

	err      error
	override *credential.Credential

	lock sync.Mutex
}

type fakeUser struct {
	account  *devapi.Account
	password string
}

type Option func(*options)

type options struct {
	now    func() time.Time
	expiry time.Duration
}

// WithNowFunc sets the issue time of credentials
func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithExpiry(expiry time.Duration) Option {
	return func(o *options) {
		o.expiry = expiry
	}
}

func New(opts ...Option) *FakeAuthenticator {
	o := options{now: time.Now, expiry: devapi.DefaultTokenExpiry}
	for _, opt := range opts {
		opt(&o)
	}
	return &FakeAuthenticator{
		users:  make(map[string]fakeUser),
		issuer: devapi.NewIssuer([]byte("fake-remote"), devapi.WithNowFunc(o.now), devapi.WithTokenExpiry(o.expiry)),
	}
}

// AddUser registers username; name is the subject the credential carries
func (f *FakeAuthenticator) AddUser(username, name, password string, roles ...string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.users[username] = fakeUser{
		account:  &devapi.Account{ID: "id-" + username, Name: name, Email: username, Roles: roles},
		password: password,
	}
}

// FailWith makes every following call return err. nil restores normal behaviour.
func (f *FakeAuthenticator) FailWith(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

// Return makes every following successful log in yield raw instead of a signed credential
func (f *FakeAuthenticator) Return(raw credential.Credential) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.override = &raw
}

func (f *FakeAuthenticator) Calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

func (f *FakeAuthenticator) IssueCredential(ctx context.Context, username, password string) (credential.Credential, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls++

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}

	user, ok := f.users[username]
	if !ok || user.password != password {
		return "", apperrors.ErrInvalidCredentials
	}
	if f.override != nil {
		return *f.override, nil
	}

	raw, err := f.issuer.Issue(user.account)
	if err != nil {
		return "", err
	}
	return credential.Credential(raw), nil
}
