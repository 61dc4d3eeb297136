package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/book-library-client/credential"
	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLoginPath         = "/v1/users/token"
	DefaultMePath            = "/v1/users/me"
	DefaultTokenHeader       = "access_token"
	DefaultSessionCookieName = "SESSION-COOKIE"
	DefaultTimeout           = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// LoginRequest is the user supplied log in form
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is a successful log in. Body is whatever the API returned, kept opaque.
type LoginResponse struct {
	Credential credential.Credential
	StatusCode int
	Body       []byte
}

// User is the account behind a credential as reported by the API
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// UsersClient talks to the users resource of the book-library API
type UsersClient struct {
	baseURL           string
	httpClient        *http.Client
	loginPath         string
	mePath            string
	tokenHeader       string
	sessionCookieName string
}

type Option func(*UsersClient)

// WithHTTPClient replaces the default client, e.g. to install a BearerTransport
func WithHTTPClient(client *http.Client) Option {
	return func(c *UsersClient) {
		c.httpClient = client
	}
}

func WithLoginPath(path string) Option {
	return func(c *UsersClient) {
		c.loginPath = path
	}
}

func WithTokenHeader(header string) Option {
	return func(c *UsersClient) {
		c.tokenHeader = header
	}
}

func WithSessionCookieName(name string) Option {
	return func(c *UsersClient) {
		c.sessionCookieName = name
	}
}

func NewUsersClient(baseURL string, options ...Option) *UsersClient {
	c := &UsersClient{
		baseURL:           strings.TrimRight(baseURL, "/"),
		httpClient:        &http.Client{Timeout: DefaultTimeout},
		loginPath:         DefaultLoginPath,
		mePath:            DefaultMePath,
		tokenHeader:       DefaultTokenHeader,
		sessionCookieName: DefaultSessionCookieName,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// LogIn posts the credentials as HTTP Basic and as a JSON body and returns the issued credential.
// The credential comes from the token header, falling back to the session cookie.
// Exactly one request is sent; the caller decides whether to try again.
func (c *UsersClient) LogIn(ctx context.Context, login LoginRequest) (*LoginResponse, error) {
	payload, err := json.Marshal(login)
	if err != nil {
		return nil, errors.Wrap(err, "[LogIn] failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.loginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[LogIn] failed to build request")
	}
	req.SetBasicAuth(login.Username, login.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[LogIn] request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "[LogIn] failed to read response")
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		log.Debug().Int("status", resp.StatusCode).Str("username", login.Username).Msg("log in refused")
		return nil, errors.Wrap(err, "[LogIn]")
	}

	token := c.tokenFrom(resp)
	if token == "" {
		return nil, errors.Wrapf(apperrors.ErrMalformedCredential, "[LogIn] no %s header or %s cookie in response", c.tokenHeader, c.sessionCookieName)
	}

	return &LoginResponse{
		Credential: credential.Credential(token),
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// IssueCredential makes UsersClient usable as the session Authenticator
func (c *UsersClient) IssueCredential(ctx context.Context, username, password string) (credential.Credential, error) {
	resp, err := c.LogIn(ctx, LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	return resp.Credential, nil
}

// Me returns the account behind the credential the http client presents
func (c *UsersClient) Me(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.mePath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Me] failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Me] request failed")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, errors.Wrap(err, "[Me]")
	}

	var user User
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&user); err != nil {
		return nil, errors.Wrapf(apperrors.ErrUnexpectedResponse, "[Me] failed to decode user: %v", err)
	}
	return &user, nil
}

func (c *UsersClient) tokenFrom(resp *http.Response) string {
	if token := strings.TrimSpace(resp.Header.Get(c.tokenHeader)); token != "" {
		return token
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == c.sessionCookieName && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

func checkStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.ErrInvalidCredentials
	default:
		return errors.Wrapf(apperrors.ErrUnexpectedResponse, "status %d", status)
	}
}
