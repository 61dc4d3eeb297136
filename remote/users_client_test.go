package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/book-library-client/credential"
	"github.com/jrsteele09/book-library-client/internal/devapi"
	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/jrsteele09/book-library-client/remote"
	"github.com/stretchr/testify/require"
)

func newDevAPI(t *testing.T) *httptest.Server {
	t.Helper()
	accounts := devapi.NewAccounts()
	_, err := accounts.Add("alice", "Alice", "secret")
	require.NoError(t, err)

	server := httptest.NewServer(devapi.New(accounts, devapi.NewIssuer([]byte("test-key"))))
	t.Cleanup(server.Close)
	return server
}

func newStubAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestUsersClient_LogIn(t *testing.T) {
	ctx := context.Background()

	t.Run("issued credential", func(t *testing.T) {
		client := remote.NewUsersClient(newDevAPI(t).URL + "/")

		resp, err := client.LogIn(ctx, remote.LoginRequest{Username: "alice", Password: "secret"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(resp.Body), "YOUR ACCESS WAS GRANTED")

		claims, err := credential.NewJWTDecoder().Decode(resp.Credential)
		require.NoError(t, err)
		require.Equal(t, "Alice", claims.Subject)
		require.True(t, claims.ValidAt(time.Now()))
	})

	t.Run("rejected", func(t *testing.T) {
		client := remote.NewUsersClient(newDevAPI(t).URL)

		_, err := client.LogIn(ctx, remote.LoginRequest{Username: "alice", Password: "wrong"})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("sends basic auth and json body", func(t *testing.T) {
		var (
			lock               sync.Mutex
			gotMethod, gotPath string
			gotUser, gotPass   string
			gotBody            remote.LoginRequest
		)
		server := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
			lock.Lock()
			defer lock.Unlock()
			gotMethod, gotPath = r.Method, r.URL.Path
			gotUser, gotPass, _ = r.BasicAuth()
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("X-Token", "abc")
		})
		client := remote.NewUsersClient(server.URL,
			remote.WithLoginPath("/custom/token"),
			remote.WithTokenHeader("X-Token"),
		)

		resp, err := client.LogIn(ctx, remote.LoginRequest{Username: "bob", Password: "pw"})
		require.NoError(t, err)
		require.Equal(t, credential.Credential("abc"), resp.Credential)

		lock.Lock()
		defer lock.Unlock()
		require.Equal(t, http.MethodPost, gotMethod)
		require.Equal(t, "/custom/token", gotPath)
		require.Equal(t, "bob", gotUser)
		require.Equal(t, "pw", gotPass)
		require.Equal(t, remote.LoginRequest{Username: "bob", Password: "pw"}, gotBody)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		server := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "SESSION-COOKIE", Value: "from-cookie"})
		})

		cred, err := remote.NewUsersClient(server.URL).IssueCredential(ctx, "bob", "pw")
		require.NoError(t, err)
		require.Equal(t, credential.Credential("from-cookie"), cred)
	})

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"forbidden", http.StatusForbidden, apperrors.ErrInvalidCredentials},
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrInvalidCredentials},
		{"server error", http.StatusInternalServerError, apperrors.ErrUnexpectedResponse},
		{"not found", http.StatusNotFound, apperrors.ErrUnexpectedResponse},
		{"success without token", http.StatusOK, apperrors.ErrMalformedCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := remote.NewUsersClient(server.URL).IssueCredential(ctx, "bob", "pw")
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		server := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {})
		url := server.URL
		server.Close()

		_, err := remote.NewUsersClient(url).IssueCredential(ctx, "bob", "pw")
		require.Error(t, err)
		require.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestUsersClient_LogInSendsOneRequest(t *testing.T) {
	statuses := []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusInternalServerError}
	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			server := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(status)
					return
				}
				w.Header().Set("access_token", "abc")
			})

			_, err := remote.NewUsersClient(server.URL).IssueCredential(context.Background(), "bob", "pw")
			require.ErrorIs(t, err, apperrors.ErrUnexpectedResponse)
			require.Equal(t, int32(1), calls.Load())
		})
	}
}

type staticSource struct {
	token credential.Credential
}

func (s staticSource) Token() (credential.Credential, bool) {
	return s.token, s.token != ""
}

type recordingSink struct {
	got []credential.Credential
}

func (s *recordingSink) SetCredential(raw credential.Credential) error {
	s.got = append(s.got, raw)
	return nil
}

func TestUsersClient_Me(t *testing.T) {
	ctx := context.Background()
	server := newDevAPI(t)

	login, err := remote.NewUsersClient(server.URL).LogIn(ctx, remote.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	t.Run("with bearer", func(t *testing.T) {
		client := remote.NewUsersClient(server.URL, remote.WithHTTPClient(&http.Client{
			Transport: &remote.BearerTransport{Source: staticSource{token: login.Credential}},
		}))

		user, err := client.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, "Alice", user.Name)
		require.Equal(t, "alice", user.Email)
	})

	t.Run("without bearer", func(t *testing.T) {
		client := remote.NewUsersClient(server.URL, remote.WithHTTPClient(&http.Client{
			Transport: &remote.BearerTransport{Source: staticSource{}},
		}))

		_, err := client.Me(ctx)
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestBearerTransport(t *testing.T) {
	var (
		lock    sync.Mutex
		gotAuth string
		fresh   string
	)
	setFresh := func(v string) {
		lock.Lock()
		defer lock.Unlock()
		fresh = v
	}
	lastAuth := func() string {
		lock.Lock()
		defer lock.Unlock()
		return gotAuth
	}
	server := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		gotAuth = r.Header.Get("Authorization")
		if fresh != "" {
			w.Header().Set("access_token", fresh)
		}
	})

	sink := &recordingSink{}
	client := &http.Client{Transport: &remote.BearerTransport{
		Source: staticSource{token: "current"},
		Sink:   sink,
	}}

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	t.Run("attaches bearer without touching the request", func(t *testing.T) {
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, "Bearer current", lastAuth())
		require.Empty(t, req.Header.Get("Authorization"))
		require.Empty(t, sink.got)
	})

	t.Run("same credential is not stored again", func(t *testing.T) {
		setFresh("current")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Empty(t, sink.got)
	})

	t.Run("fresh credential goes to the sink", func(t *testing.T) {
		setFresh("rotated")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, []credential.Credential{"rotated"}, sink.got)
	})
}
