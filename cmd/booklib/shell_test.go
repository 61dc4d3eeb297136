package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/book-library-client/internal/config"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("PROFILE_STORE", "memory")
	t.Setenv("METRICS_ADDR", "")

	a, err := newApp(config.New(), true)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func runLines(t *testing.T, a *app, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, runShell(context.Background(), in, &out, a))
	return out.String()
}

func TestShell_LoginLifecycle(t *testing.T) {
	a := newTestApp(t)

	out := runLines(t, a,
		"open /search",
		"login demo demo",
		"whoami",
		"whoami --remote",
		"open /login",
		"where",
	)
	require.Contains(t, out, "-> /book")
	require.Contains(t, out, "Logged in as Demo Reader")
	require.Contains(t, out, "Demo Reader <demo> USER")
	require.Contains(t, out, "-> /search")
	require.Equal(t, "/search", a.router.Current())
	require.True(t, a.sessions.Monitor().Armed())

	out = runLines(t, a, "logout --forget", "whoami", "status")
	require.Contains(t, out, "Logged out")
	require.Contains(t, out, "Not logged in")
	require.Contains(t, out, "authenticated: false")
	require.NotContains(t, out, "last user:")
	require.False(t, a.sessions.Monitor().Armed())
	require.Equal(t, "/book", a.router.Current())
}

func TestShell_Errors(t *testing.T) {
	a := newTestApp(t)

	out := runLines(t, a,
		"login demo wrong",
		"frobnicate",
		"",
		"whoami --remote",
		"quit",
		"login demo demo",
	)
	require.Contains(t, out, "Log in refused")
	require.Contains(t, out, "error: ")
	require.False(t, a.sessions.IsAuthenticated(), "nothing runs after quit")
}

func TestShell_Help(t *testing.T) {
	a := newTestApp(t)

	out := runLines(t, a, "--help")
	require.Contains(t, out, "login")
	require.Contains(t, out, "logout")
}

func TestShell_Shutdown(t *testing.T) {
	a := newTestApp(t)
	runLines(t, a, "login demo demo")
	require.True(t, a.sessions.Monitor().Armed())

	a.shutdown()
	require.False(t, a.sessions.Monitor().Armed())
	require.False(t, a.sessions.IsAuthenticated())
}

func TestShell_NavigationFromAnotherGoroutine(t *testing.T) {
	a := newTestApp(t)

	in, feed := io.Pipe()
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- runShell(context.Background(), in, &out, a) }()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			a.router.Navigate("/search")
			a.router.Navigate("/book")
		}
	}()

	_, err := io.WriteString(feed, "where\n")
	require.NoError(t, err)
	wg.Wait()
	require.NoError(t, feed.Close())
	require.NoError(t, <-done)
}
