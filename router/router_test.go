package router_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/book-library-client/credential"
	"github.com/jrsteele09/book-library-client/guard"
	"github.com/jrsteele09/book-library-client/monitor/fakeclock"
	"github.com/jrsteele09/book-library-client/navigation"
	"github.com/jrsteele09/book-library-client/remote/fakeremote"
	"github.com/jrsteele09/book-library-client/router"
	"github.com/jrsteele09/book-library-client/session"
	"github.com/jrsteele09/book-library-client/storage/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	pollFor = 5 * time.Millisecond
)

type changes struct {
	paths []string
	lock  sync.Mutex
}

func (c *changes) record(path string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.paths = append(c.paths, path)
}

func (c *changes) all() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]string(nil), c.paths...)
}

type testFixture struct {
	clock   *fakeclock.Clock
	router  *router.Router
	manager *session.Manager
	changes *changes
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		clock:   fakeclock.New(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		changes: &changes{},
	}
	remote := fakeremote.New(fakeremote.WithNowFunc(f.clock.Now))
	remote.AddUser("alice", "Alice", "secret")

	f.router = router.New(router.WithOnChange(f.changes.record))
	manager, err := session.New(session.Deps{
		Authenticator: remote,
		Tokens:        memstore.New(memstore.WithNowFunc(f.clock.Now)),
		Profile:       memstore.New(),
		Decoder:       credential.NewJWTDecoder(),
		Navigator:     f.router,
	}, session.WithNowTime(f.clock.Now), session.WithClock(f.clock))
	require.NoError(t, err)
	t.Cleanup(manager.Monitor().Disarm)
	f.manager = manager

	router.RegisterDefaultRoutes(f.router, manager, router.DefaultPaths)
	return f
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	_, err := f.manager.Authenticate(context.Background(), session.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
}

func TestDefaultRoutes_Guest(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"root redirects to login", "/", router.PathLogin},
		{"empty redirects to login", "", router.PathLogin},
		{"login page", "login", router.PathLogin},
		{"public book page", "/book/", router.PathBook},
		{"public books page", router.PathBooks, router.PathBooks},
		{"search needs a session", router.PathSearch, router.PathBook},
		{"loans need a session", router.PathLoans, router.PathBook},
		{"unknown falls back to login", "/nowhere", router.PathLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.router.Navigate(tt.path)
			require.Equal(t, tt.want, f.router.Current())
		})
	}
}

func TestDefaultRoutes_Authenticated(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.router.Navigate(router.PathUsers)
	require.Equal(t, router.PathUsers, f.router.Current())

	f.router.Navigate(router.PathLogin)
	require.Equal(t, router.PathSearch, f.router.Current(), "logged in users skip the log in page")
	require.True(t, f.manager.IsAuthenticated())

	f.manager.Logout()
	require.Equal(t, router.PathBook, f.router.Current())
	require.False(t, f.manager.IsAuthenticated())
}

func TestDefaultRoutes_ExpiryNavigatesToLanding(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.router.Navigate(router.PathSearch)
	require.Equal(t, router.PathSearch, f.router.Current())

	f.clock.Advance(time.Hour)
	require.Equal(t, 1, f.clock.Tick())
	require.Eventually(t, func() bool { return len(f.changes.all()) == 2 }, waitFor, pollFor)

	assert.Equal(t, router.PathBook, f.router.Current())
	assert.Equal(t, []string{router.PathSearch, router.PathBook}, f.changes.all())
}

func TestRouter_ChainCapped(t *testing.T) {
	r := router.New()
	r.Redirect("/a", "/b")
	r.Redirect("/b", "/a")
	r.Handle("/home")

	r.Navigate("/home")
	r.Navigate("/a")
	require.Equal(t, "/home", r.Current())
}

func TestRouter_GuardNavigatesDuringNavigation(t *testing.T) {
	r := router.New()
	var hops int
	r.Handle("/ping", guard.Func(func(string) bool {
		hops++
		r.Navigate("/ping")
		return true
	}))

	r.Navigate("/ping")
	require.Equal(t, router.MaxRedirects+1, hops)
	require.Empty(t, r.Current(), "an endless chain never activates")
}

func TestRouter_BlockedKeepsCurrent(t *testing.T) {
	r := router.New()
	r.Handle("/open")
	r.Handle("/closed", guard.Func(func(string) bool { return false }))

	r.Navigate("/open")
	r.Navigate("/closed")
	require.Equal(t, "/open", r.Current())

	r.Navigate("/unknown")
	require.Equal(t, "/open", r.Current(), "without a fallback unknown paths are ignored")
}

func TestRouter_Routes(t *testing.T) {
	r := router.New(router.WithFallback("/b"))
	r.Handle("a")
	r.Handle("/b")
	r.Handle("/a/")

	routes := r.Routes()
	require.Len(t, routes, 2)
	require.Equal(t, "/a", routes[0].Path)
	require.Equal(t, "/b", routes[1].Path)

	r.Navigate("/zzz")
	require.Equal(t, "/b", r.Current())
}

func TestRouter_IsNavigator(t *testing.T) {
	r := router.New()
	r.Handle("/x")
	recorder := navigation.NewRecorder(r)

	recorder.Navigate("/x")
	require.Equal(t, "/x", r.Current())
	require.Equal(t, 1, recorder.Count())
}
