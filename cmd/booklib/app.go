package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/book-library-client/credential"
	"github.com/jrsteele09/book-library-client/internal/config"
	"github.com/jrsteele09/book-library-client/internal/devapi"
	"github.com/jrsteele09/book-library-client/remote"
	"github.com/jrsteele09/book-library-client/router"
	"github.com/jrsteele09/book-library-client/session"
	"github.com/jrsteele09/book-library-client/storage"
	"github.com/jrsteele09/book-library-client/storage/filestore"
	"github.com/jrsteele09/book-library-client/storage/memstore"
	"github.com/jrsteele09/book-library-client/storage/redisstore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	demoUsername = "demo"
	demoPassword = "demo"
)

// app is the wired client: stores, remote API, router and session manager
type app struct {
	sessions *session.Manager
	router   *router.Router
	users    *remote.UsersClient // authenticated calls go through the bearer transport
	baseURL  string
	landing  string // where a successful log in navigates to

	onNavigate atomic.Pointer[func(path string)] // also read from the expiry monitor goroutine
	servers    []*http.Server
	closers    []func() error
}

func newApp(c config.Config, dev bool) (*app, error) {
	a := &app{
		baseURL: c.GetAPIBaseURL(),
		landing: c.GetAuthenticatedLandingPath(),
	}

	if dev {
		baseURL, err := a.startDevAPI()
		if err != nil {
			return nil, err
		}
		a.baseURL = baseURL
	}

	if addr := c.GetMetricsAddr(); addr != "" {
		a.startMetrics(addr)
	}

	profile, err := a.newProfileStore(c)
	if err != nil {
		a.close()
		return nil, err
	}

	a.router = router.New(router.WithOnChange(a.notifyNavigate))

	login := remote.NewUsersClient(a.baseURL,
		remote.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		remote.WithLoginPath(c.GetLoginPath()),
		remote.WithTokenHeader(c.GetTokenHeader()),
		remote.WithSessionCookieName(c.GetSessionCookieName()),
	)

	a.sessions, err = session.New(session.Deps{
		Authenticator: login,
		Tokens:        memstore.New(),
		Profile:       profile,
		Decoder:       credential.NewJWTDecoder(),
		Navigator:     a.router,
	},
		session.WithMonitorInterval(c.GetMonitorInterval()),
		session.WithLandingPath(c.GetLandingPath()),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	router.RegisterDefaultRoutes(a.router, a.sessions, router.RoutePaths{
		Login:                c.GetLoginRoutePath(),
		AuthenticatedLanding: c.GetAuthenticatedLandingPath(),
	})

	a.users = remote.NewUsersClient(a.baseURL, remote.WithHTTPClient(&http.Client{
		Timeout: c.GetHTTPTimeout(),
		Transport: &remote.BearerTransport{
			Source: a.sessions,
			Sink:   a.sessions,
			Header: c.GetTokenHeader(),
		},
	}))

	log.Info().Str("api", a.baseURL).Str("profile_store", string(c.GetProfileStore())).Msg("client ready")
	return a, nil
}

func (a *app) setOnNavigate(fn func(path string)) {
	a.onNavigate.Store(&fn)
}

func (a *app) notifyNavigate(path string) {
	if fn := a.onNavigate.Load(); fn != nil && *fn != nil {
		(*fn)(path)
	}
}

func (a *app) newProfileStore(c config.Config) (storage.Store, error) {
	switch c.GetProfileStore() {
	case config.ProfileStoreMemory:
		return memstore.New(), nil
	case config.ProfileStoreRedis:
		s, err := redisstore.New(redisstore.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
			Prefix:   c.GetRedisPrefix(),
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return filestore.New(c.GetDataFolder())
	}
}

func (a *app) startDevAPI() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate dev secret: %w", err)
	}

	accounts := devapi.NewAccounts()
	if _, err := accounts.Add(demoUsername, "Demo Reader", demoPassword, devapi.RoleUser); err != nil {
		return "", err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("dev api listen: %w", err)
	}

	server := &http.Server{Handler: devapi.New(accounts, devapi.NewIssuer(secret)), ReadHeaderTimeout: 5 * time.Second}
	a.serve(server, listener)

	baseURL := "http://" + listener.Addr().String()
	log.Info().Str("url", baseURL).Str("username", demoUsername).Str("password", demoPassword).Msg("development API started")
	return baseURL, nil
}

func (a *app) startMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Err(err).Str("addr", addr).Msg("metrics endpoint disabled")
		return
	}
	a.serve(server, listener)
	log.Info().Str("addr", listener.Addr().String()).Msg("serving metrics")
}

func (a *app) serve(server *http.Server, listener net.Listener) {
	a.servers = append(a.servers, server)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("server.Serve")
		}
	}()
}

// shutdown ends the session so the expiry monitor stops with the process
func (a *app) shutdown() {
	if a.sessions != nil {
		a.sessions.Logout()
	}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, s := range a.servers {
		if err := s.Shutdown(ctx); err != nil {
			log.Err(err).Msg("server.Shutdown")
		}
	}
	a.servers = nil

	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Err(err).Msg("close")
		}
	}
	a.closers = nil
}
