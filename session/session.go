package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/book-library-client/credential"
	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/jrsteele09/book-library-client/internal/metrics"
	"github.com/jrsteele09/book-library-client/monitor"
	"github.com/jrsteele09/book-library-client/navigation"
	"github.com/jrsteele09/book-library-client/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultLandingPath = "/book"

// Credentials are the user supplied log in details
type Credentials struct {
	Username string
	Password string
}

// Authenticator is the remote log in call. A rejection must match apperrors.ErrInvalidCredentials.
type Authenticator interface {
	IssueCredential(ctx context.Context, username, password string) (credential.Credential, error)
}

// Deps holds the collaborators of the Manager
type Deps struct {
	Authenticator Authenticator        // Remote log in call
	Tokens        storage.Store        // Session scoped region holding the credential
	Profile       storage.Store        // Long lived region holding profile fields
	Decoder       credential.Decoder   // Credential decoding
	Navigator     navigation.Navigator // Receives the post logout navigation
}

// State is the session state derived from the stored credential. It is never stored.
type State struct {
	Authenticated bool
	Subject       string
	ValidUntil    time.Time
	MonitorArmed  bool
}

// Manager owns the credential lifecycle. It is the only writer of the credential region.
type Manager struct {
	deps        Deps
	monitor     *monitor.Monitor
	nowTime     func() time.Time
	landingPath string

	clock           monitor.Clock
	monitorInterval time.Duration

	// Serialises credential writes with monitor arm/disarm
	lock sync.Mutex
}

// Option defines a function type to modify the Manager instance
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithClock sets the clock driving the expiry monitor
func WithClock(clock monitor.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithMonitorInterval sets how often the expiry monitor checks the stored credential
func WithMonitorInterval(interval time.Duration) Option {
	return func(m *Manager) {
		m.monitorInterval = interval
	}
}

// WithLandingPath sets the public path logout navigates to
func WithLandingPath(path string) Option {
	return func(m *Manager) {
		m.landingPath = path
	}
}

// New creates the Manager. Construct one per process and share it by reference.
func New(deps Deps, options ...Option) (*Manager, error) {
	if deps.Authenticator == nil {
		return nil, errors.New("[session.New] Authenticator is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[session.New] Tokens store is required")
	}
	if deps.Profile == nil {
		return nil, errors.New("[session.New] Profile store is required")
	}
	if deps.Decoder == nil {
		return nil, errors.New("[session.New] Decoder is required")
	}
	if deps.Navigator == nil {
		deps.Navigator = navigation.Discard
	}

	m := &Manager{
		deps:            deps,
		nowTime:         time.Now,
		landingPath:     defaultLandingPath,
		clock:           monitor.SystemClock{},
		monitorInterval: monitor.DefaultInterval,
	}

	for _, opt := range options {
		opt(m)
	}

	m.monitor = monitor.New(m.checkExpiry,
		monitor.WithClock(m.clock),
		monitor.WithInterval(m.monitorInterval),
	)
	return m, nil
}

// Authenticate logs in against the remote API. On success the credential is stored
// and then the expiry monitor is armed; arming an armed monitor is a no-op.
func (m *Manager) Authenticate(ctx context.Context, creds Credentials) (credential.Credential, error) {
	raw, err := m.deps.Authenticator.IssueCredential(ctx, creds.Username, creds.Password)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		}
		return "", errors.Wrap(err, "[Authenticate] remote log in failed")
	}

	claims, err := m.deps.Decoder.Decode(raw)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return "", errors.Wrap(err, "[Authenticate] issued credential")
	}

	m.lock.Lock()
	if err := m.storeCredential(raw, claims); err != nil {
		m.lock.Unlock()
		metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return "", errors.Wrap(err, "[Authenticate] failed to store credential")
	}
	m.monitor.Arm()
	metrics.SetMonitorArmed(true)
	m.lock.Unlock()

	if username := strings.TrimSpace(creds.Username); username != "" {
		if err := m.deps.Profile.Set(storage.KeyUsername, username); err != nil {
			log.Err(err).Msg("Authenticate: failed to remember username")
		}
	}

	metrics.Logins.WithLabelValues(metrics.ResultSuccess).Inc()
	log.Info().Str("subject", claims.Subject).Time("valid_until", claims.ExpiresAt).Msg("authenticated")
	return raw, nil
}

// IsAuthenticated reports whether a decodable, unexpired credential is stored.
// It has no side effects.
func (m *Manager) IsAuthenticated() bool {
	raw, ok := m.Token()
	if !ok {
		return false
	}
	return !m.deps.Decoder.IsExpired(raw, m.nowTime())
}

// CurrentSubject returns the display name carried by the stored credential
func (m *Manager) CurrentSubject() (string, error) {
	claims, err := m.Claims()
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Claims decodes the stored credential. Expired credentials still decode.
func (m *Manager) Claims() (credential.Claims, error) {
	raw, ok := m.Token()
	if !ok {
		return credential.Claims{}, apperrors.ErrNoActiveSession
	}
	claims, err := m.deps.Decoder.Decode(raw)
	if err != nil {
		return credential.Claims{}, errors.Wrap(err, "[Claims] stored credential")
	}
	return claims, nil
}

// Token returns the raw stored credential
func (m *Manager) Token() (credential.Credential, bool) {
	v, err := m.deps.Tokens.Get(storage.KeyAccessToken)
	if err != nil {
		if !apperrors.Is(err, storage.ErrNotFound) {
			log.Err(err).Msg("Token: failed to read credential")
		}
		return "", false
	}
	if v == "" {
		return "", false
	}
	return credential.Credential(v), true
}

// State derives the current session state from the stored credential
func (m *Manager) State() State {
	state := State{MonitorArmed: m.monitor.Armed()}
	claims, err := m.Claims()
	if err != nil {
		return state
	}
	state.Subject = claims.Subject
	state.ValidUntil = claims.ExpiresAt
	state.Authenticated = claims.ValidAt(m.nowTime())
	return state
}

// Logout disarms the monitor, then removes the credential, then navigates to the landing path.
// Calling it again leaves the same state.
func (m *Manager) Logout() {
	m.lock.Lock()
	m.clearLocked()
	m.lock.Unlock()

	m.afterLogout()
}

// SetCredential stores a credential obtained out of band. It does not arm the monitor.
// Malformed values are stored as given and read back as no session.
func (m *Manager) SetCredential(raw credential.Credential) error {
	claims, err := m.deps.Decoder.Decode(raw)
	if err != nil {
		log.Debug().Err(err).Msg("SetCredential: storing undecodable credential")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if err == nil {
		return m.storeCredential(raw, claims)
	}
	return m.deps.Tokens.Set(storage.KeyAccessToken, raw.String())
}

// Resume arms the monitor when a still valid credential is already stored.
// It is meant for process start.
func (m *Manager) Resume() bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.IsAuthenticated() {
		return false
	}
	m.monitor.Arm()
	metrics.SetMonitorArmed(true)
	log.Debug().Msg("resumed session monitoring")
	return true
}

// Username returns the last user name that logged in successfully
func (m *Manager) Username() (string, error) {
	v, err := m.deps.Profile.Get(storage.KeyUsername)
	if err != nil {
		return "", errors.Wrap(err, "[Username]")
	}
	return v, nil
}

// ForgetProfile clears the long lived profile region
func (m *Manager) ForgetProfile() error {
	return errors.Wrap(m.deps.Profile.Clear(), "[ForgetProfile]")
}

// Monitor exposes the expiry monitor so callers can inspect its state
func (m *Manager) Monitor() *monitor.Monitor {
	return m.monitor
}

// checkExpiry runs on each monitor beat and logs out the first time the credential
// is seen expired. The check and the clear happen under one lock so a login that
// lands between them is never logged out.
func (m *Manager) checkExpiry(ctx context.Context) {
	m.lock.Lock()
	if ctx.Err() != nil || m.IsAuthenticated() {
		m.lock.Unlock()
		return
	}
	m.clearLocked()
	m.lock.Unlock()

	metrics.ExpiriesDetected.Inc()
	log.Info().Msg("credential expired, logging out")
	m.afterLogout()
}

// storeCredential must be called with the lock held.
// When the region supports it the entry expires together with the credential.
func (m *Manager) storeCredential(raw credential.Credential, claims credential.Claims) error {
	if s, ok := m.deps.Tokens.(storage.ExpiringStore); ok {
		return s.SetWithExpiry(storage.KeyAccessToken, raw.String(), claims.ExpiresAt)
	}
	return m.deps.Tokens.Set(storage.KeyAccessToken, raw.String())
}

// clearLocked must be called with the lock held. Disarm comes first so no beat
// can observe a half cleared store.
func (m *Manager) clearLocked() {
	m.monitor.Disarm()
	metrics.SetMonitorArmed(false)
	if err := m.deps.Tokens.Remove(storage.KeyAccessToken); err != nil {
		log.Err(err).Msg("Logout: failed to remove credential")
	}
}

// afterLogout runs outside the lock because the navigator may call back into the Manager
func (m *Manager) afterLogout() {
	metrics.Logouts.Inc()
	m.deps.Navigator.Navigate(m.landingPath)
}
