package guard

import (
	"github.com/jrsteele09/book-library-client/internal/metrics"
	"github.com/jrsteele09/book-library-client/navigation"
	"github.com/rs/zerolog/log"
)

const (
	NameAuthenticated = "authenticated"
	NameGuest         = "guest"
)

// Guard decides whether navigation to target may proceed
type Guard interface {
	CanActivate(target string) bool
}

// Func adapts a plain function to a Guard
type Func func(target string) bool

func (f Func) CanActivate(target string) bool {
	return f(target)
}

// Sessions is the part of the session manager guards depend on.
// Guards never read storage themselves.
type Sessions interface {
	IsAuthenticated() bool
	Logout()
}

// RequireAuthenticated allows navigation only with a valid session. A denial logs out,
// which also sends the user to the public landing page.
func RequireAuthenticated(sessions Sessions) Guard {
	return Func(func(target string) bool {
		if sessions.IsAuthenticated() {
			metrics.GuardDecisions.WithLabelValues(NameAuthenticated, metrics.OutcomeAllowed).Inc()
			return true
		}

		metrics.GuardDecisions.WithLabelValues(NameAuthenticated, metrics.OutcomeDenied).Inc()
		log.Debug().Str("target", target).Msg("no valid session, access denied")
		sessions.Logout()
		return false
	})
}

// RequireGuest is for pages only meaningful without a session, such as the log in page.
// With a valid session it redirects to landing. Navigation still proceeds; the redirect supersedes it.
func RequireGuest(sessions Sessions, navigator navigation.Navigator, landing string) Guard {
	return Func(func(target string) bool {
		if !sessions.IsAuthenticated() {
			metrics.GuardDecisions.WithLabelValues(NameGuest, metrics.OutcomeAllowed).Inc()
			return true
		}

		metrics.GuardDecisions.WithLabelValues(NameGuest, metrics.OutcomeRedirected).Inc()
		log.Debug().Str("target", target).Str("landing", landing).Msg("already logged in, redirecting")
		navigator.Navigate(landing)
		return true
	})
}
