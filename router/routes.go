package router

import "github.com/jrsteele09/book-library-client/guard"

// Route path constants of the book-library client
const (
	PathRoot   = "/"
	PathLogin  = "/login"
	PathBook   = "/book"
	PathBooks  = "/books"
	PathSearch = "/search"
	PathUsers  = "/users"
	PathLoans  = "/loans"
)

// RoutePaths are the landing paths the default table depends on
type RoutePaths struct {
	Login                string
	AuthenticatedLanding string
}

// DefaultPaths matches the client's config defaults
var DefaultPaths = RoutePaths{
	Login:                PathLogin,
	AuthenticatedLanding: PathSearch,
}

// RegisterDefaultRoutes installs the client's route table on r. The root and
// anything unknown go to the log in page.
func RegisterDefaultRoutes(r *Router, sessions guard.Sessions, paths RoutePaths) {
	if paths.Login == "" {
		paths.Login = DefaultPaths.Login
	}
	if paths.AuthenticatedLanding == "" {
		paths.AuthenticatedLanding = DefaultPaths.AuthenticatedLanding
	}

	authenticated := guard.RequireAuthenticated(sessions)

	r.Redirect(PathRoot, paths.Login)
	r.Handle(paths.Login, guard.RequireGuest(sessions, r, paths.AuthenticatedLanding))
	r.Handle(PathBook)
	r.Handle(PathBooks)
	r.Handle(PathSearch, authenticated)
	r.Handle(PathUsers, authenticated)
	r.Handle(PathLoans, authenticated)

	r.lock.Lock()
	r.fallback = normalise(paths.Login)
	r.lock.Unlock()
}
