package devapi

// Route path constants of the book-library API that the development server implements
const (
	RouteHealth     = "/v1/health"
	RouteUsersToken = "/v1/users/token"
	RouteUsersMe    = "/v1/users/me"
)

const (
	TokenHeader       = "access_token"
	SessionCookieName = "SESSION-COOKIE"
)

func (s *Server) initRoutes() {
	s.mux.HandleFunc("GET "+RouteHealth, s.HealthHandler())
	s.mux.HandleFunc("POST "+RouteUsersToken, s.TokenHandler())
	s.mux.HandleFunc("GET "+RouteUsersMe, s.MeHandler())
}
