package config

type RoutingConfig interface {
	GetLandingPath() string
	GetAuthenticatedLandingPath() string
	GetLoginRoutePath() string
}

type Routing struct{}

var _ RoutingConfig = Routing{}

// GetLandingPath is the public page a logout returns to
func (Routing) GetLandingPath() string {
	return "/book"
}

// GetAuthenticatedLandingPath is where a logged in user visiting the login page is sent
func (Routing) GetAuthenticatedLandingPath() string {
	return "/search"
}

func (Routing) GetLoginRoutePath() string {
	return "/login"
}
