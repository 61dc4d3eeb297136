package router

import (
	"strings"
	"sync"

	"github.com/jrsteele09/book-library-client/guard"
	"github.com/jrsteele09/book-library-client/navigation"
	"github.com/rs/zerolog/log"
)

// MaxRedirects bounds a chain of redirects triggered by one navigation
const MaxRedirects = 10

// Route is one entry of the route table. A route with RedirectTo set never activates itself.
type Route struct {
	Path       string
	RedirectTo string
	Guards     []guard.Guard
}

var _ navigation.Navigator = (*Router)(nil)

// Router resolves paths against the route table and runs their guards.
// A navigation requested while guards run, such as the logout a guard triggers,
// supersedes the one in progress.
type Router struct {
	routes   map[string]Route
	order    []string
	fallback string

	current    string
	pending    string
	hasPending bool
	navigating bool

	onChange func(path string)

	lock sync.Mutex
}

type Option func(*Router)

// WithFallback sets where unknown paths are sent. Without it unknown paths are ignored.
func WithFallback(path string) Option {
	return func(r *Router) {
		r.fallback = normalise(path)
	}
}

// WithOnChange is called, outside the router lock, each time a route activates
func WithOnChange(fn func(path string)) Option {
	return func(r *Router) {
		r.onChange = fn
	}
}

func New(options ...Option) *Router {
	r := &Router{routes: make(map[string]Route)}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Handle adds or replaces the route for path
func (r *Router) Handle(path string, guards ...guard.Guard) {
	r.add(Route{Path: path, Guards: guards})
}

// Redirect makes navigating to from continue at to
func (r *Router) Redirect(from, to string) {
	r.add(Route{Path: from, RedirectTo: to})
}

func (r *Router) add(route Route) {
	route.Path = normalise(route.Path)
	if route.RedirectTo != "" {
		route.RedirectTo = normalise(route.RedirectTo)
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.routes[route.Path]; !ok {
		r.order = append(r.order, route.Path)
	}
	r.routes[route.Path] = route
}

// Routes returns the table in registration order
func (r *Router) Routes() []Route {
	r.lock.Lock()
	defer r.lock.Unlock()
	routes := make([]Route, 0, len(r.order))
	for _, p := range r.order {
		routes = append(routes, r.routes[p])
	}
	return routes
}

// Current is the last activated path, empty before the first successful navigation
func (r *Router) Current() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.current
}

// Navigate resolves path and its redirects. When called while another navigation is
// running, including from inside a guard, the request is queued and that navigation
// continues with it instead.
func (r *Router) Navigate(path string) {
	r.lock.Lock()
	if r.navigating {
		r.pending, r.hasPending = normalise(path), true
		r.lock.Unlock()
		return
	}
	r.navigating = true
	r.lock.Unlock()

	next := normalise(path)
	for {
		if activated := r.resolve(next); activated != "" && r.onChange != nil {
			r.onChange(activated)
		}

		r.lock.Lock()
		if !r.hasPending {
			r.navigating = false
			r.lock.Unlock()
			return
		}
		next, r.pending, r.hasPending = r.pending, "", false
		r.lock.Unlock()
	}
}

// resolve returns the activated path, or empty when nothing activated
func (r *Router) resolve(path string) string {
	for hop := 0; hop <= MaxRedirects; hop++ {
		route, ok := r.lookup(path)
		if !ok {
			log.Debug().Str("path", path).Msg("no route, navigation ignored")
			return ""
		}

		if route.RedirectTo != "" {
			path = route.RedirectTo
			continue
		}

		allowed := true
		for _, g := range route.Guards {
			if !g.CanActivate(route.Path) {
				allowed = false
				break
			}
		}

		r.lock.Lock()
		if r.hasPending {
			path, r.pending, r.hasPending = r.pending, "", false
			r.lock.Unlock()
			continue
		}
		if allowed {
			r.current = route.Path
		}
		r.lock.Unlock()

		if !allowed {
			log.Debug().Str("path", route.Path).Msg("navigation blocked by guard")
			return ""
		}
		return route.Path
	}

	log.Warn().Str("path", path).Int("max_redirects", MaxRedirects).Msg("redirect chain too long, navigation abandoned")
	r.lock.Lock()
	r.pending, r.hasPending = "", false
	r.lock.Unlock()
	return ""
}

func (r *Router) lookup(path string) (Route, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if route, ok := r.routes[path]; ok {
		return route, true
	}
	if r.fallback != "" && r.fallback != path {
		return Route{Path: path, RedirectTo: r.fallback}, true
	}
	return Route{}, false
}

func normalise(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
