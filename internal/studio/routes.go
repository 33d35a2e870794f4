package studio

import "github.com/tryforce-dev/forge/internal/identity"

// Routes the studio can show. Anything else normalizes to the landing
// route before the guard runs.
const (
	RouteLanding   = "/"
	RouteWorkspace = "/dashboard"
)

// NormalizeRoute maps unknown paths onto the landing route.
func NormalizeRoute(path string) string {
	switch path {
	case RouteLanding, RouteWorkspace:
		return path
	default:
		return RouteLanding
	}
}

// nextRoute applies the guard's redirect rules once a session has
// settled: signed-in users never see the landing route and signed-out
// users never see the workspace. Loading and error sessions leave the
// route alone; the guard renders an indicator or the error screen in
// place of any routed content.
func nextRoute(route string, s identity.Session) string {
	switch s.Status {
	case identity.StatusAuthenticated:
		if route == RouteLanding {
			return RouteWorkspace
		}
	case identity.StatusUnauthenticated:
		if route == RouteWorkspace {
			return RouteLanding
		}
	}

	return route
}
