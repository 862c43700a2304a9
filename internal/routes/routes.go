// Package routes provides HTTP route registration and handler building.
package routes

import (
	"log/slog"
	"net/http"
)

// Route represents an HTTP route with method, pattern, and handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group represents a collection of routes with a common prefix.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
}

// Build constructs an http.Handler from the given route groups.
func Build(logger *slog.Logger, groups ...Group) http.Handler {
	mux := http.NewServeMux()

	for _, group := range groups {
		for _, route := range group.Routes {
			pattern := group.Prefix + route.Pattern
			mux.HandleFunc(route.Method+" "+pattern, route.Handler)
			logger.Debug("route registered", "method", route.Method, "pattern", pattern)
		}
	}

	return mux
}
