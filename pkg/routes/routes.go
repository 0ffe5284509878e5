// Package routes declares handler tables that register onto a ServeMux.
package routes

import "net/http"

type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group shares Prefix across its Routes and nests Children beneath it.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns lists the ServeMux patterns the group expands to, parents first.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func (g Group) walk(base string, visit func(string, http.HandlerFunc)) {
	prefix := base + g.Prefix
	for _, r := range g.Routes {
		visit(r.Method+" "+prefix+r.Pattern, r.Handler)
	}
	for _, c := range g.Children {
		c.walk(prefix, visit)
	}
}

// Register installs every route of groups on mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.walk("", func(pattern string, h http.HandlerFunc) { mux.HandleFunc(pattern, h) })
	}
}
