// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes such as /api.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/segmenter/pkg/middleware"
)

var errPrefix = errors.New("module prefix must be a single segment like /api")

// Module serves an inner handler beneath a prefix. Requests reach the inner
// handler with the prefix removed and pass through the module's own
// middleware first.
type Module struct {
	prefix string
	inner  http.Handler
	stack  middleware.System
}

// New panics when prefix is not a single leading-slash segment.
func New(prefix string, inner http.Handler) *Module {
	if len(prefix) < 2 || prefix[0] != '/' || strings.Contains(prefix[1:], "/") {
		panic(fmt.Errorf("%w: %q", errPrefix, prefix))
	}
	return &Module{prefix: prefix, inner: inner, stack: middleware.New()}
}

func (m *Module) Prefix() string { return m.prefix }

// Use appends mw to the module's middleware. Middleware registered first
// runs outermost.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack.Use(mw)
}

// ServeHTTP rewrites the request path relative to the prefix and dispatches
// through the middleware stack.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rest := strings.TrimPrefix(req.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	inner := req.Clone(req.Context())
	inner.URL.Path = rest
	inner.URL.RawPath = ""

	m.stack.Apply(m.inner).ServeHTTP(w, inner)
}

// Router sends each request to the module owning its first path segment.
// Anything else falls through to a plain ServeMux.
type Router struct {
	modules  map[string]*Module
	fallback *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules:  map[string]*Module{},
		fallback: http.NewServeMux(),
	}
}

func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

// HandleNative registers pattern on the fallback mux.
func (r *Router) HandleNative(pattern string, fn http.HandlerFunc) {
	r.fallback.HandleFunc(pattern, fn)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimRight(p, "/")
		if req.URL.Path == "" {
			req.URL.Path = "/"
		}
	}

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.ServeHTTP(w, req)
		return
	}
	r.fallback.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return "/" + seg
}
