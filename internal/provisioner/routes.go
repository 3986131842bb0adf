package provisioner

import (
	"fmt"
	"net/http"

	"github.com/muurk/wifiprov/internal/digest"
	"github.com/muurk/wifiprov/internal/httpd"
)

// RouteScope selects which server(s) a caller-registered route joins.
type RouteScope uint8

const (
	// ScopeConnectedOnly routes are served only while connected.
	ScopeConnectedOnly RouteScope = iota

	// ScopeProvisioningOnly routes are served only on the captive portal.
	ScopeProvisioningOnly

	// ScopeBoth routes are served in either mode.
	ScopeBoth
)

// Route is a caller-registered HTTP extension point. Auth-required routes
// pass the same password check as the built-in reset endpoint.
type Route struct {
	Path         string
	Method       string
	Handler      http.HandlerFunc
	Scope        RouteScope
	RequiresAuth bool
}

// AddRoute registers a custom route. Must be called before Begin.
func (p *Provisioner) AddRoute(r Route) {
	p.routes = append(p.routes, r)
}

// AddGet registers a custom GET route.
func (p *Provisioner) AddGet(path string, h http.HandlerFunc, scope RouteScope, requiresAuth bool) {
	p.AddRoute(Route{Path: path, Method: http.MethodGet, Handler: h, Scope: scope, RequiresAuth: requiresAuth})
}

// AddPost registers a custom POST route.
func (p *Provisioner) AddPost(path string, h http.HandlerFunc, scope RouteScope, requiresAuth bool) {
	p.AddRoute(Route{Path: path, Method: http.MethodPost, Handler: h, Scope: scope, RequiresAuth: requiresAuth})
}

// AddGetJSON registers a GET route whose body comes from a JSON provider.
func (p *Provisioner) AddGetJSON(path string, provider func() string, scope RouteScope, requiresAuth bool) {
	p.AddGet(path, jsonHandler(provider), scope, requiresAuth)
}

// AddPostJSON registers a POST route whose body comes from a JSON provider.
func (p *Provisioner) AddPostJSON(path string, provider func() string, scope RouteScope, requiresAuth bool) {
	p.AddPost(path, jsonHandler(provider), scope, requiresAuth)
}

func jsonHandler(provider func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, provider())
	}
}

// HasCustomRoutes reports whether any caller routes are registered.
func (p *Provisioner) HasCustomRoutes() bool {
	return len(p.routes) > 0
}

// HasConnectedOnlyRoutes reports whether any route is served while
// connected.
func (p *Provisioner) HasConnectedOnlyRoutes() bool {
	return p.hasRoutesInScope(ScopeConnectedOnly)
}

// HasProvisioningOnlyRoutes reports whether any route is served on the
// portal.
func (p *Provisioner) HasProvisioningOnlyRoutes() bool {
	return p.hasRoutesInScope(ScopeProvisioningOnly)
}

func (p *Provisioner) hasRoutesInScope(scope RouteScope) bool {
	for _, r := range p.routes {
		if r.Scope == scope || r.Scope == ScopeBoth {
			return true
		}
	}
	return false
}

// registerCustomRoutes merges matching caller routes into the given
// server's table.
func (p *Provisioner) registerCustomRoutes(srv *httpd.Server, activeScope RouteScope) {
	for _, r := range p.routes {
		if r.Scope != activeScope && r.Scope != ScopeBoth {
			continue
		}
		h := r.Handler
		if r.RequiresAuth {
			h = p.requireAuth(h)
		}
		srv.Register(r.Method, r.Path, h)
	}
}

// requireAuth wraps a handler with the reset-password check.
func (p *Provisioner) requireAuth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed form", http.StatusBadRequest)
			return
		}
		// Body only; a password must never ride in a URL.
		password := r.PostFormValue("password")
		if password == "" {
			http.Error(w, "Password required", http.StatusUnauthorized)
			return
		}
		stored, ok := p.ResetSecret()
		if !ok || !digest.Verify(password, stored) {
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}
