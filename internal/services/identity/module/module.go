// Package module wires auth and members into the API using modkit
package module

import (
	"net/http"

	modkit "turna/internal/modkit"
	"turna/internal/modkit/httpkit"
	"turna/internal/platform/net/middleware"
	str "turna/internal/platform/strings"
	identhttp "turna/internal/services/identity/http"
	identsvc "turna/internal/services/identity/service"
)

// Ports exposes the identity service to other modules
type Ports struct {
	Service identsvc.Service
}

// Module implements the modkit.Module interface
type Module struct {
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// NewAuth constructs the session module mounted at /auth. It is mounted
// outside the protected group, sign-in must stay reachable without a token,
// and applies the bearer middleware itself where selection needs it
func NewAuth(deps modkit.Deps, svc identsvc.Service, auth middleware.AuthPort, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("auth"), modkit.WithPrefix("/auth")}, opts...)...)
	return build(b, svc, func(r httpkit.Router) { identhttp.RegisterAuth(r, svc, auth) })
}

// NewMembers constructs the members module mounted at /members
func NewMembers(deps modkit.Deps, svc identsvc.Service, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("members"), modkit.WithPrefix("/members")}, opts...)...)
	return build(b, svc, func(r httpkit.Router) { identhttp.RegisterMembers(r, svc) })
}

func build(b modkit.Built, svc identsvc.Service, register func(httpkit.Router)) *Module {
	m := &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		ports:     Ports{Service: svc},
	}
	external := b.Register
	m.register = func(r httpkit.Router) {
		register(r)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
