// Package module wires the schedule materializer into the API using modkit
package module

import (
	"net/http"

	modkit "turna/internal/modkit"
	"turna/internal/modkit/httpkit"
	str "turna/internal/platform/strings"
	jobsdom "turna/internal/services/jobs/domain"
	schedhttp "turna/internal/services/schedule/http"
	schedsvc "turna/internal/services/schedule/service"
)

// Ports exposes the schedule service to other modules and binaries
type Ports struct {
	Service schedsvc.Service
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

// New constructs the schedules module mounted at /schedules
func New(deps modkit.Deps, svc schedsvc.Service, jobs jobsdom.ServicePort, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("schedules"), modkit.WithPrefix("/schedules")}, opts...)...)
	m := &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		ports:     Ports{Service: svc},
	}
	external := b.Register
	m.register = func(r httpkit.Router) {
		schedhttp.Register(r, svc, jobs)
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
