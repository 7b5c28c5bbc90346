// Package module wires the builds API over the build worker ports
package module

import (
	modkit "sitebuilder/internal/modkit"
	"sitebuilder/internal/modkit/httpkit"
	"sitebuilder/internal/platform/sysauth"

	bhttp "sitebuilder/internal/services/api/builds/http"
	bsvc "sitebuilder/internal/services/api/builds/service"
	workerbuild "sitebuilder/internal/services/build/module"
)

// Module implements the builds API module
type Module struct {
	built    modkit.Built
	svc      bsvc.Service
	verifier *sysauth.Verifier
}

// Ports declares the worker ports this API module needs injected
type Ports = workerbuild.Ports

// New constructs the builds API module. Routes mount at the API root since
// every path is already scoped by /sites/{siteID}
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("builds"),
		modkit.WithPrefix("/"),
	}, opts...)...)

	injected, _ := b.Ports.(Ports)
	if injected.Supervisor == nil || injected.Tracker == nil || injected.Store == nil {
		panic("builds API module requires Supervisor, Tracker and Store ports (from services/build)")
	}

	return &Module{
		built:    b,
		svc:      bsvc.New(injected.Supervisor, injected.Tracker, injected.Store),
		verifier: sysauth.NewVerifier(deps.Cfg.Prefix("CORE_BUILD_").MayString("INTERNAL_SECRET", "")),
	}
}

// MountRoutes mounts the build routes
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { bhttp.Register(rr, m.svc, m.verifier) })
}

// Ports exposes nothing; the worker module owns the build ports
func (m *Module) Ports() any { return nil }

func (m *Module) Name() string { return m.built.Name }
