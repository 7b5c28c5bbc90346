// Package module mounts the meta endpoints
package module

import (
	"reflect"
	"time"

	modkit "sitebuilder/internal/modkit"
	"sitebuilder/internal/modkit/httpkit"

	"sitebuilder/internal/modkit/module"
	metahttp "sitebuilder/internal/services/api/meta/http"
	workerbuild "sitebuilder/internal/services/build/module"
)

// Module serves service metadata under /meta
type Module struct {
	built     modkit.Built
	deps      modkit.Deps
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)
	return &Module{built: b, deps: deps, startedAt: time.Now()}
}

func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName: "sitebuilder-api",
			StartedAt:   m.startedAt,
			Build:       buildInfo,
			Backends: []metahttp.Backend{
				{Name: "pg", Seam: nilIfNone(m.deps.PG)},
				{Name: "ch", Seam: nilIfNone(m.deps.CH)},
			},
		})
	})
}

func (m *Module) Name() string { return m.built.Name }

func (m *Module) Ports() any { return nil }

// buildInfo looks the build worker up in the port registry at request time
func buildInfo() (metahttp.BuildResponse, bool) {
	p, ok := module.PortsAs[workerbuild.Ports]("build")
	if !ok || p.Orchestrator == nil {
		return metahttp.BuildResponse{}, false
	}
	cfg := p.Orchestrator.Config()
	return metahttp.BuildResponse{
		Workers:      cfg.Workers,
		RunBudget:    cfg.RunBudget.String(),
		ServiceBatch: cfg.ServiceBatch,
		AreaBatch:    cfg.AreaBatch,
		Generator:    p.Orchestrator.HasGenerator(),
	}, true
}

// nilIfNone keeps a typed nil store seam from reading as configured
func nilIfNone(v any) any {
	if v == nil {
		return nil
	}
	if rv := reflect.ValueOf(v); (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil
	}
	return v
}
