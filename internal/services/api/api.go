// Package api provides the HTTP API for the application
package api

import (
	"sitebuilder/internal/platform/config"
	"sitebuilder/internal/platform/logger"
	phttp "sitebuilder/internal/platform/net/http"
	"sitebuilder/internal/platform/store"

	"sitebuilder/internal/modkit"
	"sitebuilder/internal/modkit/httpkit"
	"sitebuilder/internal/modkit/module"
	"sitebuilder/internal/modkit/swaggerkit"

	apibuilds "sitebuilder/internal/services/api/builds/module"
	metamod "sitebuilder/internal/services/api/meta/module"

	// Worker build module (owns the Supervisor and Tracker ports)
	workerbuild "sitebuilder/internal/services/build/module"
)

// Options are the API options
type Options struct {
	// Config is the root (unprefixed) view; modules apply their own prefixes
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool

	// Build overrides the configured build collaborators (tests)
	Build workerbuild.Overrides
}

// Mount mounts the API service onto the given router and returns the build
// ports so the caller can drain running builds on shutdown
func Mount(r phttp.Router, opt Options) workerbuild.Ports {
	// shared deps for modules
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	// Construct the WORKER build module first and extract its ports
	workerBuild := workerbuild.New(deps, opt.Build)
	ports := module.MustPortsOf[workerbuild.Ports](workerBuild)

	// Inject them into the API builds module
	apiBuilds := apibuilds.New(deps, modkit.WithPorts(ports))

	mods := []module.Module{
		metamod.New(deps),
		workerBuild, // include worker so its ports are registered
		apiBuilds,   // API module that depends on the worker's ports
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config.Prefix("CORE_API_")), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})

	return ports
}
