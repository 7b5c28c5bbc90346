// Package module wires the build worker: storage, generator, review source,
// analytics sink and the supervisor that runs builds in the background
package module

import (
	"sitebuilder/internal/adapters/llm"
	"sitebuilder/internal/adapters/reviews"
	"sitebuilder/internal/modkit"
	"sitebuilder/internal/modkit/httpkit"
	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/services/build/domain"
	"sitebuilder/internal/services/build/repo"
	"sitebuilder/internal/services/build/service"
)

// Overrides replace the configured collaborators; tests and the ctl use them
type Overrides struct {
	Options

	Store     domain.SiteStore
	Generator domain.ContentGenerator
	Reviews   domain.Reviews
	Events    domain.EventSink
}

// Module defines the build worker module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the build worker module with its ports
func New(deps modkit.Deps, overrides Overrides) *Module {
	log := logger.Named("build")
	opts := FromConfig(deps.Cfg)
	opts = merge(opts, overrides.Options)

	store := overrides.Store
	if store == nil {
		if deps.PG != nil {
			store = repo.NewPG(deps.PG)
		} else {
			log.Warn().Msg("build: no postgres configured, using in-memory store")
			store = repo.NewMemory()
		}
	}

	gen := overrides.Generator
	if gen == nil {
		// a nil *llm.Client must not become a non nil interface
		if c := llm.NewClient(llm.Options{
			BaseURL:   opts.LLMBaseURL,
			APIKey:    opts.LLMAPIKey,
			Model:     opts.LLMModel,
			Timeout:   opts.LLMTimeout,
			MaxTokens: opts.LLMMaxTokens,
		}); c != nil {
			gen = c
		} else {
			log.Warn().Msg("build: LLM_API_KEY not set, builds will fail until configured")
		}
	}

	rev := overrides.Reviews
	if rev == nil {
		if c := reviews.NewClient(reviews.Options{
			BaseURL:  opts.ReviewsBaseURL,
			Token:    opts.ReviewsToken,
			Timeout:  opts.ReviewsTimeout,
			PageSize: opts.ReviewsPageSize,
			MaxPages: opts.ReviewsMaxPages,
		}); c != nil {
			rev = c
		}
	}

	events := overrides.Events
	if events == nil {
		if deps.CH != nil {
			events = repo.NewCHSink(deps.CH)
		} else {
			events = repo.NoopSink{}
		}
	}

	orch := service.NewOrchestrator(store, gen, rev, events, opts.serviceConfig())
	sup := service.NewSupervisor(orch)

	return &Module{
		deps: deps,
		ports: Ports{
			Supervisor:   sup,
			Orchestrator: orch,
			Tracker:      orch.Tracker(),
			Store:        store,
		},
	}
}

func merge(base, o Options) Options {
	if o.Workers != 0 {
		base.Workers = o.Workers
	}
	if o.RunBudget != 0 {
		base.RunBudget = o.RunBudget
	}
	if o.RetryMax != 0 {
		base.RetryMax = o.RetryMax
	}
	if o.RetryDelay != 0 {
		base.RetryDelay = o.RetryDelay
	}
	if o.ServiceBatch != 0 {
		base.ServiceBatch = o.ServiceBatch
	}
	if o.AreaBatch != 0 {
		base.AreaBatch = o.AreaBatch
	}
	if o.Owner != "" {
		base.Owner = o.Owner
	}
	if o.LLMAPIKey != "" {
		base.LLMAPIKey = o.LLMAPIKey
	}
	if o.LLMBaseURL != "" {
		base.LLMBaseURL = o.LLMBaseURL
	}
	if o.ReviewsToken != "" {
		base.ReviewsToken = o.ReviewsToken
	}
	if o.ReviewsBaseURL != "" {
		base.ReviewsBaseURL = o.ReviewsBaseURL
	}
	return base
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "build" }

// Prefix returns the module config prefix (none for worker-only service)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
