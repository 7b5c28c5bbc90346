package module

import (
	"sitebuilder/internal/services/build/domain"
	"sitebuilder/internal/services/build/service"
)

// Ports holds what the build module exposes to API modules and commands
type Ports struct {
	Supervisor   *service.Supervisor
	Orchestrator *service.Orchestrator
	Tracker      *service.Tracker
	Store        domain.SiteStore
}
