// Package domain holds the request and response shapes of the builds API
package domain

import (
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
)

// StartStatus is the only status generate-content acknowledges with
const StartStatus = "started"

// StartResult acknowledges a build that is now running in the background
type StartResult struct {
	Status     string    `json:"status" example:"started"`
	TotalTasks int       `json:"total_tasks" example:"7"`
	RunID      uuid.UUID `json:"run_id"`
}

// ProgressView is what pollers read while a build runs and after it ends
type ProgressView struct {
	Status          lifecycle.Status    `json:"status" example:"building"`
	BuildProgress   *lifecycle.Progress `json:"build_progress"`
	StatusMessage   *string             `json:"status_message"`
	StatusUpdatedAt *time.Time          `json:"status_updated_at"`
	Percent         int                 `json:"percent" example:"42"`
	Running         bool                `json:"running"`
}

// ArtifactsView lists which generated content exists for a site
type ArtifactsView struct {
	SiteID   uuid.UUID   `json:"site_id"`
	Pages    []string    `json:"pages"`
	Services []uuid.UUID `json:"services"`
	Areas    []uuid.UUID `json:"areas"`
}
