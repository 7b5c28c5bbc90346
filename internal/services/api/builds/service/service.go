// Package service adapts the build worker ports to the builds API
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/services/api/builds/domain"
	bdom "sitebuilder/internal/services/build/domain"
)

// Starter launches background builds
type Starter interface {
	Start(ctx context.Context, siteID uuid.UUID, trigger lifecycle.Trigger) (bdom.Run, error)
	Running(siteID uuid.UUID) (uuid.UUID, bool)
}

// Reader reads lifecycle state
type Reader interface {
	Read(ctx context.Context, siteID uuid.UUID) (lifecycle.State, error)
}

// Lister lists generated content
type Lister interface {
	ListArtifacts(ctx context.Context, siteID uuid.UUID) (bdom.ArtifactIndex, error)
}

// Service is the builds API surface
type Service interface {
	Start(ctx context.Context, siteID string, trigger lifecycle.Trigger) (domain.StartResult, error)
	Progress(ctx context.Context, siteID string) (domain.ProgressView, error)
	Artifacts(ctx context.Context, siteID string) (domain.ArtifactsView, error)
}

type svc struct {
	starter Starter
	reader  Reader
	lister  Lister
}

// New constructs the builds service
func New(starter Starter, reader Reader, lister Lister) Service {
	if starter == nil || reader == nil || lister == nil {
		panic("builds service requires starter, reader and lister")
	}
	return &svc{starter: starter, reader: reader, lister: lister}
}

// ParseSiteID validates a path site id
func ParseSiteID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "invalid site id %q", raw), "siteID")
	}
	return id, nil
}

func (s *svc) Start(ctx context.Context, raw string, trigger lifecycle.Trigger) (domain.StartResult, error) {
	id, err := ParseSiteID(raw)
	if err != nil {
		return domain.StartResult{}, err
	}
	run, err := s.starter.Start(ctx, id, trigger)
	if err != nil {
		return domain.StartResult{}, err
	}
	return domain.StartResult{
		Status:     domain.StartStatus,
		TotalTasks: run.Plan.Total,
		RunID:      run.ID,
	}, nil
}

func (s *svc) Progress(ctx context.Context, raw string) (domain.ProgressView, error) {
	id, err := ParseSiteID(raw)
	if err != nil {
		return domain.ProgressView{}, err
	}
	st, err := s.reader.Read(ctx, id)
	if err != nil {
		return domain.ProgressView{}, err
	}
	v := domain.ProgressView{Status: st.Status, BuildProgress: st.Progress}
	if st.StatusMessage != "" {
		msg := st.StatusMessage
		v.StatusMessage = &msg
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt.UTC()
		v.StatusUpdatedAt = &at
	}
	if st.Progress != nil {
		v.Percent = st.Progress.Percent()
	}
	_, v.Running = s.starter.Running(id)
	return v, nil
}

func (s *svc) Artifacts(ctx context.Context, raw string) (domain.ArtifactsView, error) {
	id, err := ParseSiteID(raw)
	if err != nil {
		return domain.ArtifactsView{}, err
	}
	idx, err := s.lister.ListArtifacts(ctx, id)
	if err != nil {
		return domain.ArtifactsView{}, err
	}
	return domain.ArtifactsView{SiteID: id, Pages: idx.Pages, Services: idx.Services, Areas: idx.Areas}, nil
}
