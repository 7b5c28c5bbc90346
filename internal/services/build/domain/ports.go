package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
)

// ContentGenerator produces typed copy for one task. It returns an error
// rather than partially filled content when the upstream output does not fit
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (Content, error)
}

// Reviews reads the review summary for a business location
type Reviews interface {
	Fetch(ctx context.Context, accountRef, locationRef string) (ReviewSummary, error)
}

// EventSink records build analytics; failures never affect a run
type EventSink interface {
	Record(ctx context.Context, events []BuildEvent) error
}

// StateFunc computes the next lifecycle state from the stored one
type StateFunc func(lifecycle.State) (lifecycle.State, error)

// SiteStore is everything the build reads and writes
type SiteStore interface {
	// GetSite returns the site or a not found error
	GetSite(ctx context.Context, id uuid.UUID) (Site, error)

	// GetSkeleton returns the site and its child records in stored order
	GetSkeleton(ctx context.Context, id uuid.UUID) (Skeleton, error)

	// UpdateState is a single row read-modify-write of the lifecycle columns
	UpdateState(ctx context.Context, id uuid.UUID, fn StateFunc) (lifecycle.State, error)

	// ClaimLease takes the per-site build lease if it is free or expired
	ClaimLease(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)

	// ReleaseLease drops the lease if owner still holds it
	ReleaseLease(ctx context.Context, id uuid.UUID, owner string) error

	UpsertPage(ctx context.Context, a PageArtifact) error
	UpsertServiceContent(ctx context.Context, a ServiceArtifact) error
	UpsertAreaContent(ctx context.Context, a AreaArtifact) error
	SaveReviews(ctx context.Context, siteID uuid.UUID, r ReviewSummary) error
	ListArtifacts(ctx context.Context, siteID uuid.UUID) (ArtifactIndex, error)
}
