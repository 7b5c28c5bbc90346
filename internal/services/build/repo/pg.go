// Package repo provides storage for sites, build state and generated content
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sitebuilder/internal/core/lifecycle"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/platform/store"
	"sitebuilder/internal/services/build/domain"
)

type (
	// PG implements domain.SiteStore on postgres
	PG struct {
		db store.TxRunner
	}

	// queries holds the statements bound to one queryer
	queries struct{ q store.RowQuerier }
)

var _ domain.SiteStore = (*PG)(nil)

// NewPG constructs the postgres store
func NewPG(db store.TxRunner) *PG {
	if db == nil {
		panic("build.repo.PG requires a non nil TxRunner")
	}
	return &PG{db: db}
}

func (p *PG) bind(q store.RowQuerier) *queries { return &queries{q: q} }

// GetSite implements domain.SiteStore
func (p *PG) GetSite(ctx context.Context, id uuid.UUID) (domain.Site, error) {
	return p.bind(p.db).site(ctx, id)
}

// GetSkeleton loads the site and children in one snapshot
func (p *PG) GetSkeleton(ctx context.Context, id uuid.UUID) (domain.Skeleton, error) {
	var sk domain.Skeleton
	err := p.db.Tx(ctx, func(q store.RowQuerier) error {
		r := p.bind(q)
		var err error
		if sk.Site, err = r.site(ctx, id); err != nil {
			return err
		}
		if sk.Locations, err = store.Many(ctx, q, scanLocation, sqlLocations, id); err != nil {
			return perr.FromPostgres(err, "load locations")
		}
		if sk.Categories, err = store.Many(ctx, q, scanCategory, sqlCategories, id); err != nil {
			return perr.FromPostgres(err, "load categories")
		}
		if sk.Services, err = store.Many(ctx, q, scanService, sqlServices, id); err != nil {
			return perr.FromPostgres(err, "load services")
		}
		if sk.Areas, err = store.Many(ctx, q, scanArea, sqlAreas, id); err != nil {
			return perr.FromPostgres(err, "load service areas")
		}
		return nil
	})
	return sk, err
}

// UpdateState locks the site row, applies fn and writes the result back
func (p *PG) UpdateState(ctx context.Context, id uuid.UUID, fn domain.StateFunc) (lifecycle.State, error) {
	var out lifecycle.State
	err := p.db.Tx(ctx, func(q store.RowQuerier) error {
		var (
			status string
			raw    []byte
			cur    lifecycle.State
		)
		if err := q.QueryRow(ctx, sqlLockState, id).Scan(&status, &raw, &cur.StatusMessage, &cur.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return perr.NotFoundf("site %s not found", id)
			}
			return perr.FromPostgres(err, "lock site state")
		}
		st, err := lifecycle.ParseStatus(status)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "bad stored status")
		}
		cur.Status = st
		if cur.Progress, err = decodeProgress(raw); err != nil {
			return err
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		prog, err := encodeProgress(next.Progress)
		if err != nil {
			return err
		}
		if next.UpdatedAt.IsZero() {
			next.UpdatedAt = time.Now().UTC()
		}
		if _, err := q.Exec(ctx, sqlSaveState, id, string(next.Status), prog, next.StatusMessage, next.UpdatedAt); err != nil {
			return perr.FromPostgres(err, "save site state")
		}
		out = next
		return nil
	})
	return out, err
}

// ClaimLease mirrors the worker lease pattern: a conditional update that only
// succeeds when the lease is free or expired
func (p *PG) ClaimLease(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	interval := fmt.Sprintf("%d seconds", int64(ttl/time.Second))

	var ok bool
	err := p.db.QueryRow(ctx, sqlClaimLease, id, owner, interval).Scan(&ok)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, perr.FromPostgres(err, "claim build lease")
	}
	return ok, nil
}

// ReleaseLease implements domain.SiteStore
func (p *PG) ReleaseLease(ctx context.Context, id uuid.UUID, owner string) error {
	_, err := p.db.Exec(ctx, sqlReleaseLease, id, owner)
	return perr.FromPostgres(err, "release build lease")
}

// UpsertPage implements domain.SiteStore
func (p *PG) UpsertPage(ctx context.Context, a domain.PageArtifact) error {
	body, err := json.Marshal(a.Copy)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode page content")
	}
	_, err = p.db.Exec(ctx, sqlUpsertPage, a.SiteID, a.Slug, string(a.Kind), a.CategoryID, body, a.RunID, a.GeneratedAt)
	return perr.FromPostgresf(err, "upsert page %s", a.Slug)
}

// UpsertServiceContent implements domain.SiteStore
func (p *PG) UpsertServiceContent(ctx context.Context, a domain.ServiceArtifact) error {
	body, err := json.Marshal(a.Copy)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode service content")
	}
	_, err = p.db.Exec(ctx, sqlUpsertService, a.ServiceID, a.SiteID, body, a.RunID, a.GeneratedAt)
	return perr.FromPostgresf(err, "upsert service content %s", a.ServiceID)
}

// UpsertAreaContent implements domain.SiteStore
func (p *PG) UpsertAreaContent(ctx context.Context, a domain.AreaArtifact) error {
	body, err := json.Marshal(a.Copy)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode area content")
	}
	_, err = p.db.Exec(ctx, sqlUpsertArea, a.AreaID, a.SiteID, body, a.RunID, a.GeneratedAt)
	return perr.FromPostgresf(err, "upsert area content %s", a.AreaID)
}

// SaveReviews implements domain.SiteStore
func (p *PG) SaveReviews(ctx context.Context, siteID uuid.UUID, r domain.ReviewSummary) error {
	body, err := json.Marshal(r.Reviews)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode reviews")
	}
	_, err = p.db.Exec(ctx, sqlUpsertReviews, siteID, r.AverageRating, r.TotalCount, body)
	return perr.FromPostgres(err, "save reviews")
}

// ListArtifacts implements domain.SiteStore
func (p *PG) ListArtifacts(ctx context.Context, siteID uuid.UUID) (domain.ArtifactIndex, error) {
	var idx domain.ArtifactIndex
	var err error
	if idx.Pages, err = store.Many(ctx, p.db, scanOne[string], sqlListPages, siteID); err != nil {
		return idx, perr.FromPostgres(err, "list pages")
	}
	if idx.Services, err = store.Many(ctx, p.db, scanOne[uuid.UUID], sqlListServices, siteID); err != nil {
		return idx, perr.FromPostgres(err, "list service content")
	}
	if idx.Areas, err = store.Many(ctx, p.db, scanOne[uuid.UUID], sqlListAreas, siteID); err != nil {
		return idx, perr.FromPostgres(err, "list area content")
	}
	return idx, nil
}

func (r *queries) site(ctx context.Context, id uuid.UUID) (domain.Site, error) {
	var (
		s      domain.Site
		status string
		raw    []byte
	)
	err := r.q.QueryRow(ctx, sqlGetSite, id).Scan(
		&s.ID, &s.BusinessName, &s.Phone, &s.Website, &s.ReviewsAccountRef, &s.ReviewsLocationRef,
		&status, &raw, &s.StatusMessage, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, perr.NotFoundf("site %s not found", id)
	}
	if err != nil {
		return s, perr.FromPostgres(err, "load site")
	}
	if s.Status, err = lifecycle.ParseStatus(status); err != nil {
		return s, perr.Wrap(err, perr.ErrorCodeDB, "bad stored status")
	}
	if s.Progress, err = decodeProgress(raw); err != nil {
		return s, err
	}
	return s, nil
}

func decodeProgress(raw []byte) (*lifecycle.Progress, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var p lifecycle.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode build_progress")
	}
	return &p, nil
}

func encodeProgress(p *lifecycle.Progress) (any, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode build_progress")
	}
	return b, nil
}

func scanLocation(r store.Row) (domain.Location, error) {
	var l domain.Location
	err := r.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.State, &l.Phone, &l.IsPrimary)
	return l, err
}

func scanCategory(r store.Row) (domain.Category, error) {
	var c domain.Category
	err := r.Scan(&c.ID, &c.Name, &c.GBPCategory, &c.IsPrimary, &c.SortOrder)
	return c, err
}

func scanService(r store.Row) (domain.Service, error) {
	var s domain.Service
	err := r.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Description, &s.SortOrder)
	return s, err
}

func scanArea(r store.Row) (domain.ServiceArea, error) {
	var a domain.ServiceArea
	err := r.Scan(&a.ID, &a.City, &a.State, &a.SortOrder)
	return a, err
}

func scanOne[T any](r store.Row) (T, error) {
	var v T
	err := r.Scan(&v)
	return v, err
}
