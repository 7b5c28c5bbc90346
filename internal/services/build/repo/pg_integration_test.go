//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"sitebuilder/internal/core/lifecycle"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/platform/migrate"
	"sitebuilder/internal/platform/store"
	"sitebuilder/internal/services/build/domain"
)

func startPG(t *testing.T) *PG {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())

	s, err := store.Open(ctx, store.Config{
		AppName: "sitebuilder-test",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 4},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if _, err := migrate.PG(ctx, s.PG); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPG(s.PG)
}

func seedPG(t *testing.T, p *PG) (siteID, catID, svcID, areaID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	siteID, catID, svcID, areaID = uuid.New(), uuid.New(), uuid.New(), uuid.New()
	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO sites (id, business_name) VALUES ($1, 'Acme')`, []any{siteID}},
		{`INSERT INTO site_locations (id, site_id, city, state, is_primary) VALUES ($1, $2, 'Austin', 'TX', true)`, []any{uuid.New(), siteID}},
		{`INSERT INTO site_categories (id, site_id, name, is_primary) VALUES ($1, $2, 'Plumbing', true)`, []any{catID, siteID}},
		{`INSERT INTO site_services (id, site_id, category_id, name) VALUES ($1, $2, $3, 'Drain Cleaning')`, []any{svcID, siteID, catID}},
		{`INSERT INTO site_services (id, site_id, name, sort_order) VALUES ($1, $2, 'Orphan', 1)`, []any{uuid.New(), siteID}},
		{`INSERT INTO site_service_areas (id, site_id, city, state) VALUES ($1, $2, 'Round Rock', 'TX')`, []any{areaID, siteID}},
	}
	for _, s := range stmts {
		if _, err := p.db.Exec(ctx, s.sql, s.args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return
}

func TestPG_Integration_SkeletonAndState(t *testing.T) {
	p := startPG(t)
	ctx := context.Background()
	siteID, catID, _, _ := seedPG(t, p)

	sk, err := p.GetSkeleton(ctx, siteID)
	if err != nil {
		t.Fatal(err)
	}
	if sk.Site.Status != lifecycle.Pending || len(sk.Locations) != 1 || len(sk.Services) != 2 || len(sk.Areas) != 1 {
		t.Fatalf("skeleton = %+v", sk)
	}
	if sk.Services[0].CategoryID != catID || sk.Services[1].CategoryID != uuid.Nil {
		t.Fatalf("service categories = %v %v", sk.Services[0].CategoryID, sk.Services[1].CategoryID)
	}

	now := time.Now()
	st, err := p.UpdateState(ctx, siteID, func(s lifecycle.State) (lifecycle.State, error) {
		return lifecycle.Begin(s, 5, now)
	})
	if err != nil || st.Status != lifecycle.Building {
		t.Fatalf("begin: %+v %v", st, err)
	}
	_, err = p.UpdateState(ctx, siteID, func(s lifecycle.State) (lifecycle.State, error) {
		n := s.Progress.Advance(3, "Services")
		s.Progress = &n
		return s, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	site, err := p.GetSite(ctx, siteID)
	if err != nil {
		t.Fatal(err)
	}
	if site.Progress == nil || site.Progress.CompletedTasks != 3 || site.Progress.CurrentTask != "Services" {
		t.Fatalf("progress = %+v", site.Progress)
	}

	_, err = p.UpdateState(ctx, siteID, func(s lifecycle.State) (lifecycle.State, error) {
		return lifecycle.FinalizeFatal(s, false, "boom", now)
	})
	if err != nil {
		t.Fatal(err)
	}
	site, _ = p.GetSite(ctx, siteID)
	if site.Status != lifecycle.Failed || site.StatusMessage != "boom" {
		t.Fatalf("site = %+v", site)
	}
}

func TestPG_Integration_NotFound(t *testing.T) {
	p := startPG(t)
	_, err := p.GetSite(context.Background(), uuid.New())
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	_, err = p.UpdateState(context.Background(), uuid.New(), func(s lifecycle.State) (lifecycle.State, error) { return s, nil })
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestPG_Integration_Lease(t *testing.T) {
	p := startPG(t)
	ctx := context.Background()
	siteID, _, _, _ := seedPG(t, p)

	ok, err := p.ClaimLease(ctx, siteID, "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("claim: %v %v", ok, err)
	}
	if ok, _ := p.ClaimLease(ctx, siteID, "b", time.Minute); ok {
		t.Fatal("lease must be exclusive")
	}
	if err := p.ReleaseLease(ctx, siteID, "a"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := p.ClaimLease(ctx, siteID, "b", time.Minute); !ok {
		t.Fatal("released lease must be claimable")
	}
}

func TestPG_Integration_UpsertsIdempotent(t *testing.T) {
	p := startPG(t)
	ctx := context.Background()
	siteID, catID, svcID, areaID := seedPG(t, p)
	run := uuid.New()
	now := time.Now().UTC()

	dc := domain.DetailCopy{ID: svcID.String(), MetaTitle: "t", H1: "h"}
	for i := 0; i < 2; i++ {
		if err := p.UpsertPage(ctx, domain.PageArtifact{SiteID: siteID, Slug: "home", Kind: "core_page", RunID: run, GeneratedAt: now}); err != nil {
			t.Fatal(err)
		}
		if err := p.UpsertPage(ctx, domain.PageArtifact{SiteID: siteID, Slug: "plumbing", Kind: "category_page", CategoryID: &catID, RunID: run, GeneratedAt: now}); err != nil {
			t.Fatal(err)
		}
		if err := p.UpsertServiceContent(ctx, domain.ServiceArtifact{SiteID: siteID, ServiceID: svcID, Copy: dc, RunID: run, GeneratedAt: now}); err != nil {
			t.Fatal(err)
		}
		if err := p.UpsertAreaContent(ctx, domain.AreaArtifact{SiteID: siteID, AreaID: areaID, Copy: dc, RunID: run, GeneratedAt: now}); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.SaveReviews(ctx, siteID, domain.ReviewSummary{AverageRating: 4.8, TotalCount: 3}); err != nil {
		t.Fatal(err)
	}

	idx, err := p.ListArtifacts(ctx, siteID)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Pages) != 2 || len(idx.Services) != 1 || len(idx.Areas) != 1 {
		t.Fatalf("index = %+v", idx)
	}
}
