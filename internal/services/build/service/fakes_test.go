package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
	"sitebuilder/internal/core/planner"
	"sitebuilder/internal/core/retry"
	"sitebuilder/internal/services/build/domain"
	"sitebuilder/internal/services/build/repo"
)

// fakeGen returns valid content for every request unless fail says otherwise
type fakeGen struct {
	mu    sync.Mutex
	calls []domain.GenerateRequest
	fail  func(domain.GenerateRequest) error
	block chan struct{}
}

func (g *fakeGen) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Content, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()

	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return domain.Content{}, ctx.Err()
		}
	}
	if g.fail != nil {
		if err := g.fail(req); err != nil {
			return domain.Content{}, err
		}
	}
	return contentFor(req), nil
}

func (g *fakeGen) count(kind planner.Kind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (g *fakeGen) requests(kind planner.Kind) []domain.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.GenerateRequest
	for _, c := range g.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func pageCopy() *domain.PageCopy {
	return &domain.PageCopy{
		MetaTitle: "t", MetaDescription: "d", H1: "h1", H2: "h2",
		HeroDescription: "hero", BodyCopy: "b1", BodyCopy2: "b2",
	}
}

func detail(id string) domain.DetailCopy {
	return domain.DetailCopy{
		ID: id, MetaTitle: "t", MetaDescription: "d", H1: "h", IntroCopy: "i",
		Problems:         []string{"a", "b", "c"},
		DetailedSections: []domain.Section{{Heading: "1", Body: "1"}, {Heading: "2", Body: "2"}, {Heading: "3", Body: "3"}},
		FAQs:             []domain.FAQ{{Question: "q", Answer: "a"}, {Question: "q", Answer: "a"}, {Question: "q", Answer: "a"}},
	}
}

func contentFor(req domain.GenerateRequest) domain.Content {
	c := domain.Content{Kind: req.Kind}
	switch req.Kind {
	case planner.KindCorePage, planner.KindCategoryPage:
		c.Page = pageCopy()
	case planner.KindServicePage:
		for _, s := range req.Services {
			c.Details = append(c.Details, detail(s.ID.String()))
		}
	case planner.KindAreaPage:
		for _, a := range req.Areas {
			c.Details = append(c.Details, detail(a.ID.String()))
		}
	}
	return c
}

// recordingStore captures every committed status and progress snapshot and can
// fail one UpdateState call or every service upsert
type recordingStore struct {
	*repo.Memory

	mu           sync.Mutex
	snaps        []lifecycle.Progress
	statuses     []lifecycle.Status
	updates      int
	failUpdateAt int
	failServices bool
}

func (r *recordingStore) UpdateState(ctx context.Context, id uuid.UUID, fn domain.StateFunc) (lifecycle.State, error) {
	r.mu.Lock()
	r.updates++
	n := r.updates
	r.mu.Unlock()
	if r.failUpdateAt > 0 && n == r.failUpdateAt {
		return lifecycle.State{}, errors.New("db gone")
	}

	st, err := r.Memory.UpdateState(ctx, id, fn)
	if err != nil {
		return st, err
	}
	r.mu.Lock()
	r.statuses = append(r.statuses, st.Status)
	if st.Progress != nil {
		r.snaps = append(r.snaps, *st.Progress)
	}
	r.mu.Unlock()
	return st, err
}

func (r *recordingStore) UpsertServiceContent(ctx context.Context, a domain.ServiceArtifact) error {
	if r.failServices {
		return errors.New("insert failed")
	}
	return r.Memory.UpsertServiceContent(ctx, a)
}

type fakeReviews struct {
	sum   domain.ReviewSummary
	err   error
	calls int
}

func (f *fakeReviews) Fetch(context.Context, string, string) (domain.ReviewSummary, error) {
	f.calls++
	return f.sum, f.err
}

type fakeSink struct {
	mu     sync.Mutex
	events []domain.BuildEvent
}

func (f *fakeSink) Record(_ context.Context, ev []domain.BuildEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev...)
	return nil
}

// siteSpec describes a seeded site
type siteSpec struct {
	status     lifecycle.Status
	locations  int
	primary    bool
	secondary  int
	services   int
	areas      int
	reviewRefs bool
}

func seedSite(t *testing.T, m *repo.Memory, s siteSpec) domain.Skeleton {
	t.Helper()
	sk := domain.Skeleton{Site: domain.Site{ID: uuid.New(), BusinessName: "Acme Plumbing", Phone: "555-0100"}}
	sk.Site.Status = s.status
	if s.reviewRefs {
		sk.Site.ReviewsAccountRef, sk.Site.ReviewsLocationRef = "acct", "loc"
	}
	for i := 0; i < s.locations; i++ {
		sk.Locations = append(sk.Locations, domain.Location{ID: uuid.New(), City: "Austin", State: "TX", IsPrimary: i == 0})
	}
	if s.primary {
		sk.Categories = append(sk.Categories, domain.Category{ID: uuid.New(), Name: "Plumbing", IsPrimary: true})
	}
	for i := 0; i < s.secondary; i++ {
		sk.Categories = append(sk.Categories, domain.Category{ID: uuid.New(), Name: "Heating " + string(rune('A'+i)), SortOrder: i + 1})
	}
	for i := 0; i < s.services; i++ {
		var cat uuid.UUID
		if len(sk.Categories) > 0 {
			cat = sk.Categories[0].ID
		}
		sk.Services = append(sk.Services, domain.Service{ID: uuid.New(), CategoryID: cat, Name: "Service", SortOrder: i})
	}
	for i := 0; i < s.areas; i++ {
		sk.Areas = append(sk.Areas, domain.ServiceArea{ID: uuid.New(), City: "Town", State: "TX", SortOrder: i})
	}
	m.Seed(sk)
	return sk
}

func testConfig() Config {
	return Config{Workers: 2, Retry: retry.Policy{MaxRetries: 1}, Owner: "test"}
}

func newHarness(t *testing.T, gen domain.ContentGenerator) (*Orchestrator, *recordingStore) {
	t.Helper()
	rs := &recordingStore{Memory: repo.NewMemory()}
	return NewOrchestrator(rs, gen, nil, nil, testConfig()), rs
}
