package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/services/build/domain"
)

type (
	// Memory is an in-process SiteStore used by tests and the ctl dry runs.
	// Each site carries its own mutex so builds of different sites never contend
	Memory struct {
		mu    sync.RWMutex
		sites map[uuid.UUID]*memSite
		now   func() time.Time
	}

	memSite struct {
		mu       sync.Mutex
		skeleton domain.Skeleton
		lease    string
		leaseExp time.Time
		pages    map[string]domain.PageArtifact
		services map[uuid.UUID]domain.ServiceArtifact
		areas    map[uuid.UUID]domain.AreaArtifact
		reviews  *domain.ReviewSummary
		writes   int
	}
)

var _ domain.SiteStore = (*Memory)(nil)

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{sites: map[uuid.UUID]*memSite{}, now: func() time.Time { return time.Now().UTC() }}
}

// Seed inserts or replaces a site with its children
func (m *Memory) Seed(sk domain.Skeleton) {
	if sk.Site.ID == uuid.Nil {
		sk.Site.ID = uuid.New()
	}
	if sk.Site.Status == "" {
		sk.Site.Status = lifecycle.Pending
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[sk.Site.ID] = &memSite{
		skeleton: cloneSkeleton(sk),
		pages:    map[string]domain.PageArtifact{},
		services: map[uuid.UUID]domain.ServiceArtifact{},
		areas:    map[uuid.UUID]domain.AreaArtifact{},
	}
}

func (m *Memory) site(id uuid.UUID) (*memSite, error) {
	m.mu.RLock()
	s, ok := m.sites[id]
	m.mu.RUnlock()
	if !ok {
		return nil, perr.NotFoundf("site %s not found", id)
	}
	return s, nil
}

// GetSite implements domain.SiteStore
func (m *Memory) GetSite(_ context.Context, id uuid.UUID) (domain.Site, error) {
	s, err := m.site(id)
	if err != nil {
		return domain.Site{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	site := s.skeleton.Site
	site.Progress = cloneProgress(site.Progress)
	return site, nil
}

// GetSkeleton implements domain.SiteStore
func (m *Memory) GetSkeleton(_ context.Context, id uuid.UUID) (domain.Skeleton, error) {
	s, err := m.site(id)
	if err != nil {
		return domain.Skeleton{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSkeleton(s.skeleton), nil
}

// UpdateState implements domain.SiteStore
func (m *Memory) UpdateState(_ context.Context, id uuid.UUID, fn domain.StateFunc) (lifecycle.State, error) {
	s, err := m.site(id)
	if err != nil {
		return lifecycle.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.skeleton.Site.State
	cur.Progress = cloneProgress(cur.Progress)
	next, err := fn(cur)
	if err != nil {
		return lifecycle.State{}, err
	}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = m.now()
	}
	next.Progress = cloneProgress(next.Progress)
	s.skeleton.Site.State = next
	s.writes++
	out := next
	out.Progress = cloneProgress(next.Progress)
	return out, nil
}

// ClaimLease implements domain.SiteStore
func (m *Memory) ClaimLease(_ context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	s, err := m.site(id)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := m.now()
	if s.lease != "" && now.Before(s.leaseExp) {
		return false, nil
	}
	s.lease, s.leaseExp = owner, now.Add(ttl)
	return true, nil
}

// ReleaseLease implements domain.SiteStore
func (m *Memory) ReleaseLease(_ context.Context, id uuid.UUID, owner string) error {
	s, err := m.site(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease == owner {
		s.lease, s.leaseExp = "", time.Time{}
	}
	return nil
}

// LeaseOwner reports the current lease holder, empty when free
func (m *Memory) LeaseOwner(id uuid.UUID) string {
	s, err := m.site(id)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease == "" || !m.now().Before(s.leaseExp) {
		return ""
	}
	return s.lease
}

// UpsertPage implements domain.SiteStore
func (m *Memory) UpsertPage(_ context.Context, a domain.PageArtifact) error {
	s, err := m.site(a.SiteID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[a.Slug] = a
	return nil
}

// UpsertServiceContent implements domain.SiteStore
func (m *Memory) UpsertServiceContent(_ context.Context, a domain.ServiceArtifact) error {
	s, err := m.site(a.SiteID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[a.ServiceID] = a
	return nil
}

// UpsertAreaContent implements domain.SiteStore
func (m *Memory) UpsertAreaContent(_ context.Context, a domain.AreaArtifact) error {
	s, err := m.site(a.SiteID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas[a.AreaID] = a
	return nil
}

// SaveReviews implements domain.SiteStore
func (m *Memory) SaveReviews(_ context.Context, siteID uuid.UUID, r domain.ReviewSummary) error {
	s, err := m.site(siteID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = &r
	return nil
}

// Reviews returns the stored review summary if any
func (m *Memory) Reviews(siteID uuid.UUID) (domain.ReviewSummary, bool) {
	s, err := m.site(siteID)
	if err != nil {
		return domain.ReviewSummary{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reviews == nil {
		return domain.ReviewSummary{}, false
	}
	return *s.reviews, true
}

// Page returns one stored page by slug
func (m *Memory) Page(siteID uuid.UUID, slug string) (domain.PageArtifact, bool) {
	s, err := m.site(siteID)
	if err != nil {
		return domain.PageArtifact{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[slug]
	return p, ok
}

// ServiceContent returns stored copy for one service
func (m *Memory) ServiceContent(siteID, serviceID uuid.UUID) (domain.ServiceArtifact, bool) {
	s, err := m.site(siteID)
	if err != nil {
		return domain.ServiceArtifact{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.services[serviceID]
	return a, ok
}

// StateWrites counts UpdateState calls that committed
func (m *Memory) StateWrites(siteID uuid.UUID) int {
	s, err := m.site(siteID)
	if err != nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// ListArtifacts implements domain.SiteStore
func (m *Memory) ListArtifacts(_ context.Context, siteID uuid.UUID) (domain.ArtifactIndex, error) {
	s, err := m.site(siteID)
	if err != nil {
		return domain.ArtifactIndex{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := domain.ArtifactIndex{
		Pages:    make([]string, 0, len(s.pages)),
		Services: make([]uuid.UUID, 0, len(s.services)),
		Areas:    make([]uuid.UUID, 0, len(s.areas)),
	}
	for slug := range s.pages {
		idx.Pages = append(idx.Pages, slug)
	}
	for id := range s.services {
		idx.Services = append(idx.Services, id)
	}
	for id := range s.areas {
		idx.Areas = append(idx.Areas, id)
	}
	sort.Strings(idx.Pages)
	sortUUIDs(idx.Services)
	sortUUIDs(idx.Areas)
	return idx, nil
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

func cloneProgress(p *lifecycle.Progress) *lifecycle.Progress {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneSkeleton(sk domain.Skeleton) domain.Skeleton {
	out := sk
	out.Site.Progress = cloneProgress(sk.Site.Progress)
	out.Locations = append([]domain.Location(nil), sk.Locations...)
	out.Categories = append([]domain.Category(nil), sk.Categories...)
	out.Services = append([]domain.Service(nil), sk.Services...)
	out.Areas = append([]domain.ServiceArea(nil), sk.Areas...)
	return out
}
