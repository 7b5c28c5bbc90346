package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
	"sitebuilder/internal/services/build/domain"
)

// Tracker owns the build_progress column. Every write is a single row
// read-modify-write through SiteStore.UpdateState
type Tracker struct {
	store domain.SiteStore
	now   func() time.Time
}

// NewTracker constructs a Tracker
func NewTracker(store domain.SiteStore) *Tracker {
	if store == nil {
		panic("build.Tracker requires a non nil SiteStore")
	}
	return &Tracker{store: store, now: time.Now}
}

// Init re-checks the trigger against the locked row and attaches fresh
// progress for total tasks. wasActive reports whether the site was live,
// active or paused
func (t *Tracker) Init(ctx context.Context, siteID uuid.UUID, total int, trigger lifecycle.Trigger) (st lifecycle.State, wasActive bool, err error) {
	now := t.now()
	st, err = t.store.UpdateState(ctx, siteID, func(cur lifecycle.State) (lifecycle.State, error) {
		if !lifecycle.CanStartBuild(cur.Status, trigger) {
			return cur, domain.ErrBuildInProgress
		}
		wasActive = lifecycle.Live(cur.Status)
		return lifecycle.Begin(cur, total, now)
	})
	return st, wasActive, err
}

// Advance moves completed forward; it never goes backwards or past total
func (t *Tracker) Advance(ctx context.Context, siteID uuid.UUID, completed int, current string) (lifecycle.Progress, error) {
	var out lifecycle.Progress
	now := t.now()
	_, err := t.store.UpdateState(ctx, siteID, func(st lifecycle.State) (lifecycle.State, error) {
		if st.Progress == nil {
			return st, domain.ErrNoActiveRun
		}
		out = st.Progress.Advance(completed, current)
		st.Progress = &out
		st.UpdatedAt = now.UTC()
		return st, nil
	})
	return out, err
}

// Read returns the lifecycle slice a poller sees
func (t *Tracker) Read(ctx context.Context, siteID uuid.UUID) (lifecycle.State, error) {
	s, err := t.store.GetSite(ctx, siteID)
	if err != nil {
		return lifecycle.State{}, err
	}
	return s.State, nil
}
