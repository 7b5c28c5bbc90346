package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
	"sitebuilder/internal/core/planner"
	"sitebuilder/internal/core/retry"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/services/build/domain"
)

// Orchestrator prepares and executes content builds for one site at a time
type Orchestrator struct {
	store   domain.SiteStore
	gen     domain.ContentGenerator
	reviews domain.Reviews
	events  domain.EventSink
	tracker *Tracker
	cfg     Config
	now     func() time.Time
}

// NewOrchestrator wires the build. gen, reviews and events may be nil:
// a nil generator fails every run, nil reviews skips the fetch and nil
// events drops analytics
func NewOrchestrator(
	store domain.SiteStore,
	gen domain.ContentGenerator,
	reviews domain.Reviews,
	events domain.EventSink,
	cfg Config,
) *Orchestrator {
	if store == nil {
		panic("build.Orchestrator requires a non nil SiteStore")
	}
	return &Orchestrator{
		store:   store,
		gen:     gen,
		reviews: reviews,
		events:  events,
		tracker: NewTracker(store),
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// Tracker exposes the progress tracker for readers
func (o *Orchestrator) Tracker() *Tracker { return o.tracker }

// Config returns the effective configuration
func (o *Orchestrator) Config() Config { return o.cfg }

// Prepare validates the site, plans the run, takes the build lease and
// writes initial progress. Nothing is written when it returns an error
func (o *Orchestrator) Prepare(ctx context.Context, siteID uuid.UUID, trigger lifecycle.Trigger) (domain.Run, error) {
	site, err := o.store.GetSite(ctx, siteID)
	if err != nil {
		return domain.Run{}, err
	}
	if !lifecycle.CanStartBuild(site.Status, trigger) {
		return domain.Run{}, domain.ErrBuildInProgress
	}

	sk, err := o.store.GetSkeleton(ctx, siteID)
	if err != nil {
		return domain.Run{}, err
	}
	if _, ok := sk.PrimaryLocation(); !ok {
		return domain.Run{}, domain.MissingData("location")
	}
	if _, ok := sk.PrimaryCategory(); !ok {
		return domain.Run{}, domain.MissingData("primary category")
	}

	plan := planner.Build(sk.PlannerInput(o.cfg.ServiceBatch, o.cfg.AreaBatch))

	runID := uuid.New()
	owner := fmt.Sprintf("%s:%s", o.cfg.Owner, runID)
	ok, err := o.store.ClaimLease(ctx, siteID, owner, o.cfg.RunBudget+finalizeTimeout)
	if err != nil {
		return domain.Run{}, err
	}
	if !ok {
		return domain.Run{}, domain.ErrBuildInProgress
	}

	st, wasActive, err := o.tracker.Init(ctx, siteID, plan.Total, trigger)
	if err != nil {
		if rerr := o.store.ReleaseLease(context.WithoutCancel(ctx), siteID, owner); rerr != nil {
			logger.C(logger.WithRun(ctx, siteID.String(), "")).Warn().Err(rerr).Msg("build: release lease after failed init")
		}
		return domain.Run{}, err
	}
	sk.Site.State = st

	return domain.Run{
		ID:        runID,
		SiteID:    siteID,
		Trigger:   trigger,
		WasActive: wasActive,
		Owner:     owner,
		Plan:      plan,
		Skeleton:  sk,
		StartedAt: o.now().UTC(),
	}, nil
}

// Build prepares and executes in the caller's goroutine
func (o *Orchestrator) Build(ctx context.Context, siteID uuid.UUID, trigger lifecycle.Trigger) (domain.Outcome, error) {
	run, err := o.Prepare(ctx, siteID, trigger)
	if err != nil {
		return domain.Outcome{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunBudget)
	defer cancel()
	return o.Execute(ctx, run), nil
}

// execution is the mutable state of one run
type execution struct {
	log           logger.Logger
	completed     int
	failedBatches int
	events        []domain.BuildEvent
}

// progressError marks a failed progress write; those always end the run
type progressError struct{ err error }

func (e *progressError) Error() string { return e.err.Error() }
func (e *progressError) Unwrap() error { return e.err }

// Execute runs every planned task and always finalizes, including after a panic
func (o *Orchestrator) Execute(ctx context.Context, run domain.Run) (out domain.Outcome) {
	ex := &execution{log: runLogger(ctx, run)}
	ex.log.Info().Int("total", run.Plan.Total).Int("tasks", len(run.Plan.Tasks)).Bool("was_active", run.WasActive).Msg("build: start")

	var cause error
	defer func() {
		if r := recover(); r != nil {
			cause = perr.PanicErrf("build panicked: %v", r)
			ex.log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("build: panic")
		}
		out = o.finalize(ctx, run, ex, cause)
	}()

	cause = o.execute(ctx, run, ex)
	return out
}

// Abort finalizes a prepared run that never got to execute
func (o *Orchestrator) Abort(ctx context.Context, run domain.Run, cause error) domain.Outcome {
	ex := &execution{log: runLogger(ctx, run)}
	return o.finalize(ctx, run, ex, perr.Wrap(cause, perr.ErrorCodeUnavailable, "build did not start"))
}

func runLogger(ctx context.Context, run domain.Run) logger.Logger {
	ctx = logger.WithRun(ctx, run.SiteID.String(), run.ID.String())
	return logger.From(ctx, logger.Named("build")).With().Str("trigger", string(run.Trigger)).Logger()
}

func (o *Orchestrator) execute(ctx context.Context, run domain.Run, ex *execution) error {
	if o.gen == nil {
		return domain.ErrNoGenerator
	}

	sk := run.Skeleton
	idx := indexSkeleton(sk)
	biz := businessOf(sk)
	reviews := o.fetchReviews(ctx, run, ex)

	for _, task := range run.Plan.Tasks {
		if err := ctx.Err(); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "build budget exhausted")
		}

		start := ex.completed
		if err := o.advance(ctx, run, start, task.Label); err != nil {
			return err
		}

		began := o.now()
		req := requestFor(task, biz, idx, reviews)
		content, err := retry.Do(ctx, o.policy(ex, task), func(ctx context.Context) (domain.Content, error) {
			return o.gen.Generate(ctx, req)
		})
		if err == nil {
			err = o.persist(ctx, run, ex, task, idx, content)
		}
		if err == nil {
			ex.record(run, task, began, o.now(), nil)
			continue
		}

		var pe *progressError
		if errors.As(err, &pe) {
			return err
		}
		ex.record(run, task, began, o.now(), err)

		if !isolated(task.Kind) {
			ex.log.Error().Err(err).Str("task", task.Key).Msg("build: task failed")
			return err
		}

		ex.failedBatches++
		ex.log.Warn().Err(err).Str("task", task.Key).Int("items", task.Size()).Msg("build: batch failed, continuing")
		ex.completed = start + task.Size()
		if err := o.advance(ctx, run, ex.completed, task.Label); err != nil {
			return err
		}
	}
	return nil
}

// isolated reports whether a failure of this kind of task is contained to the batch
func isolated(k planner.Kind) bool {
	return k == planner.KindServicePage || k == planner.KindAreaPage
}

func (o *Orchestrator) policy(ex *execution, task planner.Task) retry.Policy {
	p := o.cfg.Retry
	p.Retryable = retryable
	p.OnRetry = func(attempt int, err error) {
		ex.log.Warn().Err(err).Str("task", task.Key).Int("attempt", attempt).Msg("build: generator call failed, retrying")
	}
	return p
}

func retryable(err error) bool { return !perr.Permanent(err) }

func (o *Orchestrator) advance(ctx context.Context, run domain.Run, completed int, current string) error {
	if _, err := o.tracker.Advance(ctx, run.SiteID, completed, current); err != nil {
		return &progressError{err: perr.WithOp(err, "advance progress")}
	}
	return nil
}

// persist upserts each generated item and advances progress after every one
func (o *Orchestrator) persist(ctx context.Context, run domain.Run, ex *execution, task planner.Task, idx skeletonIndex, c domain.Content) error {
	now := o.now().UTC()

	switch task.Kind {
	case planner.KindCorePage, planner.KindCategoryPage:
		if c.Page == nil {
			return domain.Malformed(string(task.Kind), "missing page copy")
		}
		a := domain.PageArtifact{
			SiteID:      run.SiteID,
			Slug:        task.Slug,
			Kind:        task.Kind,
			Copy:        *c.Page,
			RunID:       run.ID,
			GeneratedAt: now,
		}
		if task.Category != nil {
			if cat, ok := idx.categories[task.Category.ID]; ok {
				id := cat.ID
				a.CategoryID = &id
			}
		}
		if err := o.store.UpsertPage(ctx, a); err != nil {
			return err
		}
		ex.completed++
		return o.advance(ctx, run, ex.completed, task.Label)

	case planner.KindServicePage:
		if len(c.Details) != len(task.Services) {
			return domain.Malformed(string(task.Kind), fmt.Sprintf("got %d items for %d services", len(c.Details), len(task.Services)))
		}
		for i, s := range task.Services {
			a := domain.ServiceArtifact{
				SiteID:      run.SiteID,
				ServiceID:   idx.services[s.ID].ID,
				Copy:        c.Details[i],
				RunID:       run.ID,
				GeneratedAt: now,
			}
			if err := o.store.UpsertServiceContent(ctx, a); err != nil {
				return err
			}
			ex.completed++
			if err := o.advance(ctx, run, ex.completed, task.Label); err != nil {
				return err
			}
		}
		return nil

	case planner.KindAreaPage:
		if len(c.Details) != len(task.Areas) {
			return domain.Malformed(string(task.Kind), fmt.Sprintf("got %d items for %d areas", len(c.Details), len(task.Areas)))
		}
		for i, ar := range task.Areas {
			a := domain.AreaArtifact{
				SiteID:      run.SiteID,
				AreaID:      idx.areas[ar.ID].ID,
				Copy:        c.Details[i],
				RunID:       run.ID,
				GeneratedAt: now,
			}
			if err := o.store.UpsertAreaContent(ctx, a); err != nil {
				return err
			}
			ex.completed++
			if err := o.advance(ctx, run, ex.completed, task.Label); err != nil {
				return err
			}
		}
		return nil
	}
	return perr.InvalidArgf("unknown task kind %q", task.Kind)
}

func (o *Orchestrator) fetchReviews(ctx context.Context, run domain.Run, ex *execution) *domain.ReviewSummary {
	site := run.Skeleton.Site
	if o.reviews == nil || !site.HasReviewSource() {
		return nil
	}
	sum, err := o.reviews.Fetch(ctx, site.ReviewsAccountRef, site.ReviewsLocationRef)
	if err != nil {
		ex.log.Warn().Err(err).Msg("build: reviews fetch failed, continuing without")
		return nil
	}
	if err := o.store.SaveReviews(ctx, run.SiteID, sum); err != nil {
		ex.log.Warn().Err(err).Msg("build: save reviews")
	}
	return &sum
}

// finalize writes the terminal lifecycle state, flushes events and drops the lease.
// It runs detached from ctx so a spent budget still records the outcome
func (o *Orchestrator) finalize(ctx context.Context, run domain.Run, ex *execution, cause error) domain.Outcome {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	now := o.now()
	st, err := o.store.UpdateState(fctx, run.SiteID, func(st lifecycle.State) (lifecycle.State, error) {
		if cause == nil {
			return lifecycle.FinalizeSuccess(st, now)
		}
		return lifecycle.FinalizeFailure(st, run.WasActive, perr.WireFrom(cause).Message, now)
	})
	if err != nil {
		ex.log.Error().Err(err).AnErr("cause", cause).Msg("build: finalize state")
	}

	if o.events != nil && len(ex.events) > 0 {
		if err := o.events.Record(fctx, ex.events); err != nil {
			ex.log.Warn().Err(err).Int("events", len(ex.events)).Msg("build: record events")
		}
	}

	if err := o.store.ReleaseLease(fctx, run.SiteID, run.Owner); err != nil {
		ex.log.Warn().Err(err).Msg("build: release lease")
	}

	out := domain.Outcome{
		RunID:         run.ID,
		Status:        st.Status,
		Completed:     ex.completed,
		Total:         run.Plan.Total,
		FailedBatches: ex.failedBatches,
		Err:           cause,
	}
	if err != nil {
		out.Err = errors.Join(cause, err)
	}

	ev := ex.log.Info()
	if cause != nil {
		ev = ex.log.Warn().Err(cause)
	}
	ev.Str("status", string(out.Status)).
		Int("completed", out.Completed).
		Int("failed_batches", out.FailedBatches).
		Dur("took", now.Sub(run.StartedAt)).
		Msg("build: done")
	return out
}

func (ex *execution) record(run domain.Run, task planner.Task, began, ended time.Time, err error) {
	e := domain.BuildEvent{
		RunID:      run.ID,
		SiteID:     run.SiteID,
		TaskKey:    task.Key,
		Kind:       string(task.Kind),
		Outcome:    domain.OutcomeOK,
		Items:      task.Size(),
		DurationMS: ended.Sub(began).Milliseconds(),
		At:         ended.UTC(),
	}
	if err != nil {
		e.Outcome = domain.OutcomeFailed
		e.Error = err.Error()
	}
	ex.events = append(ex.events, e)
}

// HasGenerator reports whether a content generator is configured
func (o *Orchestrator) HasGenerator() bool { return o.gen != nil }
