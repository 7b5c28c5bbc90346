package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"sitebuilder/internal/core/lifecycle"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/services/build/domain"
)

// Supervisor owns detached runs: at most one per site in this process and at
// most Workers executing at once. Runs outlive the triggering request
type Supervisor struct {
	orch *Orchestrator
	sem  *semaphore.Weighted

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[uuid.UUID]uuid.UUID
	closed   bool
	wg       sync.WaitGroup

	// onDone observes finished runs; tests use it to wait
	onDone func(domain.Outcome)
}

// NewSupervisor constructs a Supervisor over orch
func NewSupervisor(orch *Orchestrator) *Supervisor {
	if orch == nil {
		panic("build.Supervisor requires a non nil Orchestrator")
	}
	base, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		orch:     orch,
		sem:      semaphore.NewWeighted(int64(orch.cfg.Workers)),
		base:     base,
		cancel:   cancel,
		inflight: map[uuid.UUID]uuid.UUID{},
	}
}

// Start prepares a run synchronously and executes it in the background.
// Validation, conflict and not found errors surface here
func (s *Supervisor) Start(ctx context.Context, siteID uuid.UUID, trigger lifecycle.Trigger) (domain.Run, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Run{}, perr.Unavailablef("build supervisor is shutting down")
	}
	if _, busy := s.inflight[siteID]; busy {
		s.mu.Unlock()
		return domain.Run{}, domain.ErrBuildInProgress
	}
	s.inflight[siteID] = uuid.Nil
	s.wg.Add(1)
	s.mu.Unlock()

	started := false
	defer func() {
		if !started {
			s.release(siteID)
			s.wg.Done()
		}
	}()

	run, err := s.orch.Prepare(ctx, siteID, trigger)
	if err != nil {
		return domain.Run{}, err
	}
	started = true

	s.mu.Lock()
	s.inflight[siteID] = run.ID
	s.mu.Unlock()

	go s.run(context.WithoutCancel(ctx), run)
	return run, nil
}

func (s *Supervisor) run(parent context.Context, run domain.Run) {
	defer s.wg.Done()
	defer s.release(run.SiteID)

	ctx, cancel := context.WithTimeout(parent, s.orch.cfg.RunBudget)
	defer cancel()
	stop := context.AfterFunc(s.base, cancel)
	defer stop()

	var out domain.Outcome
	if err := s.sem.Acquire(ctx, 1); err != nil {
		log := runLogger(ctx, run)
		log.Warn().Err(err).Msg("build: no worker slot before deadline")
		out = s.orch.Abort(ctx, run, err)
	} else {
		out = s.orch.Execute(ctx, run)
		s.sem.Release(1)
	}

	if s.onDone != nil {
		s.onDone(out)
	}
}

func (s *Supervisor) release(siteID uuid.UUID) {
	s.mu.Lock()
	delete(s.inflight, siteID)
	s.mu.Unlock()
}

// Running reports the run id in flight for siteID
func (s *Supervisor) Running(siteID uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.inflight[siteID]
	return id, ok
}

// Shutdown stops accepting runs, cancels the ones in flight and waits for
// them to finalize or for ctx to end
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
