package store

import (
	"context"
	"fmt"
	"time"

	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// txAttempts bounds how often Tx reruns fn after a serialization or lock failure
const txAttempts = 3

// openPG opens the pool and waits for postgres to accept connections
func openPG(ctx context.Context, cfg PGConfig, log logger.Logger) (*pgAdapter, error) {
	var tracer pg.QueryTracer
	if cfg.LogSQL {
		tracer = pg.Tracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{URL: cfg.URL, MaxConns: cfg.MaxConns, SlowMs: cfg.SlowQueryMs}, tracer)
	if err != nil {
		return nil, fmt.Errorf("pg: open: %w", err)
	}

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	var last error
	wait := 150 * time.Millisecond
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		last = p.Pool.Ping(pctx)
		cancel()
		if last == nil {
			return &pgAdapter{sqlQuerier{q: p.Pool, pg: p}}, nil
		}
		log.Warn().Err(last).Int("attempt", i+1).Msg("pg: not ready")
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, 2*time.Second)
	}
	p.Close()
	return nil, fmt.Errorf("pg: ping failed after %d attempts: %w", attempts, last)
}

// pgxQuerier is what a pool and a transaction have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// sqlQuerier adapts a pgx querier to RowQuerier and traces each statement
type sqlQuerier struct {
	q  pgxQuerier
	pg *pg.PG
}

func (s sqlQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := s.q.Exec(ctx, sql, args...)
	s.pg.Trace(ctx, sql, args, start, err)
	return ct, err
}

func (s sqlQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := s.q.Query(ctx, sql, args...)
	s.pg.Trace(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

func (s sqlQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := s.q.QueryRow(ctx, sql, args...)
	return scanFunc(func(dst ...any) error {
		err := r.Scan(dst...)
		s.pg.Trace(ctx, sql, args, start, err)
		return err
	})
}

// pgAdapter is the pool-backed TxRunner
type pgAdapter struct{ sqlQuerier }

func (a *pgAdapter) Ping(ctx context.Context) error { return a.pg.Pool.Ping(ctx) }

func (a *pgAdapter) Close() error {
	a.pg.Close()
	return nil
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	return retryContended(ctx, txAttempts, func() error {
		return pgx.BeginFunc(ctx, a.pg.Pool, func(tx pgx.Tx) error {
			return fn(sqlQuerier{q: tx, pg: a.pg})
		})
	})
}

// retryContended reruns fn while it fails with a serialization, deadlock or
// lock-timeout error, up to attempts times
func retryContended(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !perr.Contended(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 25 * time.Millisecond):
		}
	}
	return err
}

type scanFunc func(dst ...any) error

func (f scanFunc) Scan(dst ...any) error { return f(dst...) }

type pgxRows struct{ r pgx.Rows }

func (x pgxRows) Next() bool            { return x.r.Next() }
func (x pgxRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x pgxRows) Err() error            { return x.r.Err() }
func (x pgxRows) Close()                { x.r.Close() }
func (x pgxRows) Columns() []string {
	fds := x.r.FieldDescriptions()
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.Name
	}
	return out
}
