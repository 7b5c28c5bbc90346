package store

import (
	"context"
	"fmt"

	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/platform/store/ch"
)

func openCH(ctx context.Context, cfg CHConfig, log logger.Logger) (*chAdapter, error) {
	cc := ch.Config{URL: cfg.URL, ClientName: cfg.ClientName, ClientTag: cfg.ClientTag}
	if cfg.LogSQL {
		l := log.With().Str("component", "ch").Logger()
		cc.Debugf = func(format string, v ...any) { l.Debug().Msgf(format, v...) }
	}
	c, err := ch.Open(ctx, cc)
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

// chClient is the part of *ch.CH the adapter needs
type chClient interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

// chAdapter exposes a ch client as Clickhouse
type chAdapter struct{ c chClient }

func newCHAdapter(c chClient) *chAdapter { return &chAdapter{c: c} }

// Insert takes rows as [][]any, one inner slice per row in column order
func (a *chAdapter) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return fmt.Errorf("ch: insert %s: want [][]any, got %T", table, data)
	}
	return a.c.Insert(ctx, table, rows)
}

func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *chAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.c.Exec(ctx, sql, args...)
}

func (a *chAdapter) Ping(ctx context.Context) error { return a.c.Ping(ctx) }
func (a *chAdapter) Close() error                   { return a.c.Close() }

type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
