package repo

import (
	"context"

	"sitebuilder/internal/platform/store"
	"sitebuilder/internal/services/build/domain"
)

// BuildEventsTable is the ClickHouse analytics table
const BuildEventsTable = "build_events"

type (
	// CHSink writes build events to ClickHouse
	CHSink struct {
		ch store.Clickhouse
	}

	// NoopSink drops events; used when ClickHouse is disabled
	NoopSink struct{}
)

var (
	_ domain.EventSink = (*CHSink)(nil)
	_ domain.EventSink = NoopSink{}
)

// NewCHSink constructs a ClickHouse backed sink
func NewCHSink(ch store.Clickhouse) *CHSink {
	if ch == nil {
		panic("build.repo.CHSink requires a non nil Clickhouse")
	}
	return &CHSink{ch: ch}
}

// Record inserts one row per event in a single batch
func (s *CHSink) Record(ctx context.Context, events []domain.BuildEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		items, dur := e.Items, e.DurationMS
		if items < 0 {
			items = 0
		}
		if dur < 0 {
			dur = 0
		}
		rows = append(rows, []any{
			e.RunID, e.SiteID, e.TaskKey, e.Kind, e.Outcome,
			uint32(items), uint64(dur), e.Error, e.At.UTC(),
		})
	}
	return s.ch.Insert(ctx, BuildEventsTable, rows)
}

// Record implements domain.EventSink
func (NoopSink) Record(context.Context, []domain.BuildEvent) error { return nil }
