package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/platform/store"
	"sitebuilder/internal/services/build/domain"
)

type fakeCH struct {
	table string
	rows  [][]any
	err   error
	calls int
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	f.calls++
	f.table = table
	f.rows, _ = data.([][]any)
	return f.err
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Exec(context.Context, string, ...any) error               { return nil }
func (f *fakeCH) Close() error                                              { return nil }

func TestCHSink_RecordShapesRows(t *testing.T) {
	t.Parallel()
	f := &fakeCH{}
	s := NewCHSink(f)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	err := s.Record(context.Background(), []domain.BuildEvent{
		{RunID: uuid.New(), SiteID: uuid.New(), TaskKey: "core:home", Kind: "core_page", Outcome: domain.OutcomeOK, Items: 1, DurationMS: 12, At: at},
		{TaskKey: "area:0", Items: -1, DurationMS: -5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.table != BuildEventsTable || len(f.rows) != 2 {
		t.Fatalf("table=%s rows=%d", f.table, len(f.rows))
	}
	r := f.rows[0]
	if len(r) != 9 {
		t.Fatalf("columns = %d", len(r))
	}
	if _, ok := r[5].(uint32); !ok {
		t.Fatalf("items type %T", r[5])
	}
	if got := r[8].(time.Time); got.Location() != time.UTC {
		t.Fatalf("at not utc: %v", got)
	}
	if f.rows[1][5].(uint32) != 0 || f.rows[1][6].(uint64) != 0 {
		t.Fatal("negative values must clamp to zero")
	}
}

func TestCHSink_EmptyIsNoop(t *testing.T) {
	t.Parallel()
	f := &fakeCH{}
	if err := NewCHSink(f).Record(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if f.calls != 0 {
		t.Fatal("insert should not be called")
	}
}

func TestCHSink_PropagatesError(t *testing.T) {
	t.Parallel()
	f := &fakeCH{err: errors.New("boom")}
	if err := NewCHSink(f).Record(context.Background(), []domain.BuildEvent{{}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewCHSink_PanicsOnNil(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewCHSink(nil)
}
