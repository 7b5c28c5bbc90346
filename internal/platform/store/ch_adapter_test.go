package store

import (
	"context"
	"errors"
	"testing"

	"sitebuilder/internal/platform/store/ch"
)

type fakeCH struct {
	inserted [][]any
	table    string
	queryErr error
	pingErr  error
	closed   bool
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.table, f.inserted = table, rows
	return nil
}
func (f *fakeCH) Query(context.Context, string, ...any) (ch.Rows, error) { return nil, f.queryErr }
func (f *fakeCH) Exec(context.Context, string, ...any) error            { return nil }
func (f *fakeCH) Ping(context.Context) error                             { return f.pingErr }
func (f *fakeCH) Close() error                                           { f.closed = true; return nil }

func TestCHInsertRejectsOtherShapes(t *testing.T) {
	f := &fakeCH{}
	a := newCHAdapter(f)
	if err := a.Insert(context.Background(), "build_events", []string{"x"}); err == nil {
		t.Fatal("expected shape error")
	}
	if err := a.Insert(context.Background(), "build_events", [][]any{{"run", 1}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if f.table != "build_events" || len(f.inserted) != 1 {
		t.Fatalf("not delegated: %q %v", f.table, f.inserted)
	}
}

func TestCHQueryError(t *testing.T) {
	boom := errors.New("boom")
	rows, err := newCHAdapter(&fakeCH{queryErr: boom}).Query(context.Background(), "SELECT 1")
	if !errors.Is(err, boom) || rows != nil {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
}

func TestStorePingAndClose(t *testing.T) {
	f := &fakeCH{pingErr: errors.New("down")}
	s := &Store{CH: newCHAdapter(f)}
	if err := s.Ping(context.Background()); err == nil || err.Error() != "ch: down" {
		t.Fatalf("Ping = %v", err)
	}
	if err := s.Close(context.Background()); err != nil || !f.closed {
		t.Fatalf("Close = %v closed=%v", err, f.closed)
	}
}
