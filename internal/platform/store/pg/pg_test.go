package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func TestOpenParseError(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "postgres://%zz"}, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenAppliesMaxConns(t *testing.T) {
	orig := newPool
	t.Cleanup(func() { newPool = orig })

	var seen int32
	newPool = func(ctx context.Context, c *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = c.MaxConns
		return nil, errors.New("no db")
	}
	_, err := Open(context.Background(), Config{URL: "postgres://u:p@localhost/sites", MaxConns: 7}, nil)
	if err == nil || seen != 7 {
		t.Fatalf("err=%v maxConns=%d", err, seen)
	}
}

func TestCloseNilSafe(t *testing.T) {
	var p *PG
	p.Close()
	(&PG{}).Close()
}

func TestTraceMarksSlowAndCompacts(t *testing.T) {
	var buf bytes.Buffer
	p := &PG{Tracer: Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel)), Slow: time.Nanosecond}

	p.Trace(context.Background(), "SELECT *\n\t FROM sites\n WHERE id = $1", []any{1}, time.Now().Add(-time.Millisecond), nil)

	line := buf.String()
	if !strings.Contains(line, `"level":"warn"`) || !strings.Contains(line, `"sql":"SELECT * FROM sites WHERE id = $1"`) {
		t.Fatalf("unexpected trace %s", line)
	}
}

func TestTraceWithoutTracer(t *testing.T) {
	var p *PG
	p.Trace(context.Background(), "SELECT 1", nil, time.Now(), nil)
}
