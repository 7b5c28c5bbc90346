package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "sitebuilder/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func header(k, v string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add(k, v)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBuildLaterOptionsWin(t *testing.T) {
	type ports struct{ Workers int }
	b := Build(
		WithName("builds"),
		WithPrefix("/"),
		WithName("meta"),
		WithPrefix("/meta"),
		WithMiddlewares(header("X-A", "1")),
		WithMiddlewares(header("X-B", "2")),
		WithPorts(ports{Workers: 4}),
	)
	if b.Name != "meta" || b.Prefix != "/meta" || len(b.Mw) != 2 {
		t.Fatalf("unexpected %+v", b)
	}
	if p, ok := b.Ports.(ports); !ok || p.Workers != 4 {
		t.Fatalf("ports %#v", b.Ports)
	}
	if z := Build(); z.Name != "" || z.Ports != nil || z.Mw != nil {
		t.Fatalf("zero build %+v", z)
	}
}

func TestMountPrefixAndRoot(t *testing.T) {
	m := chi.NewRouter()
	r := phttp.AdaptChi(m)
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

	Build(WithPrefix("/meta"), WithMiddlewares(header("X-Module", "meta"))).Mount(r, func(rr phttp.Router) {
		rr.Get("/health", ok)
	})
	Build(WithPrefix("/")).Mount(r, func(rr phttp.Router) {
		rr.Get("/sites/{siteID}/build-progress", ok)
	})

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta/health", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-Module") != "meta" {
		t.Fatalf("prefixed %d %v", rec.Code, rec.Header())
	}

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sites/s/build-progress", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-Module") != "" {
		t.Fatalf("root %d %v", rec.Code, rec.Header())
	}
}
