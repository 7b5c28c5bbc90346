package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRequestIDFromChi(t *testing.T) {
	var got string
	h := chimw.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sites/x/build-progress", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "req-42" {
		t.Fatalf("RequestID = %q", got)
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if RequestID(ctx) != "abc" {
		t.Fatalf("RequestID = %q", RequestID(ctx))
	}
	if RequestID(WithRequestID(context.Background(), "")) != "" {
		t.Fatal("empty id should not be stored")
	}
}

func TestCaller(t *testing.T) {
	if Caller(context.Background()) != "" {
		t.Fatal("no caller expected")
	}
	ctx := WithCaller(context.Background(), "site-provisioner")
	if Caller(ctx) != "site-provisioner" {
		t.Fatalf("Caller = %q", Caller(ctx))
	}
	if WithCaller(ctx, "") != ctx {
		t.Fatal("blank subject should leave ctx untouched")
	}
}
