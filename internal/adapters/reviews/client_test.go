package reviews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "sitebuilder/internal/platform/errors"
)

const listBody = `{
  "reviews": [
    {"reviewId":"r1","reviewer":{"displayName":"Dana"},"starRating":"FIVE","comment":" Great work ","createTime":"2026-01-02T03:04:05Z"},
    {"reviewId":"r2","reviewer":{"displayName":"Lee"},"starRating":"THREE","comment":"ok","createTime":"2026-01-01T00:00:00Z"}
  ],
  "averageRating": 4.6,
  "totalReviewCount": 87
}`

func TestFetch_MapsSummary(t *testing.T) {
	t.Parallel()

	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, auth = r.URL.Path, r.Header.Get("Authorization")
		_, _ = w.Write([]byte(listBody))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "tok"})
	got, err := c.Fetch(context.Background(), "accounts/123", "locations/456")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != "/accounts/123/locations/456/reviews" || auth != "Bearer tok" {
		t.Fatalf("path=%q auth=%q", path, auth)
	}
	if got.TotalCount != 87 || got.AverageRating != 4.6 || len(got.Reviews) != 2 {
		t.Fatalf("summary = %+v", got)
	}
	if got.Reviews[0].Rating != 5 || got.Reviews[0].Text != "Great work" || got.Reviews[1].Author != "Lee" {
		t.Fatalf("reviews = %+v", got.Reviews)
	}
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		code   perr.ErrorCode
	}{
		{http.StatusNotFound, perr.ErrorCodeNotFound},
		{http.StatusForbidden, perr.ErrorCodeUnauthorized},
		{http.StatusInternalServerError, perr.ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tc.status) }))
		_, err := NewClient(Options{BaseURL: srv.URL, Token: "t"}).Fetch(context.Background(), "1", "2")
		srv.Close()
		if !perr.IsCode(err, tc.code) {
			t.Fatalf("status %d: err=%v", tc.status, err)
		}
	}
}

func TestFetch_RequiresRefsAndToken(t *testing.T) {
	t.Parallel()

	if NewClient(Options{}) != nil {
		t.Fatalf("expected nil client without token")
	}
	c := NewClient(Options{Token: "t", BaseURL: "http://127.0.0.1:1"})
	if _, err := c.Fetch(context.Background(), "", "x"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestFetch_FollowsPagesUpToLimit(t *testing.T) {
	t.Parallel()

	var tokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := r.URL.Query().Get("pageToken")
		tokens = append(tokens, tok)
		next := map[string]string{"": "p2", "p2": "p3", "p3": "p4"}[tok]
		_, _ = fmt.Fprintf(w, `{"reviews":[{"reviewId":%q,"starRating":"FOUR"}],"averageRating":4.1,"totalReviewCount":40,"nextPageToken":%q}`, "r-"+tok, next)
	}))
	defer srv.Close()

	got, err := NewClient(Options{BaseURL: srv.URL, Token: "tok", MaxPages: 3}).Fetch(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fmt.Sprint(tokens) != "[ p2 p3]" {
		t.Fatalf("page tokens = %q", tokens)
	}
	if len(got.Reviews) != 3 || got.TotalCount != 40 || got.AverageRating != 4.1 {
		t.Fatalf("summary = %+v", got)
	}
}

func TestFetch_PageErrorFailsFetch(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("pageToken") != "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"reviews":[],"nextPageToken":"more"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL, Token: "tok"}).Fetch(context.Background(), "1", "2")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || calls != 2 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}
