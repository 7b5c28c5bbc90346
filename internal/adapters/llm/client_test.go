package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"sitebuilder/internal/core/planner"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/services/build/domain"
)

func completion(content, finish string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": finish}},
	})
	return string(b)
}

func TestNewClient_NoKeyMeansNoGenerator(t *testing.T) {
	t.Parallel()

	if c := NewClient(Options{}); c != nil {
		t.Fatalf("expected nil client without api key")
	}
	var c *Client
	if _, err := c.Generate(context.Background(), domain.GenerateRequest{}); err != domain.ErrNoGenerator {
		t.Fatalf("nil client err = %v", err)
	}
}

func TestGenerate_Page(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotPath = r.Header.Get("Authorization"), r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(completion(goodPage, "stop")))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/", APIKey: "k", Model: "m"})
	out, err := c.Generate(context.Background(), domain.GenerateRequest{
		Kind:     planner.KindCorePage,
		Page:     planner.PageHome,
		Business: domain.Business{Name: "Acme Plumbing", City: "Austin", State: "TX"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Page == nil || out.Page.MetaTitle == "" {
		t.Fatalf("content = %+v", out)
	}
	if gotAuth != "Bearer k" || gotPath != "/chat/completions" || gotReq.Model != "m" {
		t.Fatalf("auth=%q path=%q model=%q", gotAuth, gotPath, gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || !strings.Contains(gotReq.Messages[1].Content, "Acme Plumbing") {
		t.Fatalf("prompt missing business: %+v", gotReq.Messages)
	}
}

func TestGenerate_ServiceBatch(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := `{"items":[` + detail(a.String(), 3) + `,` + detail(b.String(), 4) + `]}`
		_, _ = w.Write([]byte(completion(body, "stop")))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k"})
	out, err := c.Generate(context.Background(), domain.GenerateRequest{
		Kind:     planner.KindServicePage,
		Services: []domain.Service{{ID: a, Name: "Drain cleaning"}, {ID: b, Name: "Water heaters"}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out.Details) != 2 || out.Details[1].ID != b.String() {
		t.Fatalf("details = %+v", out.Details)
	}
}

func TestGenerate_StatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		code   perr.ErrorCode
	}{
		{http.StatusUnauthorized, perr.ErrorCodeUnauthorized},
		{http.StatusTooManyRequests, perr.ErrorCodeTooManyRequests},
		{http.StatusBadGateway, perr.ErrorCodeUnavailable},
		{http.StatusBadRequest, perr.ErrorCodeInvalidArgument},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := NewClient(Options{BaseURL: srv.URL, APIKey: "k"})
		_, err := c.Generate(context.Background(), domain.GenerateRequest{Kind: planner.KindCorePage, Page: planner.PageAbout})
		srv.Close()
		if !perr.IsCode(err, tc.code) {
			t.Fatalf("status %d: err=%v, want code %d", tc.status, err, tc.code)
		}
	}
}

func TestGenerate_TruncatedIsMalformed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completion(`{"meta_title":"x"`, "length")))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.Generate(context.Background(), domain.GenerateRequest{Kind: planner.KindCorePage, Page: planner.PageContact})
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v", err)
	}
}
