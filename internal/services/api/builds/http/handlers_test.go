package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
	perr "sitebuilder/internal/platform/errors"
	phttp "sitebuilder/internal/platform/net/http"
	"sitebuilder/internal/platform/sysauth"
	"sitebuilder/internal/services/api/builds/domain"
	bdom "sitebuilder/internal/services/build/domain"
)

type fakeSvc struct {
	startErr error
	trigger  lifecycle.Trigger
	siteID   string
	calls    int
}

func (f *fakeSvc) Start(_ context.Context, id string, t lifecycle.Trigger) (domain.StartResult, error) {
	f.calls++
	f.siteID, f.trigger = id, t
	if f.startErr != nil {
		return domain.StartResult{}, f.startErr
	}
	return domain.StartResult{Status: domain.StartStatus, TotalTasks: 7}, nil
}

func (f *fakeSvc) Progress(_ context.Context, id string) (domain.ProgressView, error) {
	if id == "missing" {
		return domain.ProgressView{}, perr.NotFoundf("site not found")
	}
	p := lifecycle.NewProgress(7, time.Now()).Advance(3, "Generating services")
	return domain.ProgressView{Status: lifecycle.Building, BuildProgress: &p, Percent: p.Percent()}, nil
}

func (f *fakeSvc) Artifacts(_ context.Context, _ string) (domain.ArtifactsView, error) {
	return domain.ArtifactsView{Pages: []string{"home"}}, nil
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       perr.ErrorCode  `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

func serve(t *testing.T, s *fakeSvc, v *sysauth.Verifier, req *stdhttp.Request) (int, envelope) {
	t.Helper()
	m := chi.NewRouter()
	Register(phttp.AdaptChi(m), s, v)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func TestGenerate_UserTriggerAccepted(t *testing.T) {
	s := &fakeSvc{}
	id := uuid.NewString()
	code, env := serve(t, s, nil, httptest.NewRequest("POST", "/sites/"+id+"/generate-content", nil))
	if code != stdhttp.StatusAccepted || env.StatusCode != 202 {
		t.Fatalf("code = %d", code)
	}
	var out domain.StartResult
	_ = json.Unmarshal(env.Data, &out)
	if out.Status != "started" || out.TotalTasks != 7 {
		t.Fatalf("data = %+v", out)
	}
	if s.trigger != lifecycle.TriggerUser || s.siteID != id {
		t.Fatalf("trigger/site = %s %s", s.trigger, s.siteID)
	}
}

func TestGenerate_SystemTrigger(t *testing.T) {
	s := &fakeSvc{}
	tok, err := sysauth.Sign("k", "billing", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/sites/"+uuid.NewString()+"/generate-content", nil)
	req.Header.Set(sysauth.Header, tok)
	code, _ := serve(t, s, sysauth.NewVerifier("k"), req)
	if code != stdhttp.StatusAccepted || s.trigger != lifecycle.TriggerSystem {
		t.Fatalf("code = %d trigger = %s", code, s.trigger)
	}
}

func TestGenerate_BadInternalToken(t *testing.T) {
	cases := []struct {
		name string
		v    *sysauth.Verifier
	}{
		{"wrong secret", sysauth.NewVerifier("other")},
		{"not configured", nil},
	}
	tok, _ := sysauth.Sign("k", "billing", time.Minute)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeSvc{}
			req := httptest.NewRequest("POST", "/sites/"+uuid.NewString()+"/generate-content", nil)
			req.Header.Set(sysauth.Header, tok)
			code, env := serve(t, s, tc.v, req)
			if code != stdhttp.StatusUnauthorized || env.Code != perr.ErrorCodeUnauthorized {
				t.Fatalf("code = %d env = %+v", code, env)
			}
			if s.calls != 0 {
				t.Fatal("service reached with a bad token")
			}
		})
	}
}

func TestGenerate_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"conflict", bdom.ErrBuildInProgress, stdhttp.StatusConflict},
		{"missing data", bdom.MissingData("primary category"), stdhttp.StatusBadRequest},
		{"not found", perr.NotFoundf("site not found"), stdhttp.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeSvc{startErr: tc.err}
			code, env := serve(t, s, nil, httptest.NewRequest("POST", "/sites/"+uuid.NewString()+"/generate-content", nil))
			if code != tc.want || env.Error == "" {
				t.Fatalf("code = %d env = %+v", code, env)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	code, env := serve(t, &fakeSvc{}, nil, httptest.NewRequest("GET", "/sites/"+uuid.NewString()+"/build-progress", nil))
	if code != stdhttp.StatusOK {
		t.Fatalf("code = %d", code)
	}
	var v struct {
		Status        string `json:"status"`
		BuildProgress struct {
			Total     int    `json:"total_tasks"`
			Completed int    `json:"completed_tasks"`
			Current   string `json:"current_task"`
		} `json:"build_progress"`
	}
	_ = json.Unmarshal(env.Data, &v)
	if v.Status != "building" || v.BuildProgress.Total != 7 || v.BuildProgress.Completed != 3 {
		t.Fatalf("view = %+v", v)
	}

	code, _ = serve(t, &fakeSvc{}, nil, httptest.NewRequest("GET", "/sites/missing/build-progress", nil))
	if code != stdhttp.StatusNotFound {
		t.Fatalf("missing code = %d", code)
	}
}

func TestArtifacts_RequiresTokenWhenConfigured(t *testing.T) {
	v := sysauth.NewVerifier("k")
	path := "/sites/" + uuid.NewString() + "/artifacts"

	code, _ := serve(t, &fakeSvc{}, v, httptest.NewRequest("GET", path, nil))
	if code != stdhttp.StatusUnauthorized {
		t.Fatalf("no token code = %d", code)
	}

	tok, _ := sysauth.Sign("k", "ops", time.Minute)
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set(sysauth.Header, tok)
	code, _ = serve(t, &fakeSvc{}, v, req)
	if code != stdhttp.StatusOK {
		t.Fatalf("token code = %d", code)
	}

	code, _ = serve(t, &fakeSvc{}, nil, httptest.NewRequest("GET", path, nil))
	if code != stdhttp.StatusOK {
		t.Fatalf("open code = %d", code)
	}
}
