// Package http serves liveness, readiness and build settings under /meta
package http

import (
	"context"
	"net/http"
	"time"

	"sitebuilder/internal/core/version"
	"sitebuilder/internal/modkit/httpkit"
	perr "sitebuilder/internal/platform/errors"
)

// Backend is a named store seam probed by /ready. Seam may be nil when the
// backend is not configured
type Backend struct {
	Name string
	Seam any
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Backends    []Backend

	// Build reports the build worker settings, ok=false when no worker is mounted
	Build func() (BuildResponse, bool)
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	httpkit.Get(r, "/health", d.health)
	httpkit.Get(r, "/ready", d.ready)
	httpkit.Get(r, "/version", func(*http.Request) (any, error) { return version.Info(), nil })
	httpkit.Get(r, "/build", d.build)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"sitebuilder-api"`
	Started string `json:"started" example:"2026-10-18T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// ReadyCheck is the outcome of probing one backend: ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is ok when every backend answered, fail when one refused and
// degraded otherwise
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
}

// BuildResponse reports how content builds run in this process
type BuildResponse struct {
	Workers      int               `json:"workers"       example:"4"`
	RunBudget    string            `json:"run_budget"    example:"15m0s"`
	ServiceBatch int               `json:"service_batch" example:"5"`
	AreaBatch    int               `json:"area_batch"    example:"10"`
	Generator    bool              `json:"generator"     example:"true"`
	Build        version.BuildInfo `json:"build"`
}

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (d Deps) health(*http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: d.ServiceName,
		Started: d.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(d.StartedAt) / time.Second),
	}, nil
}

// @Summary Readiness with backend probes
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (d Deps) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(d.Backends))}
	for _, b := range d.Backends {
		c := probe(ctx, b)
		switch {
		case c.Status == "fail":
			out.Status = "fail"
		case c.Status != "ok" && out.Status == "ok":
			out.Status = "degraded"
		}
		out.Checks = append(out.Checks, c)
	}
	return out, nil
}

func probe(ctx context.Context, b Backend) ReadyCheck {
	if b.Seam == nil {
		return ReadyCheck{Name: b.Name, Status: "skipped"}
	}
	p, ok := b.Seam.(interface{ Ping(context.Context) error })
	if !ok {
		return ReadyCheck{Name: b.Name, Status: "unknown"}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: b.Name, Status: "fail", Error: err.Error()}
	}
	return ReadyCheck{Name: b.Name, Status: "ok"}
}

// @Summary Build worker settings
// @Tags Meta
// @Produce json
// @Success 200 {object} BuildResponse
// @Failure 404 {object} httpkit.Envelope "no build worker"
// @Router /meta/build [get]
func (d Deps) build(*http.Request) (any, error) {
	if d.Build != nil {
		if out, ok := d.Build(); ok {
			out.Build = version.Info()
			return out, nil
		}
	}
	return nil, perr.NotFoundf("build worker not mounted")
}
