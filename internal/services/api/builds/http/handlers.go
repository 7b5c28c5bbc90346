// Package http provides http transport for content builds
package http

import (
	stdhttp "net/http"

	"sitebuilder/internal/core/lifecycle"
	"sitebuilder/internal/modkit/httpkit"
	"sitebuilder/internal/platform/net/middleware"
	"sitebuilder/internal/platform/sysauth"
	svc "sitebuilder/internal/services/api/builds/service"
)

// Register mounts the build routes. verifier may be nil, in which case any
// X-Internal-Auth header is rejected and artifacts are served unauthenticated
func Register(r httpkit.Router, s svc.Service, verifier *sysauth.Verifier) {
	h := &handlers{svc: s, verifier: verifier}
	httpkit.Post(r, "/sites/{siteID}/generate-content", h.generate)
	httpkit.Get(r, "/sites/{siteID}/build-progress", h.progress)

	var port middleware.AuthPort
	if verifier != nil {
		port = verifier
	}
	httpkit.Protected(r, port, func(pr httpkit.Router) {
		httpkit.Get(pr, "/sites/{siteID}/artifacts", h.artifacts)
	})
}

type handlers struct {
	svc      svc.Service
	verifier *sysauth.Verifier
}

// trigger is system when a valid internal token is present, user when the
// header is absent, and an error when the header is present but invalid
func (h *handlers) trigger(r *stdhttp.Request) (lifecycle.Trigger, error) {
	if !sysauth.Present(r) {
		return lifecycle.TriggerUser, nil
	}
	if _, err := h.verifier.Authenticate(r); err != nil {
		return "", err
	}
	return lifecycle.TriggerSystem, nil
}

// swagger:route POST /sites/{siteID}/generate-content Builds generate
// @Summary Start a content build
// @Description Plans the build, records initial progress and returns while generation runs in the background
// @Tags builds
// @Produce json
// @Param siteID path string true "Site id"
// @Param X-Internal-Auth header string false "Internal token marking a system trigger"
// @Success 202 {object} domain.StartResult "started"
// @Failure 400 {object} httpkit.Envelope "missing location or primary category"
// @Failure 401 {object} httpkit.Envelope "invalid internal token"
// @Failure 404 {object} httpkit.Envelope "site not found"
// @Failure 409 {object} httpkit.Envelope "build already in progress"
// @Router /sites/{siteID}/generate-content [post]
func (h *handlers) generate(r *stdhttp.Request) (any, error) {
	trig, err := h.trigger(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Start(r.Context(), httpkit.Param(r, "siteID"), trig)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(out), nil
}

// swagger:route GET /sites/{siteID}/build-progress Builds progress
// @Summary Build progress
// @Tags builds
// @Produce json
// @Param siteID path string true "Site id"
// @Success 200 {object} domain.ProgressView "ok"
// @Failure 404 {object} httpkit.Envelope "site not found"
// @Router /sites/{siteID}/build-progress [get]
func (h *handlers) progress(r *stdhttp.Request) (any, error) {
	return h.svc.Progress(r.Context(), httpkit.Param(r, "siteID"))
}

// swagger:route GET /sites/{siteID}/artifacts Builds artifacts
// @Summary Generated content index
// @Tags builds
// @Produce json
// @Security InternalAuth
// @Param siteID path string true "Site id"
// @Success 200 {object} domain.ArtifactsView "ok"
// @Failure 401 {object} httpkit.Envelope "invalid internal token"
// @Failure 404 {object} httpkit.Envelope "site not found"
// @Router /sites/{siteID}/artifacts [get]
func (h *handlers) artifacts(r *stdhttp.Request) (any, error) {
	return h.svc.Artifacts(r.Context(), httpkit.Param(r, "siteID"))
}
