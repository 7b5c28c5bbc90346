package httpkit

import (
	"net/http"
	"time"

	"sitebuilder/internal/platform/config"
	"sitebuilder/internal/platform/net/middleware"
)

// CommonStack is the API wide middleware, tuned by REQUEST_TIMEOUT,
// SLOW_REQUEST and CORS_ORIGINS under cfg
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return middleware.Stack(middleware.StackOptions{
		Timeout:        cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		Slow:           cfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
		AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
	})
}

// MountAPIV1 mounts the versioned API root with mw applied
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// Protected groups routes behind p. A nil p leaves them open
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(middleware.Auth(p))
		fn(g)
	})
}
