// Package middleware assembles the HTTP middleware every API route runs behind
package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// StackOptions tunes Stack; zero values pick the defaults
type StackOptions struct {
	// Timeout cancels a request context, 30s by default
	Timeout time.Duration
	// Slow logs requests at warn level from this duration, 0 never
	Slow time.Duration
	// AllowedOrigins for CORS, every origin when empty
	AllowedOrigins []string
}

// Stack returns the ordered middleware for API routes
func Stack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.RealIP,
		RecoverJSON,
		chimw.NoCache,
		AccessLog(o.Slow),
		CORS(o.AllowedOrigins),
		chimw.NewCompressor(flate.BestSpeed).Handler,
		chimw.StripSlashes,
		chimw.Timeout(o.Timeout),
	}
}

// CORS allows the browser admin to read build progress cross origin
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Internal-Auth"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}
