package middleware

import (
	"net/http"

	pnet "sitebuilder/internal/platform/net"
	phttp "sitebuilder/internal/platform/net/http"
)

// AuthPort authenticates a request and names the caller
type AuthPort interface {
	Authenticate(r *http.Request) (subject string, err error)
}

// Auth rejects requests p does not authenticate and records the caller on
// the context. A nil port lets everything through
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := p.Authenticate(r)
			if err != nil {
				phttp.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithCaller(r.Context(), subject)))
		})
	}
}
