// Package httpkit is the handler and routing vocabulary modules use instead of
// importing the platform http package
package httpkit

import (
	"net/http"

	phttp "sitebuilder/internal/platform/net/http"
)

type (
	Router   = phttp.Router
	Handler  = phttp.Handler
	Response = phttp.Response
	Envelope = phttp.Envelope
)

func OK(data any) Response { return phttp.OK(data) }

func Accepted(data any) Response { return phttp.Accepted(data) }

func Error(err error) Response { return phttp.Error(err) }

func Param(r *http.Request, name string) string { return phttp.Param(r, name) }

// Call adapts fn: an error becomes an error envelope, a Response is written
// as is and any other value is wrapped in a 200
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}

func Get(r Router, path string, fn func(*http.Request) (any, error)) { r.Get(path, Call(fn)) }

func Post(r Router, path string, fn func(*http.Request) (any, error)) { r.Post(path, Call(fn)) }
