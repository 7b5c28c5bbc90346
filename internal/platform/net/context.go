// Package net holds request scoped values shared by the HTTP layers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey uint8

const keyCaller ctxKey = iota

// RequestID returns the id chi's RequestID middleware assigned, if any
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithRequestID sets the request id the way chi's RequestID middleware does
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// WithCaller records the authenticated internal caller
func WithCaller(ctx context.Context, subject string) context.Context {
	if subject == "" {
		return ctx
	}
	return context.WithValue(ctx, keyCaller, subject)
}

// Caller returns the authenticated internal caller, empty for user requests
func Caller(ctx context.Context) string {
	s, _ := ctx.Value(keyCaller).(string)
	return s
}
