// Package modkit is how API modules are built from shared dependencies and
// mounted onto the router
package modkit

import (
	"net/http"

	"sitebuilder/internal/modkit/module"
	"sitebuilder/internal/platform/config"
	"sitebuilder/internal/platform/logger"
	phttp "sitebuilder/internal/platform/net/http"
	"sitebuilder/internal/platform/store"
)

// Deps are the shared dependencies handed to every module. PG and CH are nil
// when the backing store is not configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
}

// Module is the contract mounted by the API
type Module = module.Module

// Option configures a module build
type Option func(*Built)

// Built is the resolved module configuration
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
}

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// WithName names the module in logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the route prefix the module mounts under
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends module scoped middleware
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts injects ports another module exposes
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Mount mounts register under b.Prefix with b's middleware applied
func (b Built) Mount(r phttp.Router, register func(phttp.Router)) {
	scoped := func(rr phttp.Router) {
		if len(b.Mw) > 0 {
			rr.Use(b.Mw...)
		}
		register(rr)
	}
	if b.Prefix == "" || b.Prefix == "/" {
		r.Group(scoped)
		return
	}
	r.Route(b.Prefix, scoped)
}
