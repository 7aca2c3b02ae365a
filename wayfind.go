// Package wayfind is a client-side navigation engine: it compiles a
// declarative route tree, matches locations against it with
// deterministic declaration-order tie-breaking, runs guard and resolver
// pipelines before views mount, keeps the navigation state in sync with
// an external history source, and composes the matched hierarchy of
// views into a single output.
//
// The packages compose bottom-up and can be used separately; this
// package wires them into one engine:
//
//	engine, err := wayfind.New([]route.Declaration{
//	    {Match: "/", View: layout, Children: []route.Declaration{
//	        {Match: "/users/:id", View: userPage, ResolverGroups: ...},
//	    }},
//	})
//	if err != nil { ... }
//	defer engine.Close()
//
//	engine.Navigate("/users/42")
//	out, err := engine.Render()
package wayfind

import (
	"context"

	"github.com/wayfind-dev/wayfind/pkg/history"
	"github.com/wayfind-dev/wayfind/pkg/route"
	"github.com/wayfind-dev/wayfind/pkg/router"
	"github.com/wayfind-dev/wayfind/pkg/view"
)

// Engine ties the compiled route tree, the router, and the view composer
// together.
type Engine struct {
	hierarchy *route.Hierarchy
	router    *router.Router
	composer  *view.Composer
}

// New compiles the declarations and constructs the engine. The
// declaration set is validated eagerly; a route without a view or
// children, or with an uncompilable template, fails here rather than at
// first navigation. The set is immutable afterwards.
func New(decls []route.Declaration, opts ...Option) (*Engine, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.source == nil {
		cfg.source = history.NewMemory("/")
	}

	h, err := route.Compile(decls, cfg.compiler)
	if err != nil {
		return nil, err
	}

	r, err := router.New(h, router.Config{
		Source:   cfg.source,
		Logger:   cfg.logger,
		Observer: cfg.observer,
		Preload:  cfg.preload,
		Initial:  cfg.initial,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		hierarchy: h,
		router:    r,
		composer:  view.NewComposer(r, cfg.logger),
	}, nil
}

// Router exposes the underlying state store for direct use.
func (e *Engine) Router() *router.Router {
	return e.router
}

// Hierarchy exposes the compiled route set.
func (e *Engine) Hierarchy() *route.Hierarchy {
	return e.hierarchy
}

// Navigate changes the location to a path that may carry a query string.
func (e *Engine) Navigate(pathEtc string) (router.State, error) {
	return e.router.Navigate(pathEtc)
}

// ChangeLocation merges a partial location change into the current one.
func (e *Engine) ChangeLocation(delta router.Delta) (router.State, error) {
	return e.router.ChangeLocation(delta)
}

// ResolvePath runs the eager full-path preload of the current match,
// awaiting every guard and resolver before returning. Use it when the
// whole screen should appear at once instead of section by section.
func (e *Engine) ResolvePath(ctx context.Context) (redirected bool, err error) {
	return e.router.ResolvePath(ctx)
}

// Prefetch speculatively preloads a path, typically on hover intent.
func (e *Engine) Prefetch(path string) bool {
	return e.router.Prefetch(path)
}

// Render composes the current match into a single output value.
func (e *Engine) Render() (any, error) {
	return e.composer.Render()
}

// Close tears down the composition and the history subscription.
func (e *Engine) Close() {
	e.composer.Unmount()
	e.router.Close()
}
