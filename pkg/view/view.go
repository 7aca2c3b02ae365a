// Package view composes the matched route hierarchy into a single
// renderable value. Each route's view wraps its child's output, leaf to
// root, so the root layout ends up outermost.
package view

import (
	"log/slog"
	"sync"

	"github.com/wayfind-dev/wayfind/pkg/route"
	"github.com/wayfind-dev/wayfind/pkg/router"
)

// Composer renders the current match. It tracks which route ids are
// mounted between renders: newly mounted routes get their incremental
// preload started, and routes that left the hierarchy get it cancelled.
type Composer struct {
	router *router.Router
	logger *slog.Logger

	mu      sync.Mutex
	mounted map[route.ID]struct{}
}

// NewComposer creates a composer bound to a router.
func NewComposer(r *router.Router, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		router:  r,
		logger:  logger,
		mounted: make(map[route.ID]struct{}),
	}
}

// Render composes the current match into a single output value.
//
// An unmatched location renders nil without error; the caller decides
// what a not-found screen looks like. A hierarchy that cannot be
// resolved against the route tree is an internal inconsistency and is
// returned as an error.
func (c *Composer) Render() (any, error) {
	snap := c.router.Snapshot()
	if !snap.Match.Matched() {
		c.reconcile(nil)
		c.logger.Debug("render skipped", "location", snap.Location.String(), "reason", "no match")
		return nil, nil
	}

	routes, err := c.router.Hierarchy().Resolve(snap.Match.Hierarchy)
	if err != nil {
		return nil, err
	}

	c.reconcile(snap.Match.Hierarchy)

	// Leaf first, so each parent receives its child's output.
	var child any
	for i := len(routes) - 1; i >= 0; i-- {
		rt := routes[i]
		if !rt.Renderable() {
			continue
		}

		vd := route.ViewData{
			Route:    rt,
			Params:   snap.Match.Params,
			Location: snap.Location,
		}
		if st, ok := snap.RouteStates[rt.ID]; ok {
			vd.Resolved = st.Resolved
		}
		child = rt.View(vd, child)
	}
	return child, nil
}

// reconcile updates the mounted set against the active hierarchy:
// departed ids have their preloads cancelled, arrived ids have them
// started.
func (c *Composer) reconcile(active []route.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[route.ID]struct{}, len(active))
	for _, id := range active {
		next[id] = struct{}{}
	}

	for id := range c.mounted {
		if _, ok := next[id]; !ok {
			c.router.CancelPreload(id)
		}
	}
	for _, id := range active {
		if _, ok := c.mounted[id]; !ok {
			c.router.EnsurePreload(id)
		}
	}
	c.mounted = next
}

// Unmount tears the composition down, cancelling any preloads still in
// flight.
func (c *Composer) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.mounted {
		c.router.CancelPreload(id)
	}
	c.mounted = make(map[route.ID]struct{})
}
