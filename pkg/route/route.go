// Package route implements route declarations, hierarchy compilation, and
// path matching for the navigation engine.
//
// A tree of Declarations is compiled once, at engine construction, into an
// id-tagged route tree plus a flat, ordered map from merged path templates
// to root→node id hierarchies. Matching walks that map in declaration
// order; the first matching entry wins.
//
//	decls := []route.Declaration{
//	    {Match: "/users", Children: []route.Declaration{
//	        {Match: "/:id", View: userView},
//	    }},
//	    {Match: "*", View: notFoundView},
//	}
//
//	h, err := route.Compile(decls, nil)
//	m := h.Match("/users/42")
//	// m.Hierarchy = [usersID, userIdID], m.Params = {"id": "42"}
package route

import (
	"context"

	"github.com/wayfind-dev/wayfind/pkg/location"
	"github.com/wayfind-dev/wayfind/pkg/pathspec"
)

// ID uniquely identifies a compiled route node for the session.
// Ids are assigned once at compile time; preload and view state keyed by
// id survives re-navigation as long as the id stays in the hierarchy.
type ID string

// Params holds the named path parameters of a match.
type Params = pathspec.Params

// Declaration describes one node of the route tree.
//
// A node must carry a View, Children, or both. A node with Children is
// never itself a rendering leaf: its template must be extended by a child
// match to resolve to a renderable leaf, though it still participates in
// preloading (and may wrap child output with its own View).
type Declaration struct {
	// Match is the path template for this node, joined slash-aware onto
	// the parent's template. The sentinel "*" matches any path.
	Match string

	// View renders this node, wrapping the child's output. Optional for
	// nodes with children.
	View View

	// Children compose nested path templates under this node.
	Children []Declaration

	// Guards run strictly sequentially before the resolvers.
	Guards []Guard

	// ResolverGroups run sequentially across groups; resolvers within one
	// group run concurrently.
	ResolverGroups []ResolverGroup
}

// View produces the rendered output of a route. The child argument is the
// composed output of the next route down the hierarchy, or nil for the
// leaf. What "output" is belongs to the host view layer; the engine only
// threads it through.
type View func(vd ViewData, child any) any

// ViewData is everything a View receives from the engine.
type ViewData struct {
	Route    *Route
	Params   Params
	Location location.Location
	Resolved map[string]any
}

// Guard is an asynchronous access-control check. It may call nav.Redirect
// to steer the navigation elsewhere; returning an error marks the route's
// preload failed.
type Guard func(ctx context.Context, nav *Nav) error

// Resolver loads one named value for a route. The returned value is merged
// into the route's resolved data under the resolver's declared key.
type Resolver func(ctx context.Context, nav *Nav) (any, error)

// ResolverGroup is a set of named resolvers that run concurrently.
type ResolverGroup map[string]Resolver

// RedirectFunc steers the navigation to a new location. The search value
// follows location.EncodeSearch conventions.
type RedirectFunc func(pathname string, search any)

// Nav is the contract passed to guards and resolvers.
type Nav struct {
	// Route is the route being preloaded.
	Route *Route

	// Location is the location that triggered the preload.
	Location location.Location

	// Redirect steers the navigation elsewhere. Calling it marks the
	// current preload attempt as redirected.
	Redirect RedirectFunc
}

// Route is an id-tagged, template-merged route node.
type Route struct {
	ID             ID
	Match          string
	Template       string
	View           View
	Guards         []Guard
	ResolverGroups []ResolverGroup
	Children       []*Route
}

// NeedsPreload reports whether the route declares any guard or resolver.
// Routes without either are completed the instant they enter a hierarchy.
func (r *Route) NeedsPreload() bool {
	return len(r.Guards) > 0 || len(r.ResolverGroups) > 0
}

// Renderable reports whether the route contributes a view wrapper.
func (r *Route) Renderable() bool {
	return r.View != nil
}
