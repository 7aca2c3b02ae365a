package route

import (
	"github.com/google/uuid"

	"github.com/wayfind-dev/wayfind/internal/errors"
	"github.com/wayfind-dev/wayfind/pkg/pathspec"
)

// Entry is one row of the compiled hierarchy map: a fully merged path
// template pointing at the ordered root→node id list that produces it.
type Entry struct {
	// Template is the merged path template for the node.
	Template string

	// IDs is the hierarchy prefix from the root to the node.
	IDs []ID

	// Leaf reports whether the node has no children. Non-leaf entries
	// still match directly, for preloading purposes, even though the node
	// has no standalone renderable path.
	Leaf bool

	matcher pathspec.Matcher
}

// Hierarchy is the compiled route set: the id-tagged tree plus the flat,
// ordered template map. It is immutable after Compile.
type Hierarchy struct {
	roots   []*Route
	entries []Entry
	byID    map[ID]*Route
}

// Compile converts declared routes into a Hierarchy.
//
// Every node is validated (a node with neither view nor children is
// rejected), tagged with a collision-resistant id, and recorded in the
// entry list at its merged template. Entry order equals declaration
// traversal order, which is the match tie-break rule: first declared,
// first tried.
//
// A nil compile falls back to the default segment-based compiler.
func Compile(decls []Declaration, compile pathspec.Compiler) (*Hierarchy, error) {
	if len(decls) == 0 {
		return nil, errors.New("W501")
	}

	h := &Hierarchy{
		byID: make(map[ID]*Route),
	}
	cache := pathspec.NewCache(compile)

	for i := range decls {
		root, err := h.build(&decls[i], "", nil, cache)
		if err != nil {
			return nil, err
		}
		h.roots = append(h.roots, root)
	}
	return h, nil
}

// build tags one declaration node, records its entry, and recurses.
func (h *Hierarchy) build(decl *Declaration, parentTemplate string, prefix []ID, cache *pathspec.Cache) (*Route, error) {
	if decl.View == nil && len(decl.Children) == 0 {
		return nil, errors.New("W101").WithDetail("template %q", pathspec.Join(parentTemplate, decl.Match))
	}

	template := pathspec.Join(parentTemplate, decl.Match)
	r := &Route{
		ID:             ID(uuid.NewString()),
		Match:          decl.Match,
		Template:       template,
		View:           decl.View,
		Guards:         decl.Guards,
		ResolverGroups: decl.ResolverGroups,
	}
	h.byID[r.ID] = r

	ids := make([]ID, len(prefix), len(prefix)+1)
	copy(ids, prefix)
	ids = append(ids, r.ID)

	entry := Entry{
		Template: template,
		IDs:      ids,
		Leaf:     len(decl.Children) == 0,
	}
	if template != pathspec.Wildcard {
		m, err := cache.Get(template)
		if err != nil {
			return nil, err
		}
		entry.matcher = m
	}
	h.entries = append(h.entries, entry)

	for i := range decl.Children {
		child, err := h.build(&decl.Children[i], template, ids, cache)
		if err != nil {
			return nil, err
		}
		r.Children = append(r.Children, child)
	}
	return r, nil
}

// Roots returns the top-level routes in declaration order.
func (h *Hierarchy) Roots() []*Route {
	return h.roots
}

// Entries returns the hierarchy map rows in declaration traversal order.
func (h *Hierarchy) Entries() []Entry {
	return h.entries
}

// RouteByID returns the route tagged with id, or nil.
func (h *Hierarchy) RouteByID(id ID) *Route {
	return h.byID[id]
}

// Resolve maps a matched id hierarchy back onto the route tree, checking
// alignment at every level. A sequence that does not descend the tree
// indicates a hierarchy compilation bug and fails with the offending id.
func (h *Hierarchy) Resolve(ids []ID) ([]*Route, error) {
	routes := make([]*Route, 0, len(ids))
	level := h.roots

	for _, id := range ids {
		var found *Route
		for _, r := range level {
			if r.ID == id {
				found = r
				break
			}
		}
		if found == nil {
			return nil, errors.New("W202").WithDetail("id %s has no matching node at depth %d", id, len(routes))
		}
		routes = append(routes, found)
		level = found.Children
	}
	return routes, nil
}
