package route

import "github.com/wayfind-dev/wayfind/pkg/pathspec"

// MatchResult is the outcome of testing a pathname against the hierarchy
// map. An empty Hierarchy means no route was found; that is a reportable
// condition, not an error, so a catch-all or not-found state can render.
type MatchResult struct {
	// Hierarchy is the ordered root→leaf id list of the matched entry.
	Hierarchy []ID

	// Params holds the extracted path parameters; nil when the match
	// produced none (including the wildcard sentinel).
	Params Params
}

// Matched reports whether any route matched.
func (m MatchResult) Matched() bool {
	return len(m.Hierarchy) > 0
}

// Match finds the first hierarchy entry matching pathname.
//
// Entries are tried in declaration order; the wildcard sentinel matches
// unconditionally with no parameters. There is no backtracking across
// ambiguous templates and no error return: no match yields an empty
// hierarchy.
func (h *Hierarchy) Match(pathname string) MatchResult {
	for i := range h.entries {
		e := &h.entries[i]
		if e.Template == pathspec.Wildcard {
			return MatchResult{Hierarchy: e.IDs}
		}
		if params, ok := e.matcher.Exec(pathname); ok {
			return MatchResult{Hierarchy: e.IDs, Params: params}
		}
	}
	return MatchResult{}
}
