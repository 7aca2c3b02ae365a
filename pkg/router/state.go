package router

import (
	"github.com/wayfind-dev/wayfind/pkg/location"
	"github.com/wayfind-dev/wayfind/pkg/preload"
	"github.com/wayfind-dev/wayfind/pkg/route"
)

// State is the authoritative router state: the canonical location, the
// current match, and the per-route preload states. It is reconstructed
// wholesale on every location change, never mutated in place.
type State struct {
	Location    location.Location
	Match       route.MatchResult
	RouteStates map[route.ID]*preload.State
}

// Delta describes a partial location change. Zero-valued fields keep the
// corresponding part of the current location.
type Delta struct {
	// Pathname is the new pathname; empty keeps the current one.
	Pathname string

	// Search is the new search value (raw string, map[string]string, or
	// url.Values, per location.EncodeSearch); nil keeps the current one.
	Search any
}

// ComputeState is the pure transition function: it rematches the new
// location against the hierarchy and rebuilds the route-state map.
//
// Entries whose id is still present in the new hierarchy are carried over
// unchanged — the same *State value — so in-flight or completed work for
// routes that remain active (a shared parent layout, say) is never
// discarded. Ids entering the hierarchy get a fresh initial state; ids
// leaving it are dropped.
func ComputeState(h *route.Hierarchy, loc location.Location, prev *State) State {
	match := h.Match(loc.Pathname)

	states := make(map[route.ID]*preload.State, len(match.Hierarchy))
	for _, id := range match.Hierarchy {
		if prev != nil {
			if st, ok := prev.RouteStates[id]; ok {
				states[id] = st
				continue
			}
		}
		states[id] = preload.NewState(h.RouteByID(id))
	}

	return State{
		Location:    loc,
		Match:       match,
		RouteStates: states,
	}
}

// withRouteState derives the next state from s with one route's preload
// state replaced. Ids no longer present are ignored.
func (s State) withRouteState(id route.ID, st *preload.State) State {
	if _, ok := s.RouteStates[id]; !ok {
		return s
	}
	next := State{
		Location:    s.Location,
		Match:       s.Match,
		RouteStates: make(map[route.ID]*preload.State, len(s.RouteStates)),
	}
	for k, v := range s.RouteStates {
		next.RouteStates[k] = v
	}
	next.RouteStates[id] = st
	return next
}
