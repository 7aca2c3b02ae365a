// Package router implements the navigation state store: the canonical
// location, the current match, per-route preload states, and their
// synchronization with an external history source.
//
// All transitions flow through one pure function (ComputeState) applied
// under the store lock against the latest state, so concurrent preload
// completions compose via read-modify-write rather than stale snapshots.
// State values are never mutated in place.
package router

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wayfind-dev/wayfind/internal/errors"
	"github.com/wayfind-dev/wayfind/pkg/location"
	"github.com/wayfind-dev/wayfind/pkg/pathspec"
	"github.com/wayfind-dev/wayfind/pkg/preload"
	"github.com/wayfind-dev/wayfind/pkg/route"
)

// LocationSource is the external history collaborator. The router never
// reads ambient global state; everything goes through this interface.
type LocationSource interface {
	// Read returns the externally observed location.
	Read() location.Location

	// Push records a new history entry.
	Push(loc location.Location)

	// Subscribe registers a callback for external navigations
	// (back/forward). The returned function removes the subscription.
	Subscribe(onChange func(location.Location)) (unsubscribe func())
}

// Config configures a Router.
type Config struct {
	// Source is the history collaborator. Required.
	Source LocationSource

	// Logger receives debug and error logs. Defaults to slog.Default.
	Logger *slog.Logger

	// Observer receives navigation and preload events. Optional.
	Observer Observer

	// Preload configures the speculative preload cache and its limits.
	// Defaults to preload.DefaultConfig.
	Preload *preload.Config

	// Initial resumes the router from an externally computed state
	// instead of deriving one from Source.Read().
	Initial *State
}

// Router owns the authoritative navigation state and its transitions.
type Router struct {
	hierarchy *route.Hierarchy
	source    LocationSource
	logger    *slog.Logger
	observer  Observer

	runner     *preload.Runner // guard redirects feed back into ChangeLocation
	speculator *preload.Runner // prefetch runner; its redirects are inert
	cache      *preload.Cache
	limiter    *preload.RateLimiter
	sem        *preload.Semaphore

	mu          sync.Mutex
	state       State
	tokens      map[route.ID]*preload.Token
	unsubscribe func()
}

// New constructs a Router over a compiled hierarchy. The route set is
// immutable for the router's lifetime; build a new router to change it.
func New(h *route.Hierarchy, cfg Config) (*Router, error) {
	if h == nil {
		return nil, errors.New("W501")
	}
	if cfg.Source == nil {
		return nil, errors.Newf(errors.CategoryConfig, "router requires a location source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	pcfg := cfg.Preload
	if pcfg == nil {
		pcfg = preload.DefaultConfig()
	}

	r := &Router{
		hierarchy: h,
		source:    cfg.Source,
		logger:    logger,
		observer:  observer,
		cache:     preload.NewCache(pcfg),
		limiter:   preload.NewRateLimiter(pcfg.RateLimit),
		sem:       preload.NewSemaphore(pcfg.Concurrency),
		tokens:    make(map[route.ID]*preload.Token),
	}
	r.runner = preload.NewRunner(r.redirect, logger)
	r.speculator = preload.NewRunner(nil, logger)

	if cfg.Initial != nil {
		r.state = *cfg.Initial
	} else {
		r.state = ComputeState(h, cfg.Source.Read(), nil)
	}

	r.resubscribe()
	r.syncHistory(r.state.Location)
	return r, nil
}

// resubscribe (re-)establishes the back/forward subscription. The
// previous subscription is removed first to avoid duplicate delivery; on
// the very first subscription there is nothing to remove.
func (r *Router) resubscribe() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.unsubscribe = r.source.Subscribe(r.onExternalChange)
}

// Close removes the history subscription.
func (r *Router) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// ChangeLocation merges the delta into the current location and runs the
// transition. The new location is pushed to the history source unless it
// already matches the externally observed one.
func (r *Router) ChangeLocation(delta Delta) (State, error) {
	r.mu.Lock()
	cur := r.state.Location
	r.mu.Unlock()

	pathname := cur.Pathname
	search := cur.Search

	if delta.Pathname != "" {
		p, q, _, err := pathspec.Canonicalize(delta.Pathname)
		if err != nil {
			return State{}, err
		}
		pathname = p
		// A query embedded in the pathname only wins when no explicit
		// search was supplied.
		if q != "" && delta.Search == nil {
			search = "?" + q
		}
	}
	if delta.Search != nil {
		s, err := location.EncodeSearch(delta.Search)
		if err != nil {
			return State{}, err
		}
		search = s
	}

	return r.transition(location.Location{Pathname: pathname, Search: search}, false), nil
}

// Navigate is shorthand for ChangeLocation with a path that may carry a
// query string.
func (r *Router) Navigate(pathEtc string) (State, error) {
	return r.ChangeLocation(Delta{Pathname: pathEtc})
}

// redirect is the RedirectFunc handed to guards.
func (r *Router) redirect(pathname string, search any) {
	if _, err := r.ChangeLocation(Delta{Pathname: pathname, Search: search}); err != nil {
		r.logger.Error("redirect failed", "path", pathname, "error", err)
	}
}

// onExternalChange handles back/forward notifications. The source
// already moved, so this path never pushes.
func (r *Router) onExternalChange(loc location.Location) {
	r.transition(loc, true)
}

// transition applies the state transition for a new location.
func (r *Router) transition(loc location.Location, external bool) State {
	start := time.Now()

	r.mu.Lock()
	prev := r.state
	next := ComputeState(r.hierarchy, loc, &prev)
	r.seedFromCache(&next)
	r.state = next

	// Preloads for ids that left the hierarchy are abandoned.
	for id, tok := range r.tokens {
		if _, ok := next.RouteStates[id]; !ok {
			tok.Cancel()
			delete(r.tokens, id)
		}
	}
	r.mu.Unlock()

	if !external {
		r.syncHistory(loc)
	}

	r.logger.Debug("navigation resolved",
		"location", loc.String(),
		"matched", next.Match.Matched(),
		"depth", len(next.Match.Hierarchy),
		"external", external)
	r.observer.NavigationResolved(NavigationEvent{
		Location: loc,
		Matched:  next.Match.Matched(),
		External: external,
		Duration: time.Since(start),
	})
	return next
}

// seedFromCache fills not-yet-completed route states from a fresh
// speculative preload result, if one exists for the pathname.
// Caller holds r.mu.
func (r *Router) seedFromCache(next *State) {
	entry := r.cache.Get(next.Location.Pathname)
	if entry == nil {
		return
	}
	for id, st := range entry.States {
		if existing, ok := next.RouteStates[id]; ok && !existing.Completed {
			next.RouteStates[id] = st
		}
	}
}

// syncHistory pushes the canonical location when it differs from the
// externally observed one, so idempotent updates never stack duplicate
// history entries.
func (r *Router) syncHistory(loc location.Location) {
	if r.source.Read().Equal(loc) {
		return
	}
	r.source.Push(loc)
	r.logger.Debug("history push", "location", loc.String())
}

// ResolvePath performs the eager full-path preload of the current match:
// each route's guard and resolver chain is awaited before the next route
// starts, root to leaf. A guard redirect stops the walk and reports
// redirected=true; no route states are committed in that case.
func (r *Router) ResolvePath(ctx context.Context) (redirected bool, err error) {
	r.mu.Lock()
	ids := r.state.Match.Hierarchy
	loc := r.state.Location
	r.mu.Unlock()

	routes, err := r.hierarchy.Resolve(ids)
	if err != nil {
		return false, err
	}

	start := time.Now()
	states, redirected, err := r.runner.RunPath(ctx, routes, loc)
	if err != nil {
		return false, err
	}
	if redirected {
		return true, nil
	}

	r.mu.Lock()
	next := r.state
	for id, st := range states {
		next = next.withRouteState(id, st)
	}
	r.state = next
	r.mu.Unlock()

	for id := range states {
		r.observer.PreloadFinished(PreloadEvent{
			RouteID:  id,
			Template: r.hierarchy.RouteByID(id).Template,
			Outcome:  OutcomeCompleted,
			Duration: time.Since(start),
		})
	}
	return false, nil
}

// EnsurePreload starts the incremental preload for one route id, if it
// is active and not already completed or in flight. The returned token
// cancels the attempt; a nil token means there was nothing to start.
//
// Cancellation suppresses the eventual state write but does not abort
// the underlying guard or resolver calls.
func (r *Router) EnsurePreload(id route.ID) *preload.Token {
	r.mu.Lock()
	st, active := r.state.RouteStates[id]
	if !active || st.Completed {
		r.mu.Unlock()
		return nil
	}
	if tok, ok := r.tokens[id]; ok {
		r.mu.Unlock()
		return tok
	}
	tok := preload.NewToken()
	r.tokens[id] = tok
	loc := r.state.Location
	r.mu.Unlock()

	go r.runPreload(id, loc, tok)
	return tok
}

// CancelPreload cancels an in-flight incremental preload, typically when
// the owning view is torn down before completion.
func (r *Router) CancelPreload(id route.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.tokens[id]; ok {
		tok.Cancel()
		delete(r.tokens, id)
	}
}

// runPreload executes one route's pipeline and commits the result under
// the store lock, unless the token was cancelled meanwhile.
func (r *Router) runPreload(id route.ID, loc location.Location, tok *preload.Token) {
	rt := r.hierarchy.RouteByID(id)
	start := time.Now()

	result, err := r.runner.Run(context.Background(), rt, loc)

	outcome := OutcomeCompleted
	switch {
	case tok.Cancelled():
		outcome = OutcomeCancelled
	case err != nil:
		outcome = OutcomeFailed
	case result.Redirected:
		outcome = OutcomeRedirected
	}

	r.mu.Lock()
	if cur, ok := r.tokens[id]; ok && cur == tok {
		delete(r.tokens, id)
	}
	if !tok.Cancelled() {
		switch {
		case err != nil:
			// Left non-completed and non-loading; not retried
			// automatically.
			r.state = r.state.withRouteState(id, &preload.State{Resolved: map[string]any{}})
		case !result.Redirected:
			r.state = r.state.withRouteState(id, &preload.State{
				Resolved:  result.Resolved,
				Completed: true,
			})
		}
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("preload failed", "route", rt.Template, "error", err)
	}
	r.observer.PreloadFinished(PreloadEvent{
		RouteID:  id,
		Template: rt.Template,
		Outcome:  outcome,
		Duration: time.Since(start),
	})
}

// Prefetch speculatively preloads a path into the cache, so a later
// navigation to it can seed already-completed states. Requests beyond
// the rate or concurrency limits are silently dropped. Guard redirects
// during a prefetch are inert and simply void the cache entry.
//
// Returns false when the request was dropped.
func (r *Router) Prefetch(path string) bool {
	p, q, _, err := pathspec.Canonicalize(path)
	if err != nil {
		return false
	}
	if !r.limiter.Allow() {
		return false
	}
	if !r.sem.Acquire() {
		return false
	}

	go func() {
		defer r.sem.Release()

		match := r.hierarchy.Match(p)
		if !match.Matched() {
			return
		}
		routes, err := r.hierarchy.Resolve(match.Hierarchy)
		if err != nil {
			r.logger.Error("prefetch resolve failed", "path", p, "error", err)
			return
		}

		loc := location.Location{Pathname: p}
		if q != "" {
			loc.Search = "?" + q
		}

		states, redirected, err := r.speculator.RunPath(context.Background(), routes, loc)
		if err != nil || redirected {
			return
		}
		r.cache.Set(p, states)
		r.logger.Debug("prefetch cached", "path", p, "routes", len(states))
	}()
	return true
}

// =============================================================================
// Read API
// =============================================================================

// Snapshot returns a copy of the current state. The route-state map is
// copied; the *preload.State values are shared, matching carry-over
// semantics.
func (r *Router) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[route.ID]*preload.State, len(r.state.RouteStates))
	for k, v := range r.state.RouteStates {
		states[k] = v
	}
	return State{
		Location:    r.state.Location,
		Match:       r.state.Match,
		RouteStates: states,
	}
}

// Location returns the canonical current location.
func (r *Router) Location() location.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Location
}

// Params returns the current match's path parameters.
func (r *Router) Params() route.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Match.Params
}

// Matched reports whether the current location matched any route.
func (r *Router) Matched() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Match.Matched()
}

// CurrentRoute returns the leaf route of the current match. Calling it
// when no route matched is a programming error and panics; check Matched
// first.
func (r *Router) CurrentRoute() *route.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Match.Matched() {
		panic(errors.New("W203").Error())
	}
	leaf := r.state.Match.Hierarchy[len(r.state.Match.Hierarchy)-1]
	return r.hierarchy.RouteByID(leaf)
}

// RouteState returns the preload state for a route id, if it is active.
func (r *Router) RouteState(id route.ID) (*preload.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.state.RouteStates[id]
	return st, ok
}

// Hierarchy returns the compiled route set.
func (r *Router) Hierarchy() *route.Hierarchy {
	return r.hierarchy
}
