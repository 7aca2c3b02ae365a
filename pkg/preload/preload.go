// Package preload runs the per-route guard and resolver pipeline.
//
// Each route moves through Idle → Loading → Completed, with an orthogonal
// cancellation token that suppresses state writes after cancellation.
// Cancellation never aborts in-flight guard or resolver calls; they run to
// completion and their results are discarded.
//
// Guards run strictly sequentially in declaration order. Resolver groups
// run sequentially across groups; within one group every named resolver
// runs concurrently and its result is merged under its declared key, later
// groups overwriting earlier ones.
package preload

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wayfind-dev/wayfind/internal/errors"
	"github.com/wayfind-dev/wayfind/pkg/location"
	"github.com/wayfind-dev/wayfind/pkg/route"
)

// State is the preload state of one route id. States are created when the
// id enters the active hierarchy, retained while it remains there, and
// discarded when it leaves.
type State struct {
	Loading   bool
	Resolved  map[string]any
	Completed bool
}

// NewState returns the initial state for a route entering the hierarchy.
// A route with no guards and no resolver groups is completed immediately
// with empty resolved data.
func NewState(rt *route.Route) *State {
	if !rt.NeedsPreload() {
		return &State{Completed: true, Resolved: map[string]any{}}
	}
	return &State{Loading: true, Resolved: map[string]any{}}
}

// Token is an explicit cancellation token for one preload attempt. It is
// checked before each state-mutating step; in-flight calls are allowed to
// finish, their results are simply discarded.
type Token struct {
	mu        sync.Mutex
	cancelled bool
}

// NewToken creates a live token.
func NewToken() *Token {
	return &Token{}
}

// Cancel marks the token cancelled. Idempotent.
func (t *Token) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

// Cancelled reports whether the token has been cancelled.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Result is the outcome of one route's preload attempt.
type Result struct {
	// Resolved holds the merged resolver outputs.
	Resolved map[string]any

	// Redirected reports that a guard steered the navigation elsewhere.
	// Resolvers are skipped and no state should be committed.
	Redirected bool
}

// Runner executes guard/resolver chains. The redirect function is the
// engine's location changer; guards reach it through Nav.Redirect.
type Runner struct {
	redirect route.RedirectFunc
	logger   *slog.Logger
}

// NewRunner creates a runner. A nil logger falls back to slog.Default.
func NewRunner(redirect route.RedirectFunc, logger *slog.Logger) *Runner {
	if redirect == nil {
		redirect = func(string, any) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{redirect: redirect, logger: logger}
}

// Run executes the full guard+resolver chain for one route.
//
// Guards after one that redirected still run to completion; only the
// resolver phase is skipped once a redirect occurred. This mirrors the
// engine's documented redirect policy: the guard chain is never
// short-circuited, the walk stops at route boundaries.
func (r *Runner) Run(ctx context.Context, rt *route.Route, loc location.Location) (*Result, error) {
	if !rt.NeedsPreload() {
		return &Result{Resolved: map[string]any{}}, nil
	}

	var mu sync.Mutex
	redirected := false

	nav := &route.Nav{
		Route:    rt,
		Location: loc,
		Redirect: func(pathname string, search any) {
			mu.Lock()
			redirected = true
			mu.Unlock()
			r.redirect(pathname, search)
		},
	}

	for i, guard := range rt.Guards {
		if err := guard(ctx, nav); err != nil {
			return nil, errors.New("W301").WithDetail("guard %d of route %q", i, rt.Template).Wrap(err)
		}
	}

	mu.Lock()
	wasRedirected := redirected
	mu.Unlock()
	if wasRedirected {
		r.logger.Debug("preload redirected", "route", rt.Template)
		return &Result{Redirected: true}, nil
	}

	resolved := make(map[string]any)
	for gi, group := range rt.ResolverGroups {
		var wg sync.WaitGroup
		var groupErr error

		for key, resolver := range group {
			wg.Add(1)
			go func(key string, resolver route.Resolver) {
				defer wg.Done()
				value, err := resolver(ctx, nav)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if groupErr == nil {
						groupErr = errors.New("W302").WithDetail("resolver %q in group %d of route %q", key, gi, rt.Template).Wrap(err)
					}
					return
				}
				resolved[key] = value
			}(key, resolver)
		}
		wg.Wait()

		if groupErr != nil {
			// A failed resolver blocks the whole route; no partial data.
			return nil, groupErr
		}
	}

	return &Result{Resolved: resolved}, nil
}

// RunPath performs the eager full-path preload: routes are awaited one at
// a time, root→leaf. A redirect during any route's guard phase stops the
// walk immediately; deeper routes are never started and no states are
// returned, only the redirected signal.
func (r *Runner) RunPath(ctx context.Context, routes []*route.Route, loc location.Location) (map[route.ID]*State, bool, error) {
	states := make(map[route.ID]*State, len(routes))

	for _, rt := range routes {
		result, err := r.Run(ctx, rt, loc)
		if err != nil {
			return nil, false, err
		}
		if result.Redirected {
			return nil, true, nil
		}
		states[rt.ID] = &State{Resolved: result.Resolved, Completed: true}
	}
	return states, false, nil
}
