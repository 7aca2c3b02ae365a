package router

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/wayfind-dev/wayfind/internal/errors"
	"github.com/wayfind-dev/wayfind/pkg/location"
	"github.com/wayfind-dev/wayfind/pkg/preload"
	"github.com/wayfind-dev/wayfind/pkg/route"
)

// memorySource is a minimal in-process LocationSource for tests.
type memorySource struct {
	mu          sync.Mutex
	current     location.Location
	pushes      []location.Location
	subscribers map[int]func(location.Location)
	nextID      int
}

func newMemorySource(path string) *memorySource {
	return &memorySource{
		current:     location.Parse(path),
		subscribers: map[int]func(location.Location){},
	}
}

func (s *memorySource) Read() location.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *memorySource) Push(loc location.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = loc
	s.pushes = append(s.pushes, loc)
}

func (s *memorySource) Subscribe(onChange func(location.Location)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = onChange
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// emit simulates an external back/forward move.
func (s *memorySource) emit(path string) {
	s.mu.Lock()
	loc := location.Parse(path)
	s.current = loc
	subs := make([]func(location.Location), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(loc)
	}
}

func (s *memorySource) pushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pushes)
}

type recordingObserver struct {
	mu       sync.Mutex
	navs     []NavigationEvent
	preloads []PreloadEvent
}

func (o *recordingObserver) NavigationResolved(e NavigationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.navs = append(o.navs, e)
}

func (o *recordingObserver) PreloadFinished(e PreloadEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.preloads = append(o.preloads, e)
}

func view(vd route.ViewData, child any) any { return child }

func testHierarchy(t *testing.T) *route.Hierarchy {
	t.Helper()
	h, err := route.Compile([]route.Declaration{
		{Match: "/", View: view, Children: []route.Declaration{
			{Match: "/users", View: view, Children: []route.Declaration{
				{Match: "/:id", View: view},
			}},
			{Match: "/about", View: view},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return h
}

func newTestRouter(t *testing.T, path string) (*Router, *memorySource) {
	t.Helper()
	src := newMemorySource(path)
	r, err := New(testHierarchy(t), Config{Source: src})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(r.Close)
	return r, src
}

func TestNewRequiresSourceAndHierarchy(t *testing.T) {
	if _, err := New(testHierarchy(t), Config{}); err == nil {
		t.Error("missing source should be rejected")
	}
	if _, err := New(nil, Config{Source: newMemorySource("/")}); !stderrors.Is(err, errors.New("W501")) {
		t.Errorf("nil hierarchy error = %v, want W501", err)
	}
}

func TestNewDerivesInitialStateFromSource(t *testing.T) {
	r, _ := newTestRouter(t, "/users/42")

	if got := r.Location().Pathname; got != "/users/42" {
		t.Errorf("Pathname = %q, want /users/42", got)
	}
	if !r.Matched() {
		t.Fatal("initial location should match")
	}
	if got := r.Params()["id"]; got != "42" {
		t.Errorf("params id = %q, want 42", got)
	}
}

func TestChangeLocationMergesDelta(t *testing.T) {
	r, _ := newTestRouter(t, "/users/42?tab=posts")

	// Search-only delta keeps the pathname.
	st, err := r.ChangeLocation(Delta{Search: map[string]string{"tab": "likes"}})
	if err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	if st.Location.Pathname != "/users/42" {
		t.Errorf("Pathname = %q, pathname should be kept", st.Location.Pathname)
	}
	if st.Location.Search != "?tab=likes" {
		t.Errorf("Search = %q, want ?tab=likes", st.Location.Search)
	}

	// Pathname-only delta keeps the search.
	st, err = r.ChangeLocation(Delta{Pathname: "/about"})
	if err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	if st.Location.Pathname != "/about" || st.Location.Search != "?tab=likes" {
		t.Errorf("Location = %+v, search should be kept", st.Location)
	}
}

func TestChangeLocationCanonicalizes(t *testing.T) {
	r, _ := newTestRouter(t, "/")

	st, err := r.ChangeLocation(Delta{Pathname: "//users//42/"})
	if err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	if st.Location.Pathname != "/users/42" {
		t.Errorf("Pathname = %q, want /users/42", st.Location.Pathname)
	}

	if _, err := r.ChangeLocation(Delta{Pathname: "/../etc"}); !stderrors.Is(err, errors.New("W401")) {
		t.Errorf("error = %v, want W401", err)
	}
}

func TestChangeLocationRejectsBadSearch(t *testing.T) {
	r, _ := newTestRouter(t, "/")

	if _, err := r.ChangeLocation(Delta{Search: 42}); !stderrors.Is(err, errors.New("W402")) {
		t.Errorf("error = %v, want W402", err)
	}
}

func TestHistorySyncPushesOnce(t *testing.T) {
	r, src := newTestRouter(t, "/")

	before := src.pushCount()
	if _, err := r.ChangeLocation(Delta{Pathname: "/about"}); err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	if got := src.pushCount() - before; got != 1 {
		t.Errorf("pushes = %d, want 1", got)
	}

	// Navigating to the current location again must not stack a
	// duplicate history entry.
	before = src.pushCount()
	if _, err := r.ChangeLocation(Delta{Pathname: "/about"}); err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	if got := src.pushCount() - before; got != 0 {
		t.Errorf("pushes = %d, redundant navigation should not push", got)
	}
}

func TestExternalChangeDoesNotPush(t *testing.T) {
	r, src := newTestRouter(t, "/")

	before := src.pushCount()
	src.emit("/users/7")

	if got := src.pushCount() - before; got != 0 {
		t.Errorf("pushes = %d, external change must not push", got)
	}
	if got := r.Params()["id"]; got != "7" {
		t.Errorf("params id = %q, want 7", got)
	}
}

func TestCloseStopsSubscription(t *testing.T) {
	r, src := newTestRouter(t, "/")
	r.Close()

	src.emit("/about")
	if got := r.Location().Pathname; got != "/" {
		t.Errorf("Pathname = %q, closed router should ignore external changes", got)
	}
}

func TestStateCarryOverAcrossNavigations(t *testing.T) {
	r, _ := newTestRouter(t, "/users/42")

	st := r.Snapshot()
	rootID := st.Match.Hierarchy[0]
	leafID := st.Match.Hierarchy[len(st.Match.Hierarchy)-1]
	rootState, _ := r.RouteState(rootID)

	if _, err := r.ChangeLocation(Delta{Pathname: "/about"}); err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}

	after, ok := r.RouteState(rootID)
	if !ok {
		t.Fatal("shared root route should remain active")
	}
	if after != rootState {
		t.Error("surviving route should keep the same state value")
	}
	if _, ok := r.RouteState(leafID); ok {
		t.Error("departed leaf route state should be dropped")
	}
}

func TestStateCarryOverSharedPrefix(t *testing.T) {
	r, _ := newTestRouter(t, "/users/42")

	st := r.Snapshot()
	rootID := st.Match.Hierarchy[0]
	midID := st.Match.Hierarchy[1]
	leafID := st.Match.Hierarchy[2]
	midState, _ := r.RouteState(midID)

	// Moving to the container keeps the shared prefix alive and
	// drops only the departed leaf.
	if _, err := r.ChangeLocation(Delta{Pathname: "/users"}); err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}

	if _, ok := r.RouteState(rootID); !ok {
		t.Error("root route state should survive")
	}
	after, ok := r.RouteState(midID)
	if !ok {
		t.Fatal("shared mid-level route should remain active")
	}
	if after != midState {
		t.Error("surviving mid-level route should keep the same state value")
	}
	if _, ok := r.RouteState(leafID); ok {
		t.Error("departed leaf route state should be dropped")
	}
}

func TestCurrentRoutePanicsWithoutMatch(t *testing.T) {
	r, _ := newTestRouter(t, "/users/42")
	if _, err := r.ChangeLocation(Delta{Pathname: "/no/such/page"}); err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	if r.Matched() {
		t.Fatal("location should be unmatched")
	}

	defer func() {
		if recover() == nil {
			t.Error("CurrentRoute should panic when nothing matched")
		}
	}()
	r.CurrentRoute()
}

func TestCurrentRouteReturnsLeaf(t *testing.T) {
	r, _ := newTestRouter(t, "/users/42")

	rt := r.CurrentRoute()
	if rt.Match != "/:id" {
		t.Errorf("Match = %q, want /:id", rt.Match)
	}
	if rt.Template != "/users/:id" {
		t.Errorf("Template = %q, want /users/:id", rt.Template)
	}
}

func guardedHierarchy(t *testing.T, guards []route.Guard, groups []route.ResolverGroup) *route.Hierarchy {
	t.Helper()
	h, err := route.Compile([]route.Declaration{
		{Match: "/slow", View: view, Guards: guards, ResolverGroups: groups},
		{Match: "/login", View: view},
	}, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return h
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestEnsurePreloadCompletesState(t *testing.T) {
	h := guardedHierarchy(t, nil, []route.ResolverGroup{
		{"user": func(ctx context.Context, nav *route.Nav) (any, error) { return "alice", nil }},
	})
	src := newMemorySource("/slow")
	obs := &recordingObserver{}
	r, err := New(h, Config{Source: src, Observer: obs})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	id := r.Snapshot().Match.Hierarchy[0]
	if tok := r.EnsurePreload(id); tok == nil {
		t.Fatal("expected a preload to start")
	}

	waitFor(t, func() bool {
		st, ok := r.RouteState(id)
		return ok && st.Completed
	})

	st, _ := r.RouteState(id)
	if st.Resolved["user"] != "alice" {
		t.Errorf("resolved user = %v, want alice", st.Resolved["user"])
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.preloads) != 1 || obs.preloads[0].Outcome != OutcomeCompleted {
		t.Errorf("preload events = %+v, want one completed", obs.preloads)
	}
}

func TestEnsurePreloadDedupes(t *testing.T) {
	release := make(chan struct{})
	h := guardedHierarchy(t, nil, []route.ResolverGroup{
		{"x": func(ctx context.Context, nav *route.Nav) (any, error) {
			<-release
			return 1, nil
		}},
	})
	src := newMemorySource("/slow")
	r, err := New(h, Config{Source: src})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	id := r.Snapshot().Match.Hierarchy[0]
	first := r.EnsurePreload(id)
	second := r.EnsurePreload(id)
	if first == nil || second != first {
		t.Error("in-flight preload should be returned, not restarted")
	}
	close(release)

	waitFor(t, func() bool {
		st, _ := r.RouteState(id)
		return st != nil && st.Completed
	})

	// Completed state means a further call is a no-op.
	if tok := r.EnsurePreload(id); tok != nil {
		t.Error("completed route should not start another preload")
	}
}

func TestCancelPreloadSuppressesWrite(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	h := guardedHierarchy(t, nil, []route.ResolverGroup{
		{"x": func(ctx context.Context, nav *route.Nav) (any, error) {
			defer close(done)
			<-release
			return 1, nil
		}},
	})
	src := newMemorySource("/slow")
	obs := &recordingObserver{}
	r, err := New(h, Config{Source: src, Observer: obs})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	id := r.Snapshot().Match.Hierarchy[0]
	tok := r.EnsurePreload(id)
	r.CancelPreload(id)
	if !tok.Cancelled() {
		t.Error("token should be cancelled")
	}
	close(release)
	<-done

	waitFor(t, func() bool {
		obs.mu.Lock()
		defer obs.mu.Unlock()
		return len(obs.preloads) == 1
	})

	st, _ := r.RouteState(id)
	if st.Completed {
		t.Error("cancelled preload must not commit its result")
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.preloads[0].Outcome != OutcomeCancelled {
		t.Errorf("outcome = %q, want cancelled", obs.preloads[0].Outcome)
	}
}

func TestNavigationCancelsDepartedPreloads(t *testing.T) {
	release := make(chan struct{})
	h, err := route.Compile([]route.Declaration{
		{Match: "/slow", View: view, ResolverGroups: []route.ResolverGroup{
			{"x": func(ctx context.Context, nav *route.Nav) (any, error) {
				<-release
				return 1, nil
			}},
		}},
		{Match: "/about", View: view},
	}, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	src := newMemorySource("/slow")
	r, err := New(h, Config{Source: src})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	id := r.Snapshot().Match.Hierarchy[0]
	tok := r.EnsurePreload(id)

	if _, err := r.ChangeLocation(Delta{Pathname: "/about"}); err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	if !tok.Cancelled() {
		t.Error("preload for a departed route should be cancelled")
	}
	close(release)
}

func TestResolvePathEager(t *testing.T) {
	h := guardedHierarchy(t, nil, []route.ResolverGroup{
		{"n": func(ctx context.Context, nav *route.Nav) (any, error) { return 9, nil }},
	})
	src := newMemorySource("/slow")
	r, err := New(h, Config{Source: src})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	redirected, err := r.ResolvePath(context.Background())
	if err != nil {
		t.Fatalf("ResolvePath error: %v", err)
	}
	if redirected {
		t.Fatal("unexpected redirect")
	}

	id := r.Snapshot().Match.Hierarchy[0]
	st, _ := r.RouteState(id)
	if st == nil || !st.Completed || st.Resolved["n"] != 9 {
		t.Errorf("state = %+v, want completed with n=9", st)
	}
}

func TestResolvePathGuardRedirectNavigates(t *testing.T) {
	h := guardedHierarchy(t, []route.Guard{
		func(ctx context.Context, nav *route.Nav) error {
			nav.Redirect("/login", nil)
			return nil
		},
	}, nil)
	src := newMemorySource("/slow")
	r, err := New(h, Config{Source: src})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	redirected, err := r.ResolvePath(context.Background())
	if err != nil {
		t.Fatalf("ResolvePath error: %v", err)
	}
	if !redirected {
		t.Fatal("expected redirect")
	}
	if got := r.Location().Pathname; got != "/login" {
		t.Errorf("Pathname = %q, guard redirect should have navigated", got)
	}
}

func TestPrefetchSeedsNavigation(t *testing.T) {
	var calls int
	var mu sync.Mutex
	h := guardedHierarchy(t, nil, []route.ResolverGroup{
		{"data": func(ctx context.Context, nav *route.Nav) (any, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return "payload", nil
		}},
	})
	src := newMemorySource("/login")
	r, err := New(h, Config{Source: src})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	if !r.Prefetch("/slow") {
		t.Fatal("prefetch should be accepted")
	}
	waitFor(t, func() bool { return r.cache.Get("/slow") != nil })

	st, err := r.ChangeLocation(Delta{Pathname: "/slow"})
	if err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}

	id := st.Match.Hierarchy[0]
	rs := st.RouteStates[id]
	if rs == nil || !rs.Completed || rs.Resolved["data"] != "payload" {
		t.Errorf("state = %+v, navigation should be seeded from the prefetch", rs)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("resolver calls = %d, seeded navigation must not re-resolve", calls)
	}
}

func TestPrefetchUnmatchedOrInvalidPath(t *testing.T) {
	r, _ := newTestRouter(t, "/")

	if r.Prefetch("/bad\\path") {
		t.Error("invalid path should be dropped")
	}
	// Unmatched paths are accepted but produce no cache entry.
	if !r.Prefetch("/no/such/page") {
		t.Error("unmatched path is only discovered asynchronously")
	}
	time.Sleep(20 * time.Millisecond)
	if r.cache.Get("/no/such/page") != nil {
		t.Error("unmatched prefetch must not be cached")
	}
}

func TestPrefetchRateLimit(t *testing.T) {
	h := testHierarchy(t)
	src := newMemorySource("/")
	r, err := New(h, Config{Source: src, Preload: &preload.Config{
		TTL:         time.Minute,
		MaxEntries:  10,
		RateLimit:   1,
		Concurrency: 2,
	}})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	if !r.Prefetch("/about") {
		t.Error("first prefetch should pass the limiter")
	}
	if r.Prefetch("/users/1") {
		t.Error("second immediate prefetch should be rate limited")
	}
}

func TestObserverSeesNavigations(t *testing.T) {
	src := newMemorySource("/")
	obs := &recordingObserver{}
	r, err := New(testHierarchy(t), Config{Source: src, Observer: obs})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	if _, err := r.ChangeLocation(Delta{Pathname: "/about"}); err != nil {
		t.Fatalf("ChangeLocation error: %v", err)
	}
	src.emit("/")

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.navs) != 2 {
		t.Fatalf("navigation events = %d, want 2", len(obs.navs))
	}
	if obs.navs[0].External || !obs.navs[1].External {
		t.Errorf("external flags = %v/%v, want false/true", obs.navs[0].External, obs.navs[1].External)
	}
}
