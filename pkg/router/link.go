package router

import (
	"strings"

	"github.com/wayfind-dev/wayfind/pkg/pathspec"
)

// ClickEvent carries the modifier state of an anchor click, as reported
// by the host environment.
type ClickEvent struct {
	MetaKey  bool
	CtrlKey  bool
	ShiftKey bool
	AltKey   bool

	// Button is the mouse button: 0 primary, 1 middle, 2 secondary.
	Button int
}

// modified reports whether the click asked for browser-default handling
// (new tab, new window, download).
func (e ClickEvent) modified() bool {
	return e.MetaKey || e.CtrlKey || e.ShiftKey || e.AltKey || e.Button != 0
}

// HandleClick implements the link affordance: it decides whether a click
// on an anchor should be intercepted as a client-side navigation.
//
// Modified clicks and non-primary buttons are passed through to the host
// untouched. For plain primary clicks the router navigates and reports
// true, so the caller suppresses the default action. An href that fails
// canonicalization is also passed through rather than swallowed.
func (r *Router) HandleClick(href string, e ClickEvent) bool {
	if e.modified() {
		return false
	}
	if _, err := r.ChangeLocation(Delta{Pathname: href}); err != nil {
		r.logger.Debug("link click passed through", "href", href, "error", err)
		return false
	}
	return true
}

// HandleHover implements hover-intent prefetching for links marked as
// prefetchable. Drops are silent; hovering is advisory.
func (r *Router) HandleHover(href string) {
	r.Prefetch(href)
}

// IsActive reports whether href matches the current location. With exact
// set, the pathnames must be equal; otherwise href may be a parent
// prefix of the current pathname (so a section link stays highlighted on
// its child pages).
func (r *Router) IsActive(href string, exact bool) bool {
	p, _, _, err := pathspec.Canonicalize(href)
	if err != nil {
		return false
	}
	cur := r.Location().Pathname
	if exact {
		return cur == p
	}
	if p == "/" {
		return true
	}
	return cur == p || strings.HasPrefix(cur, p+"/")
}
