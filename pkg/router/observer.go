package router

import (
	"time"

	"github.com/wayfind-dev/wayfind/pkg/location"
	"github.com/wayfind-dev/wayfind/pkg/route"
)

// NavigationEvent describes one resolved location change.
type NavigationEvent struct {
	// Location is the canonical location after the transition.
	Location location.Location

	// Matched reports whether any route matched.
	Matched bool

	// External reports that the change came from a history notification
	// (back/forward) rather than a programmatic navigation.
	External bool

	// Duration is the time spent in the transition function.
	Duration time.Duration
}

// PreloadEvent describes the completion of one route's preload attempt.
type PreloadEvent struct {
	RouteID  route.ID
	Template string

	// Outcome is one of "completed", "failed", "redirected", "cancelled".
	Outcome string

	Duration time.Duration
}

// Preload outcomes.
const (
	OutcomeCompleted  = "completed"
	OutcomeFailed     = "failed"
	OutcomeRedirected = "redirected"
	OutcomeCancelled  = "cancelled"
)

// Observer receives engine lifecycle events. Implementations must be safe
// for concurrent use; preload events fire from preload goroutines.
type Observer interface {
	NavigationResolved(e NavigationEvent)
	PreloadFinished(e PreloadEvent)
}

// noopObserver is used when no observer is configured.
type noopObserver struct{}

func (noopObserver) NavigationResolved(NavigationEvent) {}
func (noopObserver) PreloadFinished(PreloadEvent)       {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) NavigationResolved(e NavigationEvent) {
	for _, o := range m {
		o.NavigationResolved(e)
	}
}

func (m MultiObserver) PreloadFinished(e PreloadEvent) {
	for _, o := range m {
		o.PreloadFinished(e)
	}
}
