package wayfind

import (
	"log/slog"

	"github.com/wayfind-dev/wayfind/pkg/pathspec"
	"github.com/wayfind-dev/wayfind/pkg/preload"
	"github.com/wayfind-dev/wayfind/pkg/router"
)

// config collects the engine's dependencies. Everything has a default;
// the zero engine runs against an in-memory history.
type config struct {
	source   router.LocationSource
	logger   *slog.Logger
	observer router.Observer
	preload  *preload.Config
	compiler pathspec.Compiler
	initial  *router.State
}

// Option configures an Engine.
type Option func(*config)

// WithLocationSource sets the history collaborator. Defaults to an
// in-memory history starting at "/".
func WithLocationSource(src router.LocationSource) Option {
	return func(c *config) {
		c.source = src
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithObserver sets the navigation/preload event observer, e.g.
// observe.NewMetrics or observe.NewTracing. Use router.MultiObserver to
// combine several.
func WithObserver(obs router.Observer) Option {
	return func(c *config) {
		c.observer = obs
	}
}

// WithPreloadConfig tunes the speculative preload cache and limits.
func WithPreloadConfig(cfg *preload.Config) Option {
	return func(c *config) {
		c.preload = cfg
	}
}

// WithCompiler overrides the path template compiler. The default
// understands literal segments, :name parameters, and a trailing
// catch-all.
func WithCompiler(compile pathspec.Compiler) Option {
	return func(c *config) {
		c.compiler = compile
	}
}

// WithInitialState resumes the engine from an externally computed router
// state instead of deriving it from the location source.
func WithInitialState(st *router.State) Option {
	return func(c *config) {
		c.initial = st
	}
}
