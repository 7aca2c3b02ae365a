// Package pathspec provides the path template contract used by the
// navigation engine.
//
// The engine only depends on "compile(template) -> exec(path) ->
// params-or-no-match". A default segment-based compiler is provided;
// callers may inject their own.
//
// # Template syntax (default compiler)
//
//	/users          literal segments
//	/users/:id      named parameter segments
//	/files/*        trailing catch-all (matches any remainder, no params)
//
// The bare sentinel "*" is interpreted by the route matcher before any
// compiler is consulted; compilers never see it.
package pathspec

import (
	"strings"
	"sync"

	"github.com/wayfind-dev/wayfind/internal/errors"
)

// Wildcard is the sentinel template that matches any path with no parameters.
const Wildcard = "*"

// Params holds named captures extracted from a matched path.
type Params map[string]string

// Matcher tests a concrete path against one compiled template.
type Matcher interface {
	// Exec returns the extracted parameters and whether the path matched.
	// The returned map is nil when the template declares no parameters.
	Exec(path string) (Params, bool)
}

// Compiler turns a path template into a Matcher. It must be pure: the
// same template always yields an equivalent matcher.
type Compiler func(template string) (Matcher, error)

// Cache memoizes compiled matchers by template string.
// Safe for concurrent use.
type Cache struct {
	compile Compiler

	mu       sync.Mutex
	matchers map[string]Matcher
}

// NewCache creates a matcher cache around the given compiler.
// A nil compiler defaults to Compile.
func NewCache(compile Compiler) *Cache {
	if compile == nil {
		compile = Compile
	}
	return &Cache{
		compile:  compile,
		matchers: make(map[string]Matcher),
	}
}

// Get compiles the template's matcher, or reuses a previously compiled one.
func (c *Cache) Get(template string) (Matcher, error) {
	c.mu.Lock()
	m, ok := c.matchers[template]
	c.mu.Unlock()

	if !ok {
		var err error
		m, err = c.compile(template)
		if err != nil {
			return nil, errors.New("W102").WithDetail("template %q", template).Wrap(err)
		}
		c.mu.Lock()
		c.matchers[template] = m
		c.mu.Unlock()
	}
	return m, nil
}

// Match compiles (or reuses) the template's matcher and executes it.
func (c *Cache) Match(template, path string) (Params, bool, error) {
	m, err := c.Get(template)
	if err != nil {
		return nil, false, err
	}
	params, matched := m.Exec(path)
	return params, matched, nil
}

// Compile is the default segment-based template compiler.
func Compile(template string) (Matcher, error) {
	segs := splitPath(template)

	m := &segmentMatcher{segments: make([]segment, 0, len(segs))}
	for i, seg := range segs {
		switch {
		case seg == "*":
			if i != len(segs)-1 {
				return nil, errors.Newf(errors.CategoryCompile, "catch-all must be the final segment in %q", template)
			}
			m.catchAll = true
		case strings.HasPrefix(seg, ":"):
			name := seg[1:]
			if name == "" {
				return nil, errors.Newf(errors.CategoryCompile, "parameter segment missing name in %q", template)
			}
			m.segments = append(m.segments, segment{name: name, isParam: true})
			m.paramCount++
		default:
			m.segments = append(m.segments, segment{name: seg})
		}
	}
	return m, nil
}

// segment is one compiled template segment.
type segment struct {
	name    string
	isParam bool
}

// segmentMatcher matches a path segment-by-segment.
type segmentMatcher struct {
	segments   []segment
	catchAll   bool
	paramCount int
}

// Exec implements Matcher.
func (m *segmentMatcher) Exec(path string) (Params, bool) {
	parts := splitPath(path)

	if m.catchAll {
		if len(parts) < len(m.segments) {
			return nil, false
		}
	} else if len(parts) != len(m.segments) {
		return nil, false
	}

	var params Params
	if m.paramCount > 0 {
		params = make(Params, m.paramCount)
	}

	for i, seg := range m.segments {
		if seg.isParam {
			params[seg.name] = parts[i]
			continue
		}
		if parts[i] != seg.name {
			return nil, false
		}
	}
	return params, true
}

// splitPath splits a path into segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
