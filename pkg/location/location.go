// Package location defines the canonical location value used by the
// navigation engine.
//
// A Location is the engine's own representation of "where are we",
// independent of any browser representation. The history collaborator
// reconciles it with the external world.
package location

import (
	"net/url"
	"sort"
	"strings"

	"github.com/wayfind-dev/wayfind/internal/errors"
)

// Location is the single source of truth for the current position.
// Search, when non-empty, always carries the leading "?".
type Location struct {
	Pathname string
	Search   string
}

// String returns the pathname joined with the search string.
func (l Location) String() string {
	return l.Pathname + l.Search
}

// Equal reports whether two locations are identical.
func (l Location) Equal(other Location) bool {
	return l.Pathname == other.Pathname && l.Search == other.Search
}

// Parse splits a combined path (optionally carrying a query string) into
// a Location.
func Parse(pathEtc string) Location {
	pathname, query, _ := strings.Cut(pathEtc, "?")
	loc := Location{Pathname: pathname}
	if query != "" {
		loc.Search = "?" + query
	}
	return loc
}

// Query decodes the search string into url.Values.
// Returns empty values when the search string is absent or malformed.
func (l Location) Query() url.Values {
	q, err := url.ParseQuery(strings.TrimPrefix(l.Search, "?"))
	if err != nil {
		return url.Values{}
	}
	return q
}

// EncodeSearch converts a search value into a normalized search string.
//
// Accepted forms:
//   - string: used as-is, "?" prefixed when missing
//   - map[string]string: encoded with keys sorted for determinism
//   - url.Values: encoded via Values.Encode (already sorted)
//   - nil: empty search
func EncodeSearch(search any) (string, error) {
	switch s := search.(type) {
	case nil:
		return "", nil
	case string:
		if s == "" {
			return "", nil
		}
		if !strings.HasPrefix(s, "?") {
			return "?" + s, nil
		}
		return s, nil
	case url.Values:
		if len(s) == 0 {
			return "", nil
		}
		return "?" + s.Encode(), nil
	case map[string]string:
		if len(s) == 0 {
			return "", nil
		}
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(s[k]))
		}
		return b.String(), nil
	default:
		return "", errors.New("W402").WithDetail("unsupported search type %T", search)
	}
}
