package pathspec

import (
	"strings"

	"github.com/wayfind-dev/wayfind/internal/errors"
)

// Join merges a parent template with a child template using slash-aware
// joining: exactly one "/" separates the segments regardless of leading or
// trailing slashes on either side.
//
// Joining the wildcard sentinel onto an empty parent yields the sentinel
// unchanged, so a root-level catch-all stays recognizable.
func Join(parent, child string) string {
	if child == Wildcard && strings.Trim(parent, "/") == "" {
		return Wildcard
	}

	p := strings.Trim(parent, "/")
	c := strings.Trim(child, "/")

	switch {
	case p == "" && c == "":
		return "/"
	case p == "":
		return "/" + c
	case c == "":
		return "/" + p
	default:
		return "/" + p + "/" + c
	}
}

// Canonicalize normalizes a navigation path.
//
// Transformations applied:
//   - ensure a leading "/"
//   - collapse multiple slashes (/blog//post -> /blog/post)
//   - remove "." segments and resolve ".." segments
//   - remove the trailing slash (except for root "/")
//
// Rejected inputs:
//   - paths containing backslash or NUL
//   - invalid percent-escapes
//   - ".." that would escape root
//
// The input may carry a query string, which is preserved untouched.
func Canonicalize(input string) (path, query string, changed bool, err error) {
	if input == "" {
		return "/", "", true, nil
	}

	path, query, _ = strings.Cut(input, "?")

	// SECURITY: reject backslash and NUL (literal or encoded).
	if strings.Contains(path, "\\") {
		return "", "", false, errors.New("W401").WithDetail("path contains backslash")
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", "", false, errors.New("W401").WithDetail("path contains NUL byte")
	}

	if strings.Contains(path, "%") {
		if escErr := validatePercentEscapes(path); escErr != nil {
			return "", "", false, escErr
		}
	}

	original := path

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	segments := strings.Split(path, "/")
	var result []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) == 0 {
				// SECURITY: ".." escapes root.
				return "", "", false, errors.New("W401").WithDetail("path escapes root via ..")
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}

	path = "/" + strings.Join(result, "/")
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	return path, query, path != original, nil
}

// validatePercentEscapes checks that all percent-escapes are valid.
func validatePercentEscapes(path string) error {
	i := 0
	for i < len(path) {
		if path[i] != '%' {
			i++
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return errors.New("W401").WithDetail("invalid percent escape in %q", path)
		}
		i += 3
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
