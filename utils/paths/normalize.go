// Package paths produces canonical keys for resources addressed by relative
// paths inside a book container.
package paths

import (
	"net/url"
	"strings"
)

// Normalize converts path into canonical key form: "." and empty segments
// are dropped, ".." removes the previous segment (if any) and every remaining
// segment is decoded and then re-encoded, so differently escaped spellings of
// the same name end up identical. Result never has leading or trailing
// slashes and Normalize(Normalize(p)) == Normalize(p).
func Normalize(p string) string {
	if len(p) == 0 {
		return ""
	}

	parts := make([]string, 0, strings.Count(p, "/")+1)
	for part := range strings.SplitSeq(p, "/") {
		// escaped dot segments are dot segments too
		seg := unescape(part)
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
			continue
		}
		parts = append(parts, url.QueryEscape(seg))
	}
	return strings.Join(parts, "/")
}

// unescape is lenient - malformed escape sequences leave segment as is.
func unescape(part string) string {
	if s, err := url.QueryUnescape(part); err == nil {
		return s
	}
	return part
}

// Dir returns everything but the last element of p, "." when p has no
// directory part.
func Dir(p string) string {
	i := strings.LastIndexByte(p, '/')
	switch {
	case i < 0:
		return "."
	case i == 0:
		return "/"
	}
	return p[:i]
}

// Join glues relative reference to the directory it is relative to. Result
// is not normalized.
func Join(dir, rel string) string {
	if len(dir) == 0 {
		return rel
	}
	return dir + "/" + rel
}

// StripFragment removes "#fragment" part of the reference if any.
func StripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}
