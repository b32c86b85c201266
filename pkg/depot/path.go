// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package depot

import "strings"

// ParsePath splits a "/"-separated path into its non-empty segments
// (spec.md §4.3 "Path model"). "" and "/" both mean the root and parse to
// a zero-length segment list. Any other path must start with "/"; a
// doubled or trailing "/" would produce an empty segment and is rejected,
// unlike the teacher's path iterator (grounded on pkg/paths.Iterator),
// which tolerates empty components because object keys may legitimately
// contain them.
func ParsePath(p string) ([]string, error) {
	if p == "" || p == "/" {
		return nil, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, ErrInvalidPath.New("path %q must start with '/'", p)
	}
	raw := strings.Split(p[1:], "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "" {
			return nil, ErrInvalidPath.New("path %q contains an empty segment", p)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// Iterator walks a pre-parsed segment list, tracking how much of the
// original path has been consumed. Shaped after the teacher's
// pkg/paths.Iterator (Next/Done/Consumed over a path's components).
type Iterator struct {
	segments []string
	pos      int
	consumed []string
}

// NewIterator returns an Iterator over segments.
func NewIterator(segments []string) *Iterator {
	return &Iterator{segments: segments}
}

// Done reports whether every segment has been consumed.
func (it *Iterator) Done() bool { return it.pos >= len(it.segments) }

// Next returns the next segment and advances, or "" if Done.
func (it *Iterator) Next() string {
	if it.Done() {
		return ""
	}
	s := it.segments[it.pos]
	it.pos++
	it.consumed = append(it.consumed, s)
	return s
}

// Consumed renders the segments consumed so far, "/"-joined.
func (it *Iterator) Consumed() string { return strings.Join(it.consumed, "/") }
