package scanner

import (
	"path"
	"path/filepath"
	"strings"
)

// ExcludeRule is one line of a .unstarignore file or one configured exclude,
// in gitignore form: an optional leading "!" negates, a leading "/" anchors
// the rule at the scan root, a trailing "/" excludes a whole directory.
// Segments may use path.Match globs, and a "**" segment spans any number of
// directories.
type ExcludeRule struct {
	raw     string
	negated bool
	dirOnly bool
	rooted  bool
	segs    []string
}

// ParseExclude parses a single exclude rule.
func ParseExclude(line string) ExcludeRule {
	r := ExcludeRule{raw: line}
	if strings.HasPrefix(line, "!") {
		r.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.rooted = true
		line = line[1:]
	}
	r.segs = strings.Split(line, "/")
	return r
}

// Negated reports whether a match re-includes the path instead of
// excluding it.
func (r ExcludeRule) Negated() bool {
	return r.negated
}

// Match reports whether relpath falls under this rule. Rooted rules match
// only from the scan root; all others may start at any path segment.
func (r ExcludeRule) Match(relpath string) bool {
	parts := strings.Split(filepath.ToSlash(relpath), "/")
	if r.rooted {
		return r.matchFrom(parts)
	}
	for i := range parts {
		if r.matchFrom(parts[i:]) {
			return true
		}
	}
	return false
}

// matchFrom matches the rule's segments against the front of parts. A
// directory rule only needs its segments consumed, leaving the rest of the
// path inside the excluded directory; any other rule must reach the final
// segment.
func (r ExcludeRule) matchFrom(parts []string) bool {
	segs := r.segs
	for {
		if len(segs) == 0 {
			return r.dirOnly || len(parts) == 0
		}
		if segs[0] == "**" {
			if len(segs) == 1 {
				return true
			}
			rest := ExcludeRule{dirOnly: r.dirOnly, segs: segs[1:]}
			for i := 0; i <= len(parts); i++ {
				if rest.matchFrom(parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		if ok, err := path.Match(segs[0], parts[0]); err != nil || !ok {
			return false
		}
		segs, parts = segs[1:], parts[1:]
	}
}
