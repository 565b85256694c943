package analysis

import "sort"

// OriginSet is a set of origin strings. Origins are opaque dotted paths of
// the form "package.module.name"; two origins are equal iff their string
// forms are equal. "a.b" may mean the name b in module a or the submodule b
// of package a — the referring module cannot tell, so both readings live in
// the same set and are never collapsed.
type OriginSet map[string]struct{}

// NewOriginSet builds a set from the given origins.
func NewOriginSet(origins ...string) OriginSet {
	s := make(OriginSet, len(origins))
	for _, o := range origins {
		s[o] = struct{}{}
	}
	return s
}

// Add inserts an origin.
func (s OriginSet) Add(origin string) {
	s[origin] = struct{}{}
}

// Has reports membership.
func (s OriginSet) Has(origin string) bool {
	_, ok := s[origin]
	return ok
}

// Update inserts every origin of other.
func (s OriginSet) Update(other OriginSet) {
	for o := range other {
		s[o] = struct{}{}
	}
}

// Sorted returns the origins in lexical order.
func (s OriginSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for o := range s {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
