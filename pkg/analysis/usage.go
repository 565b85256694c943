package analysis

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/unstar/pkg/pysrc"
)

// UsageMap records, per module, the transitive set of origins dereferenced
// by name and attribute loads in that module. It consumes the completed,
// read-only origin map; modules are assumed to be obtained only by dotted
// paths, never by other kinds of expressions.
type UsageMap struct {
	origins *Resolved

	mu sync.Mutex
	m  map[string]OriginSet
}

// NewUsageMap creates a usage map over a frozen origin map.
func NewUsageMap(origins *Resolved) *UsageMap {
	return &UsageMap{
		origins: origins,
		m:       make(map[string]OriginSet),
	}
}

// chase returns the chain of all origins reachable for a name in a module:
// the direct origin set plus, for every dotted origin, the origins of its
// (parent, last segment) pair, recursively. The visited set guarantees
// termination when modules re-export each other in a cycle.
func (u *UsageMap) chase(modpath, name string) OriginSet {
	origins := NewOriginSet()
	var walk func(modpath, name string)
	walk = func(modpath, name string) {
		for origin := range u.origins.Origins(modpath, name) {
			if origins.Has(origin) {
				continue
			}
			origins.Add(origin)
			if i := strings.LastIndexByte(origin, '.'); i >= 0 {
				walk(origin[:i], origin[i+1:])
			}
		}
	}
	walk(modpath, name)
	return origins
}

// ScanModule collects all origins used by loads anywhere in the module's
// tree and closes the set under dotted prefixes: using a.b.c necessarily
// dereferences a.b and a on the way.
func (u *UsageMap) ScanModule(mod *pysrc.Module) {
	used := NewOriginSet()

	// originsFor resolves a dotted-path expression to every origin it might
	// dereference to.
	var originsFor func(node *sitter.Node) OriginSet
	originsFor = func(node *sitter.Node) OriginSet {
		switch node.Type() {
		case "identifier":
			name := pysrc.NodeText(node, mod.Source)
			set := u.chase(mod.ModPath, name)
			set.Add(mod.ModPath + "." + name)
			return set
		case "attribute":
			attr := pysrc.NodeText(node.ChildByFieldName("attribute"), mod.Source)
			obj := node.ChildByFieldName("object")
			if attr == "" || obj == nil {
				return nil
			}
			result := NewOriginSet()
			for parent := range originsFor(obj) {
				result.Add(parent + "." + attr)
				result.Update(u.chase(parent, attr))
			}
			return result
		}
		return nil
	}

	// usedBy also accounts for every origin touched while dereferencing the
	// expression, not just the final one.
	var usedBy func(node *sitter.Node) OriginSet
	usedBy = func(node *sitter.Node) OriginSet {
		switch node.Type() {
		case "identifier":
			return originsFor(node)
		case "attribute":
			result := NewOriginSet()
			if obj := node.ChildByFieldName("object"); obj != nil {
				result.Update(usedBy(obj))
			}
			result.Update(originsFor(node))
			return result
		}
		return nil
	}

	pysrc.WalkLoads(mod.Root, func(node *sitter.Node) {
		used.Update(usedBy(node))
	})

	// prefix closure
	intermediate := NewOriginSet()
	for origin := range used {
		parts := strings.Split(origin, ".")
		for i := 1; i < len(parts); i++ {
			intermediate.Add(strings.Join(parts[:i], "."))
		}
	}
	used.Update(intermediate)

	u.mu.Lock()
	defer u.mu.Unlock()
	if existing, ok := u.m[mod.ModPath]; ok {
		existing.Update(used)
	} else {
		u.m[mod.ModPath] = used
	}
}

// UsedOrigins returns the set of origins used by a module; nil when the
// module was never scanned.
func (u *UsageMap) UsedOrigins(modpath string) OriginSet {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.m[modpath]
}

// ModPaths returns the scanned module paths in lexical order.
func (u *UsageMap) ModPaths() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	paths := make([]string, 0, len(u.m))
	for modpath := range u.m {
		paths = append(paths, modpath)
	}
	sort.Strings(paths)
	return paths
}

// AllUsed returns the union of every module's used origins. It is only
// meaningful once every module has been scanned; the caller owns that
// barrier.
func (u *UsageMap) AllUsed() OriginSet {
	u.mu.Lock()
	defer u.mu.Unlock()
	all := NewOriginSet()
	for _, set := range u.m {
		all.Update(set)
	}
	return all
}

// Export returns the map in its serialized form: modpath -> sorted origins.
func (u *UsageMap) Export() map[string][]string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string][]string, len(u.m))
	for modpath, set := range u.m {
		out[modpath] = set.Sorted()
	}
	return out
}

// Dump writes a readable listing of the usage map.
func (u *UsageMap) Dump(w io.Writer) {
	for _, modpath := range u.ModPaths() {
		title := fmt.Sprintf("Used by %s", modpath)
		fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
		for _, origin := range u.UsedOrigins(modpath).Sorted() {
			fmt.Fprintf(w, "  %s\n", origin)
		}
	}
}
