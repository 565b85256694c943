// Package analysis implements the name-origin resolution engine: an origin
// map collected from import statements across a module tree, and the
// transitive closure of origins each module actually dereferences. Names are
// assumed to become bound to values in other modules only by import;
// assignment, parameters and comprehension bindings never contribute.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/l3aro/unstar/pkg/pyenv"
	"github.com/l3aro/unstar/pkg/pysrc"
)

// ErrRelativeEscape is returned when a relative import climbs above the
// package containing the importing module.
var ErrRelativeEscape = errors.New("relative import escapes package")

// ResolveFromPath resolves the module referred to by "from ..x import y":
// one trailing package segment is stripped per relativity level beyond the
// first, then the explicit fragment (possibly empty) is appended. Level 0
// means an absolute import. A level exceeding the available package depth is
// a caller error, never clamped.
func ResolveFromPath(pkgpath, relpath string, level int) (string, error) {
	if level == 0 {
		return relpath, nil
	}
	var parts []string
	if pkgpath != "" {
		parts = strings.Split(pkgpath, ".")
	}
	if level > len(parts) {
		return "", fmt.Errorf("level %d from package %q: %w", level, pkgpath, ErrRelativeEscape)
	}
	parts = append(parts, "_")
	parts = parts[:len(parts)-level]
	if relpath != "" {
		parts = append(parts, strings.Split(relpath, ".")...)
	}
	return strings.Join(parts, "."), nil
}

// Builder accumulates the origin map during the scan phase. It is the single
// shared mutable structure of that phase: ScanModule may be called from
// multiple goroutines, and bindings land in other modules' buckets (package
// auto-bindings), so all writes go through one mutex. Freeze ends the phase.
type Builder struct {
	finder pyenv.Finder
	oracle *pyenv.Oracle

	mu sync.Mutex
	m  map[string]map[string]OriginSet
}

// NewBuilder creates an origin map builder over the given collaborators.
func NewBuilder(finder pyenv.Finder, oracle *pyenv.Oracle) *Builder {
	return &Builder{
		finder: finder,
		oracle: oracle,
		m:      make(map[string]map[string]OriginSet),
	}
}

// add records a possible origin for the given name in the given module.
func (b *Builder) add(modpath, name, origin string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names, ok := b.m[modpath]
	if !ok {
		names = make(map[string]OriginSet)
		b.m[modpath] = names
	}
	set, ok := names[name]
	if !ok {
		set = NewOriginSet()
		names[name] = set
	}
	set.Add(origin)
}

// addPackageOrigins records the implicit bindings the runtime creates along a
// dotted import path: importing a.b.c binds b in a to a.b and c in a.b to
// a.b.c. Only prefixes that are verifiably real modules are registered, so an
// ordinary attribute access that merely looks like a dotted path cannot
// fabricate bindings.
func (b *Builder) addPackageOrigins(modpath string) {
	parts := strings.Split(modpath, ".")
	parent := parts[0]
	for _, part := range parts[1:] {
		child := parent + "." + part
		if _, ok := b.finder.Exists(child); ok {
			b.add(parent, part, child)
		}
		parent = child
	}
}

// ScanModule registers every binding introduced by import statements
// reachable in the module's tree; imports may appear anywhere a statement is
// legal. Returns ErrRelativeEscape when a relative import climbs above the
// module's package, which makes the rest of this module's scan unsafe.
func (b *Builder) ScanModule(ctx context.Context, mod *pysrc.Module) error {
	for _, stmt := range pysrc.CollectImports(mod.Root, mod.Source) {
		if !stmt.From {
			for _, binding := range stmt.Bindings {
				if binding.Alias != "" {
					// the alias is the only name bound; no implicit
					// top-segment binding is created
					b.add(mod.ModPath, binding.Alias, binding.Name)
				} else {
					top := binding.Name
					if i := strings.IndexByte(top, '.'); i >= 0 {
						top = top[:i]
					}
					b.add(mod.ModPath, top, top)
				}
				b.addPackageOrigins(binding.Name)
			}
			continue
		}

		frompath, err := ResolveFromPath(mod.PkgPath, stmt.Module, stmt.Level)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", mod.ModPath, err)
		}
		if stmt.Wildcard {
			for _, name := range b.oracle.Names(ctx, frompath) {
				b.add(mod.ModPath, name, frompath+"."+name)
			}
			b.addPackageOrigins(frompath)
		}
		for _, binding := range stmt.Bindings {
			bound := binding.Alias
			if bound == "" {
				bound = binding.Name
			}
			b.add(mod.ModPath, bound, frompath+"."+binding.Name)
			b.addPackageOrigins(frompath + "." + binding.Name)
		}
	}
	return nil
}

// Freeze ends the scan phase and returns the read-only origin map. The
// builder must not be used afterwards.
func (b *Builder) Freeze() *Resolved {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := &Resolved{m: b.m, oracle: b.oracle}
	b.m = nil
	return r
}

// Resolved is the completed, immutable origin map shared by the usage
// closure engine and the rewrite planner.
type Resolved struct {
	m      map[string]map[string]OriginSet
	oracle *pyenv.Oracle
}

// Origins returns the set of possible origins for a name in a module; nil
// when none are known.
func (r *Resolved) Origins(modpath, name string) OriginSet {
	return r.m[modpath][name]
}

// StarNames returns the names a wildcard import from the module introduces,
// answered by the shared memoized oracle.
func (r *Resolved) StarNames(ctx context.Context, modpath string) []string {
	return r.oracle.Names(ctx, modpath)
}

// Export returns the map in its serialized form, every level sorted:
// modpath -> name -> sorted origins.
func (r *Resolved) Export() map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(r.m))
	for modpath, names := range r.m {
		byName := make(map[string][]string, len(names))
		for name, origins := range names {
			byName[name] = origins.Sorted()
		}
		out[modpath] = byName
	}
	return out
}

// Dump writes a readable listing of the origin map.
func (r *Resolved) Dump(w io.Writer) {
	modpaths := make([]string, 0, len(r.m))
	for modpath := range r.m {
		modpaths = append(modpaths, modpath)
	}
	sort.Strings(modpaths)

	for _, modpath := range modpaths {
		title := fmt.Sprintf("Imports in %s", modpath)
		fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))

		names := make([]string, 0, len(r.m[modpath]))
		for name := range r.m[modpath] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s -> %s\n", name, strings.Join(r.m[modpath][name].Sorted(), ", "))
		}
	}
}
