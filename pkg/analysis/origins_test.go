package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/l3aro/unstar/pkg/pyenv"
	"github.com/l3aro/unstar/pkg/pysrc"
)

// stubFinder answers module existence from a fixed set.
type stubFinder map[string]bool

func (f stubFinder) Exists(modpath string) (string, bool) {
	if f[modpath] {
		return modpath + ".py", true
	}
	return "", false
}

// stubLoader answers wildcard exports from a fixed table.
type stubLoader map[string][]string

func (l stubLoader) Load(_ context.Context, modpath string) ([]string, error) {
	names, ok := l[modpath]
	if !ok {
		return nil, fmt.Errorf("no module named %s", modpath)
	}
	return names, nil
}

func parseModule(t *testing.T, pkgpath, modpath, code string) *pysrc.Module {
	t.Helper()
	mod, err := pysrc.NewParser().Parse(pkgpath, modpath, modpath+".py", []byte(code))
	if err != nil {
		t.Fatalf("Parse %s failed: %v", modpath, err)
	}
	t.Cleanup(mod.Close)
	return mod
}

func buildOrigins(t *testing.T, finder stubFinder, loader stubLoader, mods ...*pysrc.Module) *Resolved {
	t.Helper()
	builder := NewBuilder(finder, pyenv.NewOracle(loader, nil))
	for _, mod := range mods {
		if err := builder.ScanModule(context.Background(), mod); err != nil {
			t.Fatalf("ScanModule %s failed: %v", mod.ModPath, err)
		}
	}
	return builder.Freeze()
}

func TestResolveFromPath(t *testing.T) {
	tests := []struct {
		pkgpath string
		relpath string
		level   int
		want    string
		wantErr bool
	}{
		{"a.b", "c", 0, "c", false},
		{"a.b", "c.d", 0, "c.d", false},
		{"a.b", "c", 1, "a.b.c", false},
		{"a.b", "c", 2, "a.c", false},
		{"a.b", "", 1, "a.b", false},
		{"a.b", "", 2, "a", false},
		{"a.b", "c", 3, "", true},
		{"", "c", 1, "", true},
	}
	for _, tt := range tests {
		got, err := ResolveFromPath(tt.pkgpath, tt.relpath, tt.level)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveFromPath(%q, %q, %d) expected error, got %q", tt.pkgpath, tt.relpath, tt.level, got)
			} else if !errors.Is(err, ErrRelativeEscape) {
				t.Errorf("ResolveFromPath(%q, %q, %d) error = %v, want ErrRelativeEscape", tt.pkgpath, tt.relpath, tt.level, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveFromPath(%q, %q, %d) failed: %v", tt.pkgpath, tt.relpath, tt.level, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveFromPath(%q, %q, %d) = %q, want %q", tt.pkgpath, tt.relpath, tt.level, got, tt.want)
		}
	}
}

func TestScanModulePlainImport(t *testing.T) {
	mod := parseModule(t, "", "main", "import os.path\n")
	origins := buildOrigins(t, stubFinder{}, stubLoader{}, mod)

	// only the top segment is bound
	if got := origins.Origins("main", "os").Sorted(); len(got) != 1 || got[0] != "os" {
		t.Errorf("Origins(main, os) = %v, want [os]", got)
	}
	if got := origins.Origins("main", "os.path"); got != nil {
		t.Errorf("Origins(main, os.path) = %v, want none", got)
	}
}

func TestScanModuleAliasPrecedence(t *testing.T) {
	mod := parseModule(t, "", "main", "import numpy.linalg as la\n")
	origins := buildOrigins(t, stubFinder{}, stubLoader{}, mod)

	if got := origins.Origins("main", "la").Sorted(); len(got) != 1 || got[0] != "numpy.linalg" {
		t.Errorf("Origins(main, la) = %v, want [numpy.linalg]", got)
	}
	// the alias suppresses the implicit top-segment binding
	if got := origins.Origins("main", "numpy"); got != nil {
		t.Errorf("Origins(main, numpy) = %v, want none", got)
	}
}

func TestScanModuleFromImport(t *testing.T) {
	mod := parseModule(t, "pkg", "pkg.mod", "from os import path as p, sep\n")
	origins := buildOrigins(t, stubFinder{}, stubLoader{}, mod)

	if got := origins.Origins("pkg.mod", "p").Sorted(); len(got) != 1 || got[0] != "os.path" {
		t.Errorf("Origins(pkg.mod, p) = %v, want [os.path]", got)
	}
	if got := origins.Origins("pkg.mod", "sep").Sorted(); len(got) != 1 || got[0] != "os.sep" {
		t.Errorf("Origins(pkg.mod, sep) = %v, want [os.sep]", got)
	}
}

func TestScanModuleRelativeImport(t *testing.T) {
	mod := parseModule(t, "pkg.sub", "pkg.sub.mod", "from ..lib import thing\n")
	origins := buildOrigins(t, stubFinder{}, stubLoader{}, mod)

	if got := origins.Origins("pkg.sub.mod", "thing").Sorted(); len(got) != 1 || got[0] != "pkg.lib.thing" {
		t.Errorf("Origins(pkg.sub.mod, thing) = %v, want [pkg.lib.thing]", got)
	}
}

func TestScanModuleRelativeEscape(t *testing.T) {
	mod := parseModule(t, "pkg", "pkg.mod", "from ...outside import thing\n")
	builder := NewBuilder(stubFinder{}, pyenv.NewOracle(stubLoader{}, nil))
	err := builder.ScanModule(context.Background(), mod)
	if !errors.Is(err, ErrRelativeEscape) {
		t.Fatalf("ScanModule error = %v, want ErrRelativeEscape", err)
	}
}

func TestScanModuleWildcard(t *testing.T) {
	mod := parseModule(t, "pkg", "pkg.mod", "from .lib import *\n")
	loader := stubLoader{"pkg.lib": {"bar", "foo"}}
	origins := buildOrigins(t, stubFinder{}, loader, mod)

	for _, name := range []string{"bar", "foo"} {
		want := "pkg.lib." + name
		if got := origins.Origins("pkg.mod", name).Sorted(); len(got) != 1 || got[0] != want {
			t.Errorf("Origins(pkg.mod, %s) = %v, want [%s]", name, got, want)
		}
	}
}

func TestScanModuleWildcardLoadFailure(t *testing.T) {
	mod := parseModule(t, "", "main", "from missing import *\n")
	origins := buildOrigins(t, stubFinder{}, stubLoader{}, mod)

	// a failed import degrades to zero bindings
	if got := origins.StarNames(context.Background(), "missing"); len(got) != 0 {
		t.Errorf("StarNames(missing) = %v, want none", got)
	}
}

func TestScanModulePackageOrigins(t *testing.T) {
	finder := stubFinder{"a": true, "a.b": true, "a.b.c": true}
	mod := parseModule(t, "", "main", "import a.b.c\n")
	origins := buildOrigins(t, finder, stubLoader{}, mod)

	// importing a.b.c implicitly binds b in a and c in a.b
	if got := origins.Origins("a", "b").Sorted(); len(got) != 1 || got[0] != "a.b" {
		t.Errorf("Origins(a, b) = %v, want [a.b]", got)
	}
	if got := origins.Origins("a.b", "c").Sorted(); len(got) != 1 || got[0] != "a.b.c" {
		t.Errorf("Origins(a.b, c) = %v, want [a.b.c]", got)
	}
}

func TestScanModulePackageOriginsNeedExistingModules(t *testing.T) {
	mod := parseModule(t, "", "main", "import a.b.c\n")
	origins := buildOrigins(t, stubFinder{}, stubLoader{}, mod)

	if got := origins.Origins("a", "b"); got != nil {
		t.Errorf("Origins(a, b) = %v, want none when the package is unknown", got)
	}
}

func TestExportDeterminism(t *testing.T) {
	code := "from lib import b, a\nimport zlib\nimport abc\n"
	first := buildOrigins(t, stubFinder{}, stubLoader{}, parseModule(t, "", "m1", code))
	second := buildOrigins(t, stubFinder{}, stubLoader{}, parseModule(t, "", "m1", code))

	a := fmt.Sprintf("%v", first.Export())
	b := fmt.Sprintf("%v", second.Export())
	if a != b {
		t.Errorf("Export not deterministic:\n%s\n%s", a, b)
	}
}
