package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func modPaths(files []ModuleFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.ModPath
	}
	return paths
}

func TestModulePaths(t *testing.T) {
	tests := []struct {
		relPath string
		pkgpath string
		modpath string
	}{
		{"m.py", "", "m"},
		{"a/b.py", "a", "a.b"},
		{"a/b/c.py", "a.b", "a.b.c"},
		{"__init__.py", "", ""},
		{"a/__init__.py", "a", "a"},
		{"a/b/__init__.py", "a.b", "a.b"},
	}
	for _, tt := range tests {
		pkgpath, modpath := ModulePaths(tt.relPath)
		if pkgpath != tt.pkgpath || modpath != tt.modpath {
			t.Errorf("ModulePaths(%q) = (%q, %q), want (%q, %q)",
				tt.relPath, pkgpath, modpath, tt.pkgpath, tt.modpath)
		}
	}
}

func TestScanFindsOnlyPythonFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/mod.py":      "x = 1\n",
		"top.py":          "",
		"README.md":       "docs",
		"data.json":       "{}",
	})

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	got := modPaths(files)
	want := []string{"pkg", "pkg.mod", "top"}
	if len(got) != len(want) {
		t.Fatalf("modules = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("modules = %v, want %v", got, want)
		}
	}
}

func TestScanSkipsDefaultExcludes(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"app.py":                   "",
		"__pycache__/app.py":       "",
		".venv/lib/site.py":        "",
		"build/out.py":             "",
		".hidden/secret.py":        "",
		"node_modules/setup.py":    "",
		"pkg/__pycache__/cache.py": "",
		"pkg/good.py":              "",
	})

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	got := modPaths(files)
	want := []string{"app", "pkg.good"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("modules = %v, want %v", got, want)
	}
}

func TestScanHonorsIgnoreFile(t *testing.T) {
	root := writeFiles(t, map[string]string{
		".unstarignore":        "generated_*.py\nmigrations/\n",
		"app.py":               "",
		"generated_pb2.py":     "",
		"migrations/m0001.py":  "",
		"pkg/generated_api.py": "",
	})

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	got := modPaths(files)
	if len(got) != 1 || got[0] != "app" {
		t.Fatalf("modules = %v, want [app]", got)
	}
}

func TestScanExtraExcludes(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"app.py":           "",
		"vendored/dep.py":  "",
		"vendored/util.py": "",
	})

	opts := DefaultOptions()
	opts.ExtraExcludes = []string{"vendored/"}
	files, err := New(opts).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	got := modPaths(files)
	if len(got) != 1 || got[0] != "app" {
		t.Fatalf("modules = %v, want [app]", got)
	}
}

func TestScanDeterministicOrder(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"b.py":     "",
		"a.py":     "",
		"c/d.py":   "",
		"c/a.py":   "",
		"a/zzz.py": "",
	})

	first, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	second, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("scans disagree: %v vs %v", modPaths(first), modPaths(second))
	}
	for i := range first {
		if first[i].Path != second[i].Path {
			t.Fatalf("scans disagree at %d: %v vs %v", i, modPaths(first), modPaths(second))
		}
	}
}
