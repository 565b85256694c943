package commands

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
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

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	runErr := fn()
	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	r.Close()
	if runErr != nil {
		t.Fatalf("command failed: %v", runErr)
	}
	return string(out)
}

func TestScanDumpsBothMapsByDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/a.py":        "foo = 1\n",
		"main.py":         "import pkg.a\nprint(pkg.a.foo)\n",
	})

	RootCmd.SetArgs([]string{"scan", root})
	out := captureStdout(t, RootCmd.Execute)

	if !strings.Contains(out, "Imports in main") {
		t.Errorf("default scan output missing origin map dump:\n%s", out)
	}
	if !strings.Contains(out, "Used by main") {
		t.Errorf("default scan output missing usage map dump:\n%s", out)
	}
	if !strings.Contains(out, "No wildcard imports found.") {
		t.Errorf("default scan output missing rewrite report:\n%s", out)
	}
}

func TestScanImportsFlagNarrowsOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/a.py":        "foo = 1\n",
		"main.py":         "import pkg.a\nprint(pkg.a.foo)\n",
	})

	RootCmd.SetArgs([]string{"scan", "-i", root})
	defer scanCmd.Flags().Set("imports", "false")
	out := captureStdout(t, RootCmd.Execute)

	if !strings.Contains(out, "Imports in main") {
		t.Errorf("scan -i output missing origin map dump:\n%s", out)
	}
	if strings.Contains(out, "Used by main") {
		t.Errorf("scan -i output should omit the usage map dump:\n%s", out)
	}
}
