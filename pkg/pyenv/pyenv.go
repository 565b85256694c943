// Package pyenv isolates every contact the engine has with a real Python
// environment: probing the search path for module files and importing a
// module to enumerate the names a wildcard import would introduce. The rest
// of the engine stays purely symbolic and is tested against stubs of the two
// interfaces here.
package pyenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Finder reports whether a module exists with the given dotted path.
type Finder interface {
	// Exists returns the file backing the module and true when found.
	Exists(modpath string) (string, bool)
}

// Loader imports a module and enumerates its exported names. Importing runs
// the module body, so implementations execute arbitrary analyzed code; the
// engine treats every load as a reportable event.
type Loader interface {
	Load(ctx context.Context, modpath string) ([]string, error)
}

// PathFinder locates modules as files under a list of search roots, the way
// the interpreter would: "a.b" is either a/b.py or a/b/__init__.py.
type PathFinder struct {
	SearchPath []string
}

// Exists implements Finder.
func (f *PathFinder) Exists(modpath string) (string, bool) {
	rel := strings.ReplaceAll(modpath, ".", string(filepath.Separator))
	for _, root := range f.SearchPath {
		path := filepath.Join(root, rel+".py")
		if isFile(path) {
			return path, true
		}
		path = filepath.Join(root, rel, "__init__.py")
		if isFile(path) {
			return path, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// exportScript prints the module's export list: __all__ verbatim when
// defined, otherwise every public attribute. Sorted either way so the
// enumeration is reproducible across runs.
const exportScript = `import importlib, sys
m = importlib.import_module(sys.argv[1])
names = getattr(m, '__all__', None)
if names is None:
    names = [n for n in dir(m) if not n.startswith('_')]
for n in sorted(names):
    print(n)
`

// InterpreterLoader imports modules by launching the configured Python
// interpreter with the search path prepended to PYTHONPATH.
type InterpreterLoader struct {
	Python     string // interpreter executable; "python3" when empty
	SearchPath []string
}

// Load implements Loader.
func (l *InterpreterLoader) Load(ctx context.Context, modpath string) ([]string, error) {
	python := l.Python
	if python == "" {
		python = "python3"
	}

	cmd := exec.CommandContext(ctx, python, "-c", exportScript, modpath)
	cmd.Env = append(os.Environ(), "PYTHONPATH="+l.pythonPath())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("importing %s: %w: %s", modpath, err, lastLine(detail))
		}
		return nil, fmt.Errorf("importing %s: %w", modpath, err)
	}

	var names []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// Fingerprint identifies the interpreter environment this loader answers
// from. Persisted export lists are scoped by it, so a config pointing at a
// different interpreter or search path never reads another environment's
// entries.
func (l *InterpreterLoader) Fingerprint() string {
	python := l.Python
	if python == "" {
		python = "python3"
	}
	return python + "\x00" + strings.Join(l.SearchPath, string(os.PathListSeparator))
}

// pythonPath prepends the loader's search path to any inherited PYTHONPATH.
func (l *InterpreterLoader) pythonPath() string {
	parts := append([]string{}, l.SearchPath...)
	if inherited := os.Getenv("PYTHONPATH"); inherited != "" {
		parts = append(parts, inherited)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// lastLine extracts the final line of interpreter stderr, usually the
// exception summary.
func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
