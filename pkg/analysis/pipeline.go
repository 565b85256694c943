package analysis

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/unstar/internal/log"
	"github.com/l3aro/unstar/pkg/pyenv"
	"github.com/l3aro/unstar/pkg/pysrc"
)

// CatalogEntry identifies one Python module to analyze.
type CatalogEntry struct {
	PkgPath string
	ModPath string
	Path    string
}

// ModuleIssue records a per-module problem that did not stop the run.
type ModuleIssue struct {
	Path    string
	ModPath string
	Err     error
}

// ScanResult is the output of a whole-tree analysis: the parsed modules,
// the frozen origin map, and the usage map over it. Skipped holds modules
// dropped before analysis (unreadable or unparseable); Issues holds
// modules whose import scan failed but whose usage still counts.
type ScanResult struct {
	Modules []*pysrc.Module
	Origins *Resolved
	Usage   *UsageMap
	Skipped []ModuleIssue
	Issues  []ModuleIssue
}

// AllUsed returns the union of used origins across every scanned module.
func (r *ScanResult) AllUsed() OriginSet {
	return r.Usage.AllUsed()
}

// Close releases the parse trees held by the result.
func (r *ScanResult) Close() {
	for _, mod := range r.Modules {
		mod.Close()
	}
	r.Modules = nil
}

// Engine runs the two analysis phases over a module catalog. Origin
// collection runs to completion over every module before any usage scan
// starts: usage chasing reads the origin map and must see it complete and
// frozen.
type Engine struct {
	finder  pyenv.Finder
	oracle  *pyenv.Oracle
	logger  log.Logger
	workers int
}

// NewEngine creates an analysis engine. A nil logger falls back to the
// process default; workers <= 0 uses one worker per CPU.
func NewEngine(finder pyenv.Finder, oracle *pyenv.Oracle, logger log.Logger, workers int) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{finder: finder, oracle: oracle, logger: logger, workers: workers}
}

// Scan parses every catalog entry and runs both analysis phases.
//
// Modules that fail to read or parse are skipped with a warning; a module
// whose import scan fails (a relative import reaching above the scanned
// root) is recorded as an issue, the rest of its import scan stops, and
// its usage is still collected. The returned error is non-nil only for
// context cancellation.
func (e *Engine) Scan(ctx context.Context, entries []CatalogEntry) (*ScanResult, error) {
	result := &ScanResult{}

	// Tree-sitter parsers are single-threaded; file reads happen in
	// parallel, parses serialize on the one parser.
	parser := pysrc.NewParser()
	var parseMu sync.Mutex
	var resultMu sync.Mutex

	modules := make([]*pysrc.Module, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(entry.Path)
			if err != nil {
				e.logger.Warn("skipping unreadable module", "path", entry.Path, "error", err)
				resultMu.Lock()
				result.Skipped = append(result.Skipped, ModuleIssue{Path: entry.Path, ModPath: entry.ModPath, Err: err})
				resultMu.Unlock()
				return nil
			}
			parseMu.Lock()
			mod, err := parser.Parse(entry.PkgPath, entry.ModPath, entry.Path, source)
			parseMu.Unlock()
			if err != nil {
				if errors.Is(err, pysrc.ErrSyntax) {
					e.logger.Warn("skipping module with syntax errors", "path", entry.Path)
				} else {
					e.logger.Warn("skipping unparseable module", "path", entry.Path, "error", err)
				}
				resultMu.Lock()
				result.Skipped = append(result.Skipped, ModuleIssue{Path: entry.Path, ModPath: entry.ModPath, Err: err})
				resultMu.Unlock()
				return nil
			}
			modules[i] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, mod := range modules {
		if mod != nil {
			result.Modules = append(result.Modules, mod)
		}
	}

	// Phase one: origin collection over every module.
	builder := NewBuilder(e.finder, e.oracle)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, mod := range result.Modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := builder.ScanModule(gctx, mod); err != nil {
				e.logger.Error("import scan failed", "module", mod.ModPath, "error", err)
				resultMu.Lock()
				result.Issues = append(result.Issues, ModuleIssue{Path: mod.Path, ModPath: mod.ModPath, Err: err})
				resultMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Origins = builder.Freeze()

	// Phase two: usage collection, reading the now-frozen origin map.
	result.Usage = NewUsageMap(result.Origins)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, mod := range result.Modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result.Usage.ScanModule(mod)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
