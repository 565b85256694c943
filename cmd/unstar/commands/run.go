package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/l3aro/unstar/internal/config"
	"github.com/l3aro/unstar/internal/log"
	"github.com/l3aro/unstar/internal/scanner"
	"github.com/l3aro/unstar/pkg/analysis"
	"github.com/l3aro/unstar/pkg/cache"
	"github.com/l3aro/unstar/pkg/pyenv"
)

// session bundles everything a command needs after a full analysis run.
type session struct {
	cfg    *config.Config
	logger *log.DefaultLogger
	cache  *cache.LRUCache
	result *analysis.ScanResult
}

// analyzeTree loads configuration, scans the tree rooted at root and runs
// both analysis phases. The caller owns session.close.
func analyzeTree(ctx context.Context, root string, override func(*config.Config)) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger := log.New(log.Config{Level: level, FilePath: cfg.LogFile})

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	opts := scanner.DefaultOptions()
	opts.ExtraExcludes = append(opts.ExtraExcludes, cfg.Excludes...)
	files, err := scanner.New(opts).Scan(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	logger.Debug("catalog built", "root", absRoot, "modules", len(files))

	searchPath := []string{absRoot}
	if cfg.SearchPath != "" {
		searchPath = []string{cfg.SearchPath}
	}
	finder := &pyenv.PathFinder{SearchPath: searchPath}
	loader := &pyenv.InterpreterLoader{Python: cfg.Python, SearchPath: searchPath}
	oracle := pyenv.NewOracle(loader, logger)

	var exportCache *cache.LRUCache
	if cfg.CachePath != "" {
		exportCache = cache.New(cache.Options{MaxSize: cfg.CacheSize})
		if err := cache.LoadFromFile(exportCache, cfg.CachePath); err != nil {
			logger.Warn("ignoring unreadable cache", "path", cfg.CachePath, "error", err)
		}
		oracle.WithCache(exportCache, loader.Fingerprint())
	}

	entries := make([]analysis.CatalogEntry, len(files))
	for i, f := range files {
		entries[i] = analysis.CatalogEntry{PkgPath: f.PkgPath, ModPath: f.ModPath, Path: f.FullPath}
	}

	engine := analysis.NewEngine(finder, oracle, logger, cfg.Workers)
	result, err := engine.Scan(ctx, entries)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, cache: exportCache, result: result}, nil
}

// close persists the export cache and releases parse trees.
func (s *session) close() {
	if s.cache != nil && s.cfg.CachePath != "" {
		if err := cache.PersistToFile(s.cache, s.cfg.CachePath); err != nil {
			s.logger.Warn("failed to persist cache", "path", s.cfg.CachePath, "error", err)
		}
	}
	s.result.Close()
	s.logger.Close()
}
