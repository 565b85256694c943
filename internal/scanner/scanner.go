// Package scanner discovers the Python modules of a file tree. It walks a
// root directory with ignore pattern support (.unstarignore, gitignore-style)
// and maps each ".py" file to its dotted package and module paths.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModuleFile identifies one discovered Python module.
type ModuleFile struct {
	Path     string // relative path from root, forward slashes
	FullPath string // absolute path
	PkgPath  string // dotted path of the containing package ("" at root)
	ModPath  string // dotted module path; equals PkgPath for __init__.py
	Size     int64
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // skip hidden files and directories
	DefaultExcludes []string // directory names never descended into
	ExtraExcludes   []string // additional ignore patterns from configuration
	IgnoreFileName  string   // name of the ignore file (default: .unstarignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".unstarignore",
		DefaultExcludes: []string{
			"__pycache__",
			".git",
			".venv",
			"venv",
			"dist",
			"build",
			".tox",
			".nox",
			".idea",
			".vscode",
			"node_modules",
			".hg",
			".svn",
		},
	}
}

// Scanner walks file trees and produces module catalogs.
type Scanner struct {
	opts Options
	root string
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan recursively scans the directory at root and returns the ordered list
// of Python modules found. Order follows the lexical directory walk, so two
// scans over an unchanged tree produce identical catalogs.
func (s *Scanner) Scan(root string) ([]ModuleFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	s.root = absRoot

	excludes, err := s.loadExcludeRules(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}
	for _, raw := range s.opts.ExtraExcludes {
		excludes = append(excludes, ParseExclude(raw))
	}

	var modules []ModuleFile

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // continue walking despite errors
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isDefaultExcluded(info.Name()) {
				return filepath.SkipDir
			}
			// nested ignore files add their patterns for the subtree
			nested, err := s.loadExcludeRules(path)
			if err == nil && len(nested) > 0 {
				excludes = append(excludes, nested...)
			}
			return nil
		}

		if !strings.HasSuffix(info.Name(), ".py") {
			return nil
		}
		if excluded(relPathSlash, excludes) {
			return nil
		}

		pkgpath, modpath := ModulePaths(relPathSlash)
		modules = append(modules, ModuleFile{
			Path:     relPathSlash,
			FullPath: path,
			PkgPath:  pkgpath,
			ModPath:  modpath,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return modules, nil
}

// ModulePaths maps a root-relative file path to its dotted package and module
// paths: "a/b/c.py" becomes ("a.b", "a.b.c") and a package initializer
// "a/b/__init__.py" becomes ("a.b", "a.b").
func ModulePaths(relPath string) (pkgpath, modpath string) {
	relPath = filepath.ToSlash(relPath)
	dir, name := "", relPath
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		dir, name = relPath[:i], relPath[i+1:]
	}
	pkgpath = strings.ReplaceAll(dir, "/", ".")
	if name == "__init__.py" {
		return pkgpath, pkgpath
	}
	stem := strings.TrimSuffix(name, ".py")
	if pkgpath == "" {
		return "", stem
	}
	return pkgpath, pkgpath + "." + stem
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadExcludeRules reads the ignore file in dir, skipping blank lines and
// comments. A missing file is not an error.
func (s *Scanner) loadExcludeRules(dir string) ([]ExcludeRule, error) {
	ignorePath := filepath.Join(dir, s.opts.IgnoreFileName)
	file, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var rules []ExcludeRule
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, ParseExclude(line))
	}
	return rules, scanner.Err()
}

// excluded applies the rules in order; a later negated match re-includes
// the path.
func excluded(relPath string, rules []ExcludeRule) bool {
	out := false
	for _, rule := range rules {
		if rule.Match(relPath) {
			out = !rule.Negated()
		}
	}
	return out
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]ModuleFile, error) {
	return New(DefaultOptions()).Scan(root)
}
