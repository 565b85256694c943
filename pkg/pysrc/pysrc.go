// Package pysrc provides the Python syntax model used by the analysis and
// rewrite engines. It wraps tree-sitter parsing and exposes generic child
// traversal, import statement extraction, and load-expression walking over
// the small set of node kinds the engines care about.
package pysrc

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned when a source file cannot be parsed cleanly.
var ErrSyntax = errors.New("syntax error")

// Module is one parsed Python source module.
type Module struct {
	PkgPath string // dotted path of the containing package ("" at the root)
	ModPath string // dotted path of the module itself
	Path    string // file path the source was read from
	Source  []byte
	Root    *sitter.Node

	tree *sitter.Tree
}

// Close releases the underlying parse tree.
func (m *Module) Close() {
	if m.tree != nil {
		m.tree.Close()
		m.tree = nil
	}
}

// Lines splits the module source into lines, each retaining its trailing
// newline where present. The edit applier works on this representation.
func (m *Module) Lines() []string {
	return SplitLines(string(m.Source))
}

// SplitLines splits source text into lines keeping line terminators.
func SplitLines(text string) []string {
	var lines []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			if text != "" {
				lines = append(lines, text)
			}
			return lines
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
}

// Parser parses Python source into Modules. It is not safe for concurrent
// use; callers serialize access (tree-sitter parsers are single-threaded).
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a Python parser.
func NewParser() *Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Parser{parser: parser}
}

// Parse parses source bytes into a Module. pkgpath and modpath identify the
// module within the scanned tree. Returns ErrSyntax when the grammar could
// not parse the input cleanly.
func (p *Parser) Parse(pkgpath, modpath, path string, source []byte) (*Module, error) {
	tree := p.parser.Parse(nil, source)
	if tree == nil {
		return nil, fmt.Errorf("parsing %s: no tree produced", path)
	}
	root := tree.RootNode()
	if root.HasError() {
		tree.Close()
		return nil, fmt.Errorf("parsing %s: %w", path, ErrSyntax)
	}
	return &Module{
		PkgPath: pkgpath,
		ModPath: modpath,
		Path:    path,
		Source:  source,
		Root:    root,
		tree:    tree,
	}, nil
}

// ForEachChild calls fn for every direct child of node, anonymous tokens
// included. This is the generic traversal used wherever a node kind has no
// special handling.
func ForEachChild(node *sitter.Node, fn func(*sitter.Node)) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil {
			fn(child)
		}
	}
}

// NodeText extracts the source text covered by a node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(source)) || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
