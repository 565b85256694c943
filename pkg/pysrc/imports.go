package pysrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Binding is one name introduced by an import statement.
type Binding struct {
	Name  string // dotted for "import a.b.c", bare for from-imports
	Alias string // "" when no "as" clause is present
}

// ImportStmt is one import statement found anywhere in a module. For
// from-imports, Module holds the explicit module fragment without the
// relative-dot prefix and Level counts the dots ("from ..pkg import x" has
// Module "pkg", Level 2; "from . import x" has Module "", Level 1).
type ImportStmt struct {
	From     bool
	Module   string
	Level    int
	Bindings []Binding
	Wildcard bool

	// Row and Col are the 0-based source position of the statement start,
	// recorded for the rewrite planner.
	Row int
	Col int
}

// ModuleSpelling returns the module as written in the source, relative dots
// included.
func (s *ImportStmt) ModuleSpelling() string {
	return strings.Repeat(".", s.Level) + s.Module
}

// CollectImports walks the whole tree and returns every import statement, in
// source order. Imports may appear anywhere a statement is legal, so the walk
// recurses through all node kinds.
func CollectImports(root *sitter.Node, source []byte) []ImportStmt {
	var stmts []ImportStmt
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement":
			stmts = append(stmts, parseImportStatement(node, source))
		case "import_from_statement":
			stmts = append(stmts, parseImportFromStatement(node, source))
		default:
			ForEachChild(node, walk)
		}
	}
	ForEachChild(root, walk)
	return stmts
}

// parseImportStatement handles "import a.b.c" and "import x as y, z".
func parseImportStatement(node *sitter.Node, source []byte) ImportStmt {
	stmt := ImportStmt{
		Row: int(node.StartPoint().Row),
		Col: int(node.StartPoint().Column),
	}
	ForEachChild(node, func(child *sitter.Node) {
		switch child.Type() {
		case "dotted_name":
			stmt.Bindings = append(stmt.Bindings, Binding{Name: NodeText(child, source)})
		case "aliased_import":
			name, alias := parseAliasedImport(child, source)
			if name != "" {
				stmt.Bindings = append(stmt.Bindings, Binding{Name: name, Alias: alias})
			}
		}
	})
	return stmt
}

// parseImportFromStatement handles "from MOD import ...", including relative
// modules, aliases and the wildcard form.
func parseImportFromStatement(node *sitter.Node, source []byte) ImportStmt {
	stmt := ImportStmt{
		From: true,
		Row:  int(node.StartPoint().Row),
		Col:  int(node.StartPoint().Column),
	}
	// The first dotted_name (or relative_import) is the module; everything
	// after the "import" keyword token is an imported binding.
	afterImport := false
	ForEachChild(node, func(child *sitter.Node) {
		switch child.Type() {
		case "import":
			afterImport = true
		case "relative_import":
			stmt.Level, stmt.Module = parseRelativeImport(child, source)
		case "dotted_name":
			if afterImport {
				stmt.Bindings = append(stmt.Bindings, Binding{Name: NodeText(child, source)})
			} else {
				stmt.Module = NodeText(child, source)
			}
		case "aliased_import":
			name, alias := parseAliasedImport(child, source)
			if name != "" {
				stmt.Bindings = append(stmt.Bindings, Binding{Name: name, Alias: alias})
			}
		case "wildcard_import":
			stmt.Wildcard = true
		}
	})
	return stmt
}

// parseAliasedImport extracts name and alias from "name as alias".
func parseAliasedImport(node *sitter.Node, source []byte) (name, alias string) {
	ForEachChild(node, func(child *sitter.Node) {
		switch child.Type() {
		case "dotted_name":
			name = NodeText(child, source)
		case "identifier":
			if alias == "" {
				alias = NodeText(child, source)
			}
		}
	})
	return name, alias
}

// parseRelativeImport splits ".." + "pkg" into level 2 and module "pkg".
func parseRelativeImport(node *sitter.Node, source []byte) (level int, module string) {
	ForEachChild(node, func(child *sitter.Node) {
		switch child.Type() {
		case "import_prefix":
			level = strings.Count(NodeText(child, source), ".")
		case "dotted_name":
			module = NodeText(child, source)
		}
	})
	return level, module
}
