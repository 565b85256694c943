package pysrc

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// WalkLoads calls fn for every identifier and attribute node that appears in
// load position anywhere under root. Names bound by assignment targets, loop
// targets, parameters, def/class names, as-clauses, import statements,
// match-case captures and del targets are not loads and are skipped;
// everything the runtime would dereference as a value is reported.
//
// For an attribute load "a.b.c", fn receives the outer attribute node, the
// inner attribute node and the identifier "a" separately; a subexpression may
// be loaded as a value independent of the enclosing access.
func WalkLoads(root *sitter.Node, fn func(*sitter.Node)) {
	var walk func(node *sitter.Node, store bool)

	walkChildren := func(node *sitter.Node, store bool) {
		ForEachChild(node, func(child *sitter.Node) {
			walk(child, store)
		})
	}

	walk = func(node *sitter.Node, store bool) {
		switch node.Type() {
		case "import_statement", "import_from_statement", "future_import_statement",
			"global_statement", "nonlocal_statement":
			// Import bindings are handled by the origin map; global and
			// nonlocal name lists are declarations, not loads.
			return

		case "assignment", "augmented_assignment", "for_statement", "for_in_clause":
			left := node.ChildByFieldName("left")
			ForEachChild(node, func(child *sitter.Node) {
				walk(child, sameNode(child, left))
			})
			return

		case "function_definition", "class_definition":
			// The name is a binding; superclasses, parameter defaults and
			// annotations, the return type and the body contain loads.
			if sc := node.ChildByFieldName("superclasses"); sc != nil {
				walk(sc, false)
			}
			if rt := node.ChildByFieldName("return_type"); rt != nil {
				walk(rt, false)
			}
			if params := node.ChildByFieldName("parameters"); params != nil {
				walkParameters(params, walk)
			}
			if body := node.ChildByFieldName("body"); body != nil {
				walk(body, false)
			}
			return

		case "lambda":
			if params := node.ChildByFieldName("parameters"); params != nil {
				walkParameters(params, walk)
			}
			if body := node.ChildByFieldName("body"); body != nil {
				walk(body, false)
			}
			return

		case "keyword_argument":
			// The keyword name is not a value reference.
			if value := node.ChildByFieldName("value"); value != nil {
				walk(value, false)
			}
			return

		case "as_pattern":
			// "expr as target": the expression is loaded, the target bound.
			if node.ChildCount() > 0 {
				walk(node.Child(0), false)
			}
			return

		case "delete_statement":
			// "del x" unbinds x rather than loading it, but "del a.b" and
			// "del x[i]" still dereference the object side.
			walkChildren(node, true)
			return

		case "case_clause":
			ForEachChild(node, func(child *sitter.Node) {
				if child.Type() == "case_pattern" {
					walkCasePattern(child, walk)
				} else {
					walk(child, false) // guard and body are ordinary code
				}
			})
			return

		case "named_expression":
			// walrus: name is a binding, value is loaded
			if value := node.ChildByFieldName("value"); value != nil {
				walk(value, false)
			}
			return

		case "identifier":
			if !store {
				fn(node)
			}
			return

		case "attribute":
			// The attribute-field identifier is never a standalone name; only
			// the object side recurses. "a.b = 1" stores into the attribute
			// but still loads "a".
			if !store {
				fn(node)
			}
			if obj := node.ChildByFieldName("object"); obj != nil {
				walk(obj, false)
			}
			return

		case "subscript":
			// "a[i] = x" stores into the subscript but loads both a and i.
			ForEachChild(node, func(child *sitter.Node) {
				walk(child, false)
			})
			return

		case "pattern_list", "tuple_pattern", "list_pattern", "list_splat_pattern",
			"expression_list":
			walkChildren(node, store)
			return

		default:
			walkChildren(node, false)
		}
	}

	walk(root, false)
}

// walkParameters visits default values and annotations inside a parameter
// list; the parameter names themselves are bindings.
func walkParameters(params *sitter.Node, walk func(*sitter.Node, bool)) {
	ForEachChild(params, func(child *sitter.Node) {
		switch child.Type() {
		case "default_parameter", "typed_default_parameter":
			if value := child.ChildByFieldName("value"); value != nil {
				walk(value, false)
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				walk(typ, false)
			}
		case "typed_parameter":
			if typ := child.ChildByFieldName("type"); typ != nil {
				walk(typ, false)
			}
		}
	})
}

// walkCasePattern visits a match-case pattern. Bare names and splat names are
// captures, so they bind; class names and dotted value patterns dereference
// their leading name.
func walkCasePattern(node *sitter.Node, walk func(*sitter.Node, bool)) {
	switch node.Type() {
	case "identifier", "splat_pattern":
		return
	case "dotted_name":
		if node.NamedChildCount() > 0 {
			walk(node.NamedChild(0), false)
		}
	case "keyword_pattern":
		// the keyword name is matched, not loaded; its value is a pattern
		if node.NamedChildCount() > 1 {
			walkCasePattern(node.NamedChild(1), walk)
		}
	case "as_pattern":
		if node.NamedChildCount() > 0 {
			walkCasePattern(node.NamedChild(0), walk)
		}
	default:
		ForEachChild(node, func(child *sitter.Node) {
			walkCasePattern(child, walk)
		})
	}
}

// sameNode reports whether two nodes cover the same source range. Wrapper
// pointers from different lookups are not comparable directly.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}
