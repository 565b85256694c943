package pysrc

import (
	"sort"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

// loadedNames collects the text of every identifier reported as a load.
func loadedNames(mod *Module) []string {
	seen := map[string]bool{}
	WalkLoads(mod.Root, func(node *sitter.Node) {
		if node.Type() == "identifier" {
			seen[NodeText(node, mod.Source)] = true
		}
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestWalkLoads(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected []string
	}{
		{
			name:     "assignment target is not a load",
			code:     "x = y\n",
			expected: []string{"y"},
		},
		{
			name:     "augmented assignment target is not a load",
			code:     "x += y\n",
			expected: []string{"y"},
		},
		{
			name:     "tuple unpacking",
			code:     "a, b = c, d\n",
			expected: []string{"c", "d"},
		},
		{
			name:     "attribute store still loads the object",
			code:     "obj.field = value\n",
			expected: []string{"obj", "value"},
		},
		{
			name:     "subscript store loads base and index",
			code:     "table[key] = value\n",
			expected: []string{"key", "table", "value"},
		},
		{
			name:     "for target is bound not loaded",
			code:     "for item in items:\n    use(item)\n",
			expected: []string{"item", "items", "use"},
		},
		{
			name:     "comprehension target",
			code:     "result = [f(x) for x in xs]\n",
			expected: []string{"f", "x", "xs"},
		},
		{
			name:     "def name and parameters are bindings",
			code:     "def handler(req, limit=DEFAULT, note: Hint = fallback):\n    return req\n",
			expected: []string{"DEFAULT", "Hint", "fallback", "req"},
		},
		{
			name:     "class name is a binding superclasses are loads",
			code:     "class Child(Base):\n    pass\n",
			expected: []string{"Base"},
		},
		{
			name:     "keyword argument name is not a load",
			code:     "call(timeout=limit)\n",
			expected: []string{"call", "limit"},
		},
		{
			name:     "import statements are skipped",
			code:     "import os\nfrom sys import path\nprint(path)\n",
			expected: []string{"path", "print"},
		},
		{
			name:     "with as target is bound",
			code:     "with open(name) as fh:\n    fh.read()\n",
			expected: []string{"fh", "name", "open"},
		},
		{
			name:     "walrus binds left loads right",
			code:     "if (n := count()):\n    pass\n",
			expected: []string{"count"},
		},
		{
			name:     "lambda parameters are bindings",
			code:     "f = lambda a, b=fallback: a + other\n",
			expected: []string{"a", "fallback", "other"},
		},
		{
			name:     "global declaration is not a load",
			code:     "def f():\n    global counter\n    counter = seed\n",
			expected: []string{"seed"},
		},
		{
			name:     "del target is unbound not loaded",
			code:     "del x, y\n",
			expected: []string{},
		},
		{
			name:     "del of attribute and subscript loads the object side",
			code:     "del obj.field\ndel table[key]\n",
			expected: []string{"key", "obj", "table"},
		},
		{
			name:     "match captures bind class names load",
			code:     "match cmd:\n    case Move(x=px, y=py):\n        go(px, py)\n    case other:\n        skip(other)\n",
			expected: []string{"Move", "cmd", "go", "other", "px", "py", "skip"},
		},
		{
			name:     "match value and as patterns",
			code:     "match color:\n    case palette.RED | palette.BLUE:\n        pass\n    case [first, *rest] as whole if first:\n        use(whole)\n",
			expected: []string{"color", "first", "palette", "use", "whole"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := parseSource(t, tt.code)
			got := loadedNames(mod)
			if len(got) != len(tt.expected) {
				t.Fatalf("loads = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("loads = %v, want %v", got, tt.expected)
				}
			}
		})
	}
}

func TestWalkLoadsReportsAttributeChains(t *testing.T) {
	mod := parseSource(t, "x = a.b.c\n")
	var attrs int
	WalkLoads(mod.Root, func(node *sitter.Node) {
		if node.Type() == "attribute" {
			attrs++
		}
	})
	// a.b.c and its subexpression a.b are both reported
	if attrs != 2 {
		t.Errorf("attribute loads = %d, want 2", attrs)
	}
	names := loadedNames(mod)
	if len(names) != 1 || names[0] != "a" {
		t.Errorf("identifier loads = %v, want [a]", names)
	}
}
