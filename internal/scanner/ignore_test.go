package scanner

import "testing"

func TestExcludeRuleMatch(t *testing.T) {
	tests := []struct {
		rule  string
		path  string
		match bool
	}{
		// bare names match a trailing run at any depth
		{"setup.py", "setup.py", true},
		{"setup.py", "tools/setup.py", true},
		{"setup.py", "setup.py/extra.py", false},

		// globs apply per segment, at any starting depth
		{"generated_*.py", "generated_pb2.py", true},
		{"generated_*.py", "api/generated_v1.py", true},
		{"test_?.py", "pkg/test_a.py", true},
		{"test_?.py", "pkg/test_ab.py", false},
		{"[._]*.py", "pkg/_private.py", true},

		// directory rules take the whole subtree, anywhere in the path
		{"migrations/", "migrations/m0001.py", true},
		{"migrations/", "app/migrations/m0001.py", true},
		{"migrations/", "app/my_migrations/m0001.py", false},
		{"build/", "src/build/gen/out.py", true},

		// rooted rules only match from the scan root
		{"/conf.py", "conf.py", true},
		{"/conf.py", "docs/conf.py", false},
		{"/docs/", "docs/conf.py", true},
		{"/docs/", "site/docs/conf.py", false},

		// ** spans directories
		{"**/fixtures/", "a/b/fixtures/data.py", true},
		{"proto/**/gen.py", "proto/gen.py", true},
		{"proto/**/gen.py", "proto/v1/api/gen.py", true},
		{"proto/**/gen.py", "other/v1/gen.py", false},

		// a malformed glob segment matches nothing
		{"bad[.py", "bad[.py", false},
	}
	for _, tt := range tests {
		rule := ParseExclude(tt.rule)
		if got := rule.Match(tt.path); got != tt.match {
			t.Errorf("ParseExclude(%q).Match(%q) = %v, want %v",
				tt.rule, tt.path, got, tt.match)
		}
	}
}

func TestExcludeRuleNegation(t *testing.T) {
	rule := ParseExclude("!keep_me.py")
	if !rule.Negated() {
		t.Fatal("expected a negated rule")
	}
	if !rule.Match("gen/keep_me.py") {
		t.Fatal("negated rule should still match its path")
	}

	rules := []ExcludeRule{
		ParseExclude("gen/"),
		ParseExclude("!keep_me.py"),
	}
	if excluded("gen/keep_me.py", rules) {
		t.Error("negation should re-include gen/keep_me.py")
	}
	if !excluded("gen/dropped.py", rules) {
		t.Error("gen/dropped.py should stay excluded")
	}
}
