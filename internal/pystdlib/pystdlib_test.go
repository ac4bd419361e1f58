package pystdlib

import "testing"

func TestIsStandardModule(t *testing.T) {
	cases := []struct {
		module string
		want   bool
	}{
		{"os", true},
		{"os.path", true},
		{"collections.abc", true},
		{"__future__", true},
		{"numpy", false},
		{"requests", false},
		{"typing_extensions", false},
		{"", false},
		{"osmium", false},
	}
	for _, tc := range cases {
		if got := IsStandardModule(tc.module); got != tc.want {
			t.Fatalf("IsStandardModule(%q) = %v, want %v", tc.module, got, tc.want)
		}
	}
}

func TestModulesTableCoversCommonImports(t *testing.T) {
	for _, name := range []string{"sys", "json", "logging", "datetime", "pathlib", "typing"} {
		if !Modules[name] {
			t.Fatalf("expected %q in standard module table", name)
		}
	}
}
