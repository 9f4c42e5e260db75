package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gobwas/glob"
	"github.com/google/go-cmp/cmp"
)

func TestIndentTree(t *testing.T) {
	tests := []struct {
		Tree     string
		Expected string
	}{
		{
			Tree:     "seq()",
			Expected: "seq()",
		},
		{
			Tree:     "call(f, 1, 2)",
			Expected: "call(\n  f,\n  1,\n  2\n)",
		},
		{
			Tree:     `concat("a(, b", 1)`,
			Expected: "concat(\n  \"a(, b\",\n  1\n)",
		},
	}
	for _, c := range tests {
		got := indentTree(c.Tree)
		if diff := cmp.Diff(c.Expected, got); diff != "" {
			t.Errorf("%s: indented tree mismatched (-want +got)\n%s", c.Tree, diff)
		}
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.xq", "lib/b.xqm", "lib/readme.md", "c.xquery"} {
		file := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(file, []byte("1"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	match := glob.MustCompile(defaultInclude, '/')
	files, err := collectFiles([]string{dir}, match)
	if err != nil {
		t.Fatalf("fail to collect files: %s", err)
	}
	want := []string{
		filepath.Join(dir, "a.xq"),
		filepath.Join(dir, "c.xquery"),
		filepath.Join(dir, "lib", "b.xqm"),
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("files mismatched (-want +got)\n%s", diff)
	}
}
