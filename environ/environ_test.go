package environ

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnclosed(t *testing.T) {
	root := Empty[string]()
	root.Define("xs", "http://www.w3.org/2001/XMLSchema")
	root.Define("fn", "http://www.w3.org/2005/xpath-functions")

	child := Enclosed[string](root)
	child.Define("fn", "urn:fn")
	child.Define("ex", "urn:example")

	tests := []struct {
		Ident string
		Want  string
	}{
		{Ident: "xs", Want: "http://www.w3.org/2001/XMLSchema"},
		{Ident: "fn", Want: "urn:fn"},
		{Ident: "ex", Want: "urn:example"},
	}
	for _, c := range tests {
		got, err := child.Resolve(c.Ident)
		if err != nil {
			t.Errorf("%s: fail to resolve: %s", c.Ident, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%s: value mismatched! want %s, got %s", c.Ident, c.Want, got)
		}
	}
	if _, err := child.Resolve("unknown"); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected undefined error, got %v", err)
	}
	if _, err := root.Resolve("ex"); !errors.Is(err, ErrUndefined) {
		t.Errorf("parent should not see child definitions")
	}
	if child.Parent() != Environ[string](root) {
		t.Errorf("parent mismatched")
	}
	if diff := cmp.Diff([]string{"xs", "fn", "ex"}, child.All()); diff != "" {
		t.Errorf("names mismatched (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff([]string{"fn", "ex"}, child.Names()); diff != "" {
		t.Errorf("local names mismatched (-want +got)\n%s", diff)
	}
}

func TestDefineUnique(t *testing.T) {
	env := Empty[int]()
	if err := env.DefineUnique("x", 1); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := env.DefineUnique("x", 2); !errors.Is(err, ErrDefined) {
		t.Errorf("expected defined error, got %v", err)
	}
	if v, ok := env.Lookup("x"); !ok || v != 1 {
		t.Errorf("value mismatched! want 1, got %d", v)
	}
}
