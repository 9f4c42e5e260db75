package xquery

import (
	"testing"
)

func TestUpdating(t *testing.T) {
	tests := []struct {
		Query    string
		Updating bool
	}{
		{Query: "1", Updating: false},
		{Query: "delete node <a/>/b", Updating: true},
		{Query: "insert node <b/> into <a/>", Updating: true},
		{Query: "rename node <a/> as 'b'", Updating: true},
		{Query: "replace value of node <a/> with 'b'", Updating: true},
		{Query: "for $n in <a/>/b return delete node $n", Updating: true},
		{Query: "if (1) then delete node <a/> else ()", Updating: true},
		{Query: "if (1) then delete node <a/> else error()", Updating: true},
		{Query: "copy $c := <a/> modify delete node $c/b return $c", Updating: false},
		{Query: "<a/> transform with { delete node ./b }", Updating: false},
		{Query: "declare updating function local:f() { delete node <a/> }; local:f()", Updating: true},
		{Query: "declare %updating function local:f() { delete node <a/> }; local:f()", Updating: true},
	}
	for _, c := range tests {
		mod, err := ParseMain(c.Query)
		if err != nil {
			t.Errorf("%s: fail to parse query: %s", c.Query, err)
			continue
		}
		if mod.Updating != c.Updating {
			t.Errorf("%s: updating flag mismatched! want %t, got %t", c.Query, c.Updating, mod.Updating)
		}
	}
}

func TestUpdatingMix(t *testing.T) {
	tests := []string{
		"(delete node <a/>, 1)",
		"if (1) then delete node <a/> else 2",
		"if (delete node <a/>) then 1 else 2",
		"let $x := delete node <a/> return $x",
		"for $n in <a/>/b return (delete node $n, $n)",
		"switch (1) case 1 return delete node <a/> default return 0",
		"declare function local:f() { delete node <a/> }; local:f()",
		"declare variable $v := delete node <a/>; $v",
		"copy $c := <a/> modify delete node $c/b return delete node $c",
		"function() { delete node <a/> }",
	}
	for _, str := range tests {
		_, err := ParseMain(str)
		if got := errorCode(err); got != CodeUpdatingMix {
			t.Errorf("%s: error code mismatched! want %s, got %q (%v)", str, CodeUpdatingMix, got, err)
		}
		if _, err = ParseMain(str, WithMixUpdates(true)); err != nil {
			t.Errorf("%s: mixing updates should be allowed: %s", str, err)
		}
	}
}

func TestUpdatingCall(t *testing.T) {
	query := "let $f := %updating function($n) { delete node $n } return invoke updating $f(<a/>)"
	mod, err := ParseMain(query)
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	if !mod.Updating {
		t.Errorf("query should be updating")
	}
	var found bool
	Inspect(mod.Body, func(e Expr) bool {
		if c, ok := e.(*UpdatingCall); ok {
			found = c.Updating
		}
		return true
	})
	if !found {
		t.Errorf("updating call not found in %s", Debug(mod.Body))
	}
}
