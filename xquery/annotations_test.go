package xquery

import (
	"testing"
)

func TestAnnotations(t *testing.T) {
	tests := []struct {
		Query string
		Code  string
	}{
		{
			Query: "declare %private function local:f() { 1 }; local:f()",
		},
		{
			Query: "declare %public %xq:inline(2) function local:f() { 1 }; local:f()",
		},
		{
			Query: "declare namespace my = 'urn:my'; declare %my:anything('a', 1) %my:anything function local:f() { 1 }; 1",
		},
		{
			Query: "declare %xq:lock('a', 'b') %xq:lock('c') function local:f() { 1 }; 1",
		},
		{
			Query: "declare %private %private function local:f() { 1 }; 1",
			Code:  "XQPR0006",
		},
		{
			Query: "declare %public %private function local:f() { 1 }; 1",
			Code:  "XQST0106",
		},
		{
			Query: "declare %public %private variable $x := 1; 1",
			Code:  "XQST0106",
		},
		{
			Query: "declare %fn:anything function local:f() { 1 }; 1",
			Code:  "XQST0045",
		},
		{
			Query: "declare %xq:inlined function local:f() { 1 }; 1",
			Code:  "XQPR0003",
		},
		{
			Query: "declare %xq:inline(1, 2) function local:f() { 1 }; 1",
			Code:  "XQPR0004",
		},
		{
			Query: "declare %xq:inline('a') function local:f() { 1 }; 1",
			Code:  "XQPR0005",
		},
		{
			Query: "declare %updating variable $x := 1; 1",
			Code:  "XUST0032",
		},
	}
	for _, c := range tests {
		_, err := ParseMain(c.Query)
		if c.Code == "" {
			if err != nil {
				t.Errorf("%s: fail to parse query: %s", c.Query, err)
			}
			continue
		}
		if got := errorCode(err); got != c.Code {
			t.Errorf("%s: error code mismatched! want %s, got %q (%v)", c.Query, c.Code, got, err)
		}
	}
}

func TestAnnotationsDecl(t *testing.T) {
	query := "declare %private %xq:deprecated('use g') function local:f() { 1 }; local:f()"
	mod, err := ParseMain(query)
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	fn, ok := mod.Function(ExpandedName(LocalURI, "f"), 0)
	if !ok {
		t.Fatalf("function local:f#0 not found")
	}
	if !fn.Private() {
		t.Errorf("function should be private")
	}
	if !hasAnnotation(fn.Annotations, XqURI, "deprecated") {
		t.Errorf("deprecated annotation not found")
	}
}
