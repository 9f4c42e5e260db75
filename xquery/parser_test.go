package xquery

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func errorCode(err error) string {
	var qe QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

func TestParse(t *testing.T) {
	tests := []string{
		"1",
		"1 + 2 * 3",
		"'hello' || \"world\"",
		"(1, 2, 3)[. > 1]",
		"()",
		"1 to 10",
		"-1",
		"+-+1",
		"2.5e3 div 1.5",
		"/",
		"//item",
		"/root/child::item[@id = 1]/@name",
		"../item",
		"descendant-or-self::node()/text()",
		"element(item)",
		"let $x := 1 return $x",
		"for $x at $i in (1, 2, 3) where $x > 1 order by $x descending return $i",
		"for $x allowing empty in () return $x",
		"for $x in 1 to 10 group by $k := $x mod 2 return $k",
		"for tumbling window $w in 1 to 10 start at $s when true() end at $e when $e - $s eq 2 return $w",
		"for sliding window $w in 1 to 10 start $f when true() only end $l when $l - $f eq 2 return $w",
		"for $x in 1 to 10 count $c return $c",
		"some $x in (1, 2) satisfies $x = 2",
		"every $x in (1, 2), $y in (3, 4) satisfies $x < $y",
		"if (true()) then 1 else 2",
		"if (true()) { 1 }",
		"if (1) then 2",
		"switch (1) case 1 return 'a' case 2 case 3 return 'b' default return 'c'",
		"typeswitch (1) case $i as xs:integer return $i case xs:string | xs:double return 0 default $d return $d",
		"try { 1 div 0 } catch err:FOAR0001 { $err:code } catch * { 0 }",
		"function($x as xs:integer) as xs:integer { $x + 1 }(1)",
		"fn:concat#3",
		"concat('a', ?)",
		"map { 'a': 1, 'b': 2 }?a",
		"[1, 2, 3]?*",
		"array { 1, 2 }(1)",
		"(1, 2) ! (. * 2)",
		"'abc' => upper-case()",
		"'abc' => substring(1, 2)",
		"1 instance of xs:integer",
		"1 treat as xs:integer",
		"'1' cast as xs:integer?",
		"'1' castable as xs:integer",
		"let $a := <a/> let $b := <b/> return $a union $b",
		"(1, 2) otherwise 3",
		"true() ?? 1 !! 2",
		"() ?: 1",
		"<item id=\"1\">{ 1 + 1 }<child/>text</item>",
		"<a xmlns:x=\"urn:x\"><x:b/></a>",
		"<!-- comment --> , <?pi content?>",
		"element item { attribute id { 1 }, text { 'a' } }",
		"document { <root/> }",
		"comment { 'a' }, processing-instruction pi { 'b' }",
		"namespace x { 'urn:x' }",
		"``[Hello `{ 'world' }`!]``",
		"(# xq:pragma content #) { 1 }",
		"ordered { 1 }, unordered { 2 }",
		"declare variable $x := 1; $x",
		"declare function local:f($a) { $a }; local:f(1)",
		"declare namespace x = 'urn:x'; <x:a/>",
		"declare default element namespace 'urn:x'; <a/>",
		"declare boundary-space preserve; <a> </a>",
		"declare option output:indent 'yes'; declare option xq:timeout '10'; 1",
		"declare context item as node() external; .",
		"declare decimal-format local:df grouping-separator = ','; 1",
		"xquery version '3.1'; 1",
		"xquery version '3.1' encoding 'utf-8'; 1",
		"(: comment (: nested :) :) 1",
		"declare variable $x external; $x",
		"declare variable $x external := 1; $x",
		"let $f := function() { 1 } return $f()",
		"let $a := 1 return let $b := 2 return $a + $b",
		"'abc' contains text 'b'",
		"'abc' contains text 'a' ftand 'b' using stemming",
		"copy $c := <a/> modify delete node $c/b return $c",
		"<a/> transform with { insert node <b/> into . }",
	}
	for _, str := range tests {
		_, err := ParseMain(str)
		if err != nil {
			t.Errorf("%s: fail to parse query: %s", str, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		Query string
		Code  string
	}{
		{Query: "", Code: CodeSyntax},
		{Query: "(: not closed", Code: CodeSyntax},
		{Query: "(1, 2", Code: CodeSyntax},
		{Query: "[1, 2", Code: CodeSyntax},
		{Query: "map { 'a': 1", Code: CodeSyntax},
		{Query: "1 +", Code: CodeSyntax},
		{Query: "1 2", Code: CodeSyntax},
		{Query: "if (1) { 2", Code: CodeSyntax},
		{Query: "function() { 1", Code: CodeSyntax},
		{Query: "for $x in 1", Code: CodeSyntax},
		{Query: "let $x = 1 return $x", Code: CodeSyntax},
		{Query: "<a></b>", Code: "XQST0118"},
		{Query: "<a x=\"1\" x=\"2\"/>", Code: CodeDuplicateAttr},
		{Query: "$undefined", Code: CodeUndefinedVar},
		{Query: "let $x := 1 return $y", Code: CodeUndefinedVar},
		{Query: "for $x at $x in (1, 2) return $x", Code: "XQST0089"},
		{Query: "unknown:f()", Code: CodeUnboundPrefix},
		{Query: "<unknown:a/>", Code: CodeUnboundPrefix},
		{Query: "declare variable $x := 1; declare variable $x := 2; $x", Code: "XQST0049"},
		{Query: "declare function local:f() { 1 }; declare function local:f() { 2 }; 1", Code: "XQST0034"},
		{Query: "declare function f() { 1 }; 1", Code: "XQST0045"},
		{Query: "declare function local:f($a, $a) { 1 }; 1", Code: "XQST0039"},
		{Query: "declare boundary-space strip; declare boundary-space preserve; 1", Code: "XQST0068"},
		{Query: "declare variable $x := 1; declare boundary-space strip; 1", Code: CodeSyntax},
		{Query: "module namespace a = 'urn:a'; declare variable $a:x := 1;", Code: CodeSyntax},
		{Query: "xquery version '2.0'; 1", Code: "XQST0031"},
		{Query: "xquery version '3.1' encoding 'ebcdic'; 1", Code: "XQST0087"},
		{Query: "validate { <a/> }", Code: "XQST0075"},
		{Query: "import schema 'urn:x'; 1", Code: "XQST0009"},
		{Query: "'abc' contains text 'a' using stemming using stemming", Code: "FTST0019"},
		{Query: "declare option xq:timout '10'; 1", Code: "XQPR0007"},
	}
	for _, c := range tests {
		_, err := ParseMain(c.Query)
		if err == nil {
			t.Errorf("%q: expected error %s but query parsed", c.Query, c.Code)
			continue
		}
		if got := errorCode(err); got != c.Code {
			t.Errorf("%q: error code mismatched! want %s, got %s (%s)", c.Query, c.Code, got, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		Query string
		Err   error
	}{
		{Query: "(1", Err: ErrSyntax},
		{Query: "$x", Err: ErrBinding},
		{Query: "<a x=\"1\" x=\"2\"/>", Err: ErrSemantic},
		{Query: "validate { <a/> }", Err: ErrUnsupported},
		{Query: "1 \u0001", Err: ErrLexical},
		{Query: "'a\xffb'", Err: ErrLexical},
	}
	for _, c := range tests {
		_, err := ParseMain(c.Query)
		if !errors.Is(err, c.Err) {
			t.Errorf("%q: expected %s, got %v", c.Query, c.Err, err)
		}
	}
}

func TestInvalidEncoding(t *testing.T) {
	tests := []struct {
		Query  string
		Offset int
	}{
		{Query: "'a\xffb'", Offset: 2},
		{Query: "1 +\n 'é\xc3'", Offset: 7},
		{Query: "\x80", Offset: 0},
	}
	for _, c := range tests {
		_, err := ParseMain(c.Query)
		var qe QueryError
		if !errors.As(err, &qe) {
			t.Errorf("%q: expected query error, got %v", c.Query, err)
			continue
		}
		if qe.Kind != LexicalError || qe.Offset != c.Offset {
			t.Errorf("%q: unexpected error at offset %d: %s", c.Query, qe.Offset, qe)
		}
	}
	mod, err := ParseMain("'a\uFFFDb'")
	if err != nil {
		t.Fatalf("replacement character should be accepted: %s", err)
	}
	if got, want := Debug(mod.Body), "\"a\uFFFDb\""; got != want {
		t.Errorf("literal mismatched! want %s, got %s", want, got)
	}
}

func TestVariableDecl(t *testing.T) {
	mod, err := ParseMain("declare variable $x as xs:integer := 1; $x")
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	decl, ok := mod.Variable(LocalName("x"))
	if !ok {
		t.Fatalf("variable $x not declared")
	}
	if !decl.Var.Global || decl.Var.Type == nil {
		t.Errorf("$x should be a typed global variable")
	}
	ref, ok := mod.Body.(*VarRef)
	if !ok {
		t.Fatalf("unexpected body %s", Debug(mod.Body))
	}
	if ref.Var != decl.Var {
		t.Errorf("reference not bound to the declared variable")
	}

	lib, err := ParseLibrary("module namespace a = 'urn:a'; declare variable $a:x := 1;")
	if err != nil {
		t.Fatalf("fail to parse library: %s", err)
	}
	if _, ok := lib.Variable(ExpandedName("urn:a", "x")); !ok {
		t.Errorf("variable $a:x not declared in library")
	}

	tests := []struct {
		Query string
		Code  string
	}{
		{Query: "declare variable x := 1; 1", Code: CodeSyntax},
		{Query: "declare variable $ := 1; 1", Code: CodeSyntax},
		{Query: "module namespace a = 'urn:a'; declare variable $x := 1;", Code: "XQST0048"},
	}
	for _, c := range tests {
		_, err := Parse(c.Query)
		if got := errorCode(err); got != c.Code {
			t.Errorf("%s: error code mismatched! want %s, got %q (%v)", c.Query, c.Code, got, err)
		}
	}
}

func TestUnboundPrefix(t *testing.T) {
	tests := []struct {
		Query string
		Hint  string
	}{
		{Query: "locl:f()", Hint: "did you mean local?"},
		{Query: "declare namespace example = 'urn:ex'; exampel:f()", Hint: "did you mean example?"},
		{Query: "<a><exampl:b/></a>", Hint: ""},
	}
	for _, c := range tests {
		_, err := ParseMain(c.Query)
		if got := errorCode(err); got != CodeUnboundPrefix {
			t.Errorf("%s: error code mismatched! want %s, got %q (%v)", c.Query, CodeUnboundPrefix, got, err)
			continue
		}
		if c.Hint != "" && !strings.Contains(err.Error(), c.Hint) {
			t.Errorf("%s: hint %q not found in %s", c.Query, c.Hint, err)
		}
	}
}

func TestIntegerRange(t *testing.T) {
	mod, err := ParseMain("99999999999999999999")
	if err != nil {
		t.Fatalf("integer overflow should not fail at parse time: %s", err)
	}
	rg, ok := mod.Body.(*RangeError)
	if !ok {
		t.Fatalf("range error expected, got %T", mod.Body)
	}
	if rg.Code != CodeIntegerRange {
		t.Errorf("code mismatched! want %s, got %s", CodeIntegerRange, rg.Code)
	}
}

func TestMaxDepth(t *testing.T) {
	query := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)
	if _, err := ParseMain(query); err != nil {
		t.Fatalf("unexpected error with default depth: %s", err)
	}
	_, err := ParseMain(query, WithMaxDepth(10))
	if got := errorCode(err); got != CodeTooDeep {
		t.Fatalf("error code mismatched! want %s, got %s (%v)", CodeTooDeep, got, err)
	}
}

func TestIsLibrary(t *testing.T) {
	tests := []struct {
		Query string
		Want  bool
	}{
		{Query: "1", Want: false},
		{Query: "module namespace a = 'urn:a';", Want: true},
		{Query: "xquery version '3.1'; module namespace a = 'urn:a';", Want: true},
		{Query: "(: doc :) module   namespace a = 'urn:a';", Want: true},
		{Query: "module", Want: false},
		{Query: "declare namespace a = 'urn:a'; 1", Want: false},
	}
	for _, c := range tests {
		if got := IsLibrary(c.Query); got != c.Want {
			t.Errorf("%q: library mismatched! want %t, got %t", c.Query, c.Want, got)
		}
	}
}

func TestQueryError(t *testing.T) {
	query := "let $x := 1\nreturn $y"
	_, err := ParseMain(query, WithFile("test.xq"))
	if err == nil {
		t.Fatalf("expected error")
	}
	var qe QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("QueryError expected, got %T", err)
	}
	if qe.Line != 2 {
		t.Errorf("line mismatched! want 2, got %d", qe.Line)
	}
	if !strings.HasPrefix(err.Error(), "[XPST0008] test.xq:2:") {
		t.Errorf("unexpected message: %s", err)
	}
	snip := Snippet(err, query)
	if !strings.Contains(snip, "return $y") || !strings.Contains(snip, "^") {
		t.Errorf("unexpected snippet: %s", snip)
	}
}

func TestDocComments(t *testing.T) {
	query := `(:~ module documentation :)
module namespace a = 'urn:a';

(:~ the answer :)
declare variable $a:x := 42;

(:~
 : add one
 :)
declare function a:f($v) { $v + 1 };
`
	lib, err := ParseLibrary(query)
	if err != nil {
		t.Fatalf("fail to parse library: %s", err)
	}
	if lib.Doc != "module documentation" {
		t.Errorf("module doc mismatched: %q", lib.Doc)
	}
	if len(lib.Variables) != 1 || lib.Variables[0].Doc != "the answer" {
		t.Errorf("variable doc not captured")
	}
	if len(lib.Functions) != 1 || !strings.Contains(lib.Functions[0].Doc, "add one") {
		t.Errorf("function doc not captured")
	}
}

func TestFlworBinding(t *testing.T) {
	query := "let $x := 0 return for $x in (1, 2, 3) return $x"
	mod, err := ParseMain(query)
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	outer, ok := mod.Body.(*FLWOR)
	if !ok {
		t.Fatalf("flwor expected, got %T", mod.Body)
	}
	inner, ok := outer.Return.(*FLWOR)
	if !ok || len(inner.Clauses) != 1 {
		t.Fatalf("inner flwor expected, got %s", Debug(outer.Return))
	}
	clause, ok := inner.Clauses[0].(*ForClause)
	if !ok {
		t.Fatalf("for clause expected, got %T", inner.Clauses[0])
	}
	if seq, ok := clause.In.(*Sequence); !ok || len(seq.Items) != 3 {
		t.Errorf("sequence of 3 items expected, got %s", Debug(clause.In))
	}
	ref, ok := inner.Return.(*VarRef)
	if !ok {
		t.Fatalf("variable reference expected, got %T", inner.Return)
	}
	if ref.Var != clause.Var {
		t.Errorf("$x should be bound by the for clause")
	}
}

func TestDirectAttributes(t *testing.T) {
	mod, err := ParseMain(`<a x="1" y="2"/>`)
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	elem, ok := mod.Body.(*ElementConstructor)
	if !ok {
		t.Fatalf("element constructor expected, got %T", mod.Body)
	}
	var names []string
	for _, a := range elem.Attrs {
		names = append(names, a.Name.Local)
	}
	if diff := cmp.Diff([]string{"x", "y"}, names); diff != "" {
		t.Errorf("attributes mismatched (-want +got)\n%s", diff)
	}
}
