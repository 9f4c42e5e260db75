package xquery

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDebug(t *testing.T) {
	tests := []struct {
		Query    string
		Expected string
	}{
		{
			Query:    "1 + 2 * 3",
			Expected: "arith(1, +, arith(2, *, 3))",
		},
		{
			Query:    "1 - 2 + 3",
			Expected: "arith(1, -, 2, +, 3)",
		},
		{
			Query:    "(1, 2, 3)",
			Expected: "seq(1, 2, 3)",
		},
		{
			Query:    "()",
			Expected: "seq()",
		},
		{
			Query:    "((1))",
			Expected: "1",
		},
		{
			Query:    "-1",
			Expected: "-1",
		},
		{
			Query:    "-(-1)",
			Expected: "1",
		},
		{
			Query:    "'a' || 'b'",
			Expected: `concat("a", "b")`,
		},
		{
			Query:    "1 to 3",
			Expected: "range(1, 3)",
		},
		{
			Query:    "1 eq 2",
			Expected: "cmp(eq, 1, 2)",
		},
		{
			Query:    "1 = 2 or 3 != 4 and 5 < 6",
			Expected: "or(cmp(=, 1, 2), and(cmp(!=, 3, 4), cmp(<, 5, 6)))",
		},
		{
			Query:    "for $x in (1, 2, 3) return $x",
			Expected: "flwor(for($x, seq(1, 2, 3)), return(var($x)))",
		},
		{
			Query:    "let $x := 1 where $x > 0 return $x",
			Expected: "flwor(let($x, 1), where(cmp(>, var($x), 0)), return(var($x)))",
		},
		{
			Query:    "for $x at $i in 1 to 3 count $c return $c",
			Expected: "flwor(for($x, at($i), range(1, 3)), count($c), return(var($c)))",
		},
		{
			Query:    "if (1) then 2 else 3",
			Expected: "if(1, 2, 3)",
		},
		{
			Query:    "true() ?? 1 !! 2",
			Expected: "if(call(true), 1, 2)",
		},
		{
			Query:    "() ?: 1",
			Expected: "otherwise(seq(), 1)",
		},
		{
			Query:    "some $x in (1, 2) satisfies $x",
			Expected: "some(bind($x, seq(1, 2)), satisfies(var($x)))",
		},
		{
			Query:    "99999999999999999999",
			Expected: "range-error(99999999999999999999, FOAR0002)",
		},
		{
			Query:    "map { 'a': 1 }",
			Expected: `map(entry("a", 1))`,
		},
		{
			Query:    "[1, 2]",
			Expected: "array(1, 2)",
		},
		{
			Query:    "array { 1 }",
			Expected: "curly-array(1)",
		},
		{
			Query:    "count#1",
			Expected: "ref(count#1)",
		},
		{
			Query:    "/",
			Expected: "root",
		},
		{
			Query:    "let $x := <a/> return $x/b",
			Expected: "flwor(let($x, element(a)), return(path(var($x), step(child, name(b)))))",
		},
		{
			Query:    "copy $c := <a/> modify delete node $c/b return $c",
			Expected: "copy(bind($c, element(a)), modify(delete(path(var($c), step(child, name(b))))), return(var($c)))",
		},
		{
			Query:    "'a' contains text 'b' occurs exactly 2 times",
			Expected: `contains("a", words("b", any, occurs(2, 2)))`,
		},
	}
	for _, c := range tests {
		mod, err := ParseMain(c.Query)
		if err != nil {
			t.Errorf("%s: fail to parse query: %s", c.Query, err)
			continue
		}
		got := Debug(mod.Body)
		if diff := cmp.Diff(c.Expected, got); diff != "" {
			t.Errorf("%s: tree mismatched (-want +got)\n%s", c.Query, diff)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	tests := []string{
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"-(-1)",
		"let $x := 1 return -$x",
		"'it''s' || \"a \"\"quoted\"\" &amp; text\"",
		"(1, 2, 3)[. > 1][1]",
		"/",
		"//item[@id = 1]",
		"/root/child::item/@name",
		"../item/text()",
		"let $x := 1 return $x",
		"for $x allowing empty at $i in (1, 2) where $x > 1 order by $x descending empty least return ($x, $i)",
		"for $x in 1 to 10 let $y := $x * 2 group by $k := $y mod 3 order by $k return $k",
		"for tumbling window $w in 1 to 10 start $s at $i when true() end $e when $e - $s eq 2 return $w",
		"for sliding window $w in 1 to 10 start $f when true() only end $l when $l - $f eq 2 return count($w)",
		"some $x in (1, 2), $y in (3, 4) satisfies $x < $y",
		"if (1) then 2 else if (3) then 4 else 5",
		"if (1) { 2 }",
		"switch (1) case 1 case 2 return 'a' default return 'b'",
		"typeswitch (1) case $i as xs:integer return $i case xs:string | xs:double return 0 default $d return $d",
		"try { error() } catch err:FOER0000 | err:FOAR0001 { $err:code } catch * { 0 }",
		"function($x as xs:integer) as xs:integer { $x + 1 }(1)",
		"concat#2, concat('a', ?)",
		"map { 'a': 1, 'b': [1, 2] }?a",
		"[1, 2, 3]?*, array { 1 }",
		"(1, 2) ! (. * 2)",
		"'abc' => upper-case() => substring(1, 2)",
		"1 instance of xs:integer+",
		"1 treat as xs:integer?",
		"'1' cast as xs:integer?",
		"'1' castable as xs:integer",
		"let $a := <a/> let $b := <b/> return ($a union $b) intersect $a except $b",
		"(1, 2) otherwise 3",
		"true() ?? 1 !! 2",
		"<item id=\"1\" name=\"a{ 1 }b\">{ 1 + 1 }<child/>text &amp; more</item>",
		"<a xmlns:x=\"urn:x\"><x:b/></a>",
		"element item { attribute id { 1 }, text { 'a' } }",
		"document { <root/> }, comment { 'a' }, processing-instruction pi { 'b' }",
		"(# xq:pragma content #) { 1 }",
		"ordered { 1 }, unordered { 2 }",
		"'abc' contains text 'a' ftand 'b' using stemming",
		"'abc' contains text ('a' ftor 'b') not in 'c'",
		"'abc' contains text 'a' all words occurs at least 2 times",
		"'abc' contains text ('a' ftand 'b') ordered window 5 words",
		"'abc' contains text ('a' ftand 'b') distance at most 3 sentences",
		"'abc' contains text ftnot 'a' weight { 0.5 }",
		"copy $c := <a/> modify delete node $c/b return $c",
		"<a/> transform with { insert node <b/> as first into . }",
		"copy $c := <a/> modify (rename node $c as 'b', replace value of node $c with 'x') return $c",
	}
	for _, str := range tests {
		mod, err := ParseMain(str)
		if err != nil {
			t.Errorf("%s: fail to parse query: %s", str, err)
			continue
		}
		out := Format(mod.Body)
		again, err := ParseMain(out)
		if err != nil {
			t.Errorf("%s: fail to parse formatted query %q: %s", str, out, err)
			continue
		}
		if diff := cmp.Diff(Debug(mod.Body), Debug(again.Body)); diff != "" {
			t.Errorf("%s: formatted query %q does not produce the same tree (-want +got)\n%s", str, out, diff)
		}
	}
}

func TestFormatModule(t *testing.T) {
	query := `declare namespace x = 'urn:x';
declare variable $x:v as xs:integer := 1;
declare %private function local:f($a as xs:integer) as xs:integer { $a + $x:v };
local:f(2)`

	mod, err := ParseMain(query)
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	out := FormatModule(mod)
	for _, str := range []string{"declare namespace x", "declare variable $x:v", "%private", "local:f"} {
		if !strings.Contains(out, str) {
			t.Errorf("%q missing from formatted module:\n%s", str, out)
		}
	}
	again, err := ParseMain(out)
	if err != nil {
		t.Fatalf("fail to parse formatted module: %s\n%s", err, out)
	}
	if diff := cmp.Diff(Debug(mod.Body), Debug(again.Body)); diff != "" {
		t.Errorf("body mismatched (-want +got)\n%s", diff)
	}
	if len(again.Functions) != 1 || len(again.Variables) != 1 {
		t.Errorf("declarations lost after formatting")
	}
}
