package xquery

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func findExpr[T Expr](e Expr) (T, bool) {
	var (
		res   T
		found bool
	)
	Inspect(e, func(e Expr) bool {
		if found {
			return false
		}
		res, found = e.(T)
		return !found
	})
	return res, found
}

func TestFTRange(t *testing.T) {
	tests := []struct {
		Query string
		From  int64
		To    int64
	}{
		{Query: "'a' contains text 'b' occurs exactly 3 times", From: 3, To: 3},
		{Query: "'a' contains text 'b' occurs from 2 to 5 times", From: 2, To: 5},
		{Query: "'a' contains text 'b' occurs at least 2 times", From: 2, To: math.MaxInt64},
		{Query: "'a' contains text 'b' occurs at most 4 times", From: 0, To: 4},
	}
	for _, c := range tests {
		mod, err := ParseMain(c.Query)
		if err != nil {
			t.Errorf("%s: fail to parse query: %s", c.Query, err)
			continue
		}
		words, ok := findExpr[*FTWords](mod.Body)
		if !ok || words.Occurs == nil {
			t.Errorf("%s: occurrence range not found in %s", c.Query, Debug(mod.Body))
			continue
		}
		from, to, ok := words.Occurs.Bounds()
		if !ok {
			t.Errorf("%s: bounds are not literals", c.Query)
			continue
		}
		if from != c.From || to != c.To {
			t.Errorf("%s: bounds mismatched! want [%d, %d], got [%d, %d]", c.Query, c.From, c.To, from, to)
		}
	}
}

func TestFTDistance(t *testing.T) {
	mod, err := ParseMain("'a' contains text ('b' ftand 'c') distance from 1 to 3 words")
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	dist, ok := findExpr[*FTDistance](mod.Body)
	if !ok {
		t.Fatalf("distance not found in %s", Debug(mod.Body))
	}
	from, to, ok := dist.Range.Bounds()
	if !ok || from != 1 || to != 3 {
		t.Errorf("distance bounds mismatched! want [1, 3], got [%d, %d]", from, to)
	}
}

func TestFTOptions(t *testing.T) {
	tests := []struct {
		Query string
		Code  string
	}{
		{Query: "'a' contains text 'b' using case insensitive using diacritics sensitive"},
		{Query: "'a' contains text 'b' using stemming using language 'en'"},
		{Query: "'a' contains text 'b' using wildcards using no fuzzy"},
		{Query: "'a' contains text 'b' using stop words ('the', 'a') except ('a')"},
		{Query: "'a' contains text 'b' using thesaurus default"},
		{Query: "'a' contains text 'b' using lowercase using uppercase", Code: "FTST0019"},
		{Query: "'a' contains text 'b' using language 'en' using language 'fr'", Code: "FTST0019"},
		{Query: "'a' contains text 'b' using wildcards using fuzzy", Code: "XQPR0002"},
		{Query: "'a' contains text 'b' using stop words at 'missing.txt'", Code: "FTST0008"},
	}
	for _, c := range tests {
		_, err := ParseMain(c.Query, WithLoader(MapLoader{}))
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

func TestFTStopWords(t *testing.T) {
	loader := MapLoader{
		"/queries/stop.txt": "the a an\nof",
	}
	query := "'a' contains text 'b' using stop words at 'stop.txt' union ('to') except ('an')"
	mod, err := ParseMain(query, WithFile("/queries/main.xq"), WithLoader(loader))
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	opts, ok := findExpr[*FTOptions](mod.Body)
	if !ok || opts.Options.StopWords == nil {
		t.Fatalf("stop words not found in %s", Debug(mod.Body))
	}
	want := []string{"the", "a", "of", "to"}
	if diff := cmp.Diff(want, opts.Options.StopWords.Words); diff != "" {
		t.Errorf("stop words mismatched (-want +got)\n%s", diff)
	}
}
