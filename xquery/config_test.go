package xquery

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	conf := `base-uri: http://example.org/
namespaces:
  ex: urn:example
modules:
  urn:lib: modules/lib.xq
repository:
  - repo
max-depth: 64
mix-updates: true
stop-words:
  - stopwords
`
	file := filepath.Join(dir, "xq.yml")
	if err := os.WriteFile(file, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("fail to load config: %s", err)
	}
	want := Config{
		BaseURI: "http://example.org/",
		Namespaces: map[string]string{
			"ex": "urn:example",
		},
		Modules: map[string]string{
			"urn:lib": filepath.Join(dir, "modules", "lib.xq"),
		},
		Repository: []string{filepath.Join(dir, "repo")},
		MaxDepth:   64,
		MixUpdates: true,
		StopWords:  []string{filepath.Join(dir, "stopwords")},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatched (-want +got)\n%s", diff)
	}
}

func TestWithConfig(t *testing.T) {
	cfg := Config{
		Namespaces: map[string]string{
			"ex": "urn:example",
		},
		MixUpdates: true,
	}
	query := "<ex:a/>, (delete node <a/>, 1)"
	if _, err := ParseMain(query, WithConfig(cfg)); err != nil {
		t.Errorf("fail to parse query with config: %s", err)
	}
	if _, err := ParseMain(query); err == nil {
		t.Errorf("query should fail without config")
	}
}

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	if _, err := ParseMain("for $x in 1 to 3 return $x", WithTracer(TraceWriter(&buf))); err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	out := buf.String()
	for _, str := range []string{"start parse rule", "done parse rule", "rule=flwor"} {
		if !strings.Contains(out, str) {
			t.Errorf("%q not found in trace", str)
		}
	}
}

func TestParseSeqType(t *testing.T) {
	tests := []struct {
		Type     string
		Expected string
	}{
		{Type: "xs:integer", Expected: "xs:integer"},
		{Type: "xs:string?", Expected: "xs:string?"},
		{Type: "node()*", Expected: "node()*"},
		{Type: "element(item)+", Expected: "element(item)+"},
		{Type: "empty-sequence()", Expected: "empty-sequence()"},
		{Type: "map(xs:string, item()*)", Expected: "map(xs:string, item()*)"},
		{Type: "array(*)", Expected: "array(*)"},
		{Type: "function(xs:integer) as xs:string", Expected: "function(xs:integer) as xs:string"},
	}
	for _, c := range tests {
		st, err := ParseSeqType(c.Type)
		if err != nil {
			t.Errorf("%s: fail to parse type: %s", c.Type, err)
			continue
		}
		if got := st.String(); got != c.Expected {
			t.Errorf("%s: type mismatched! want %s, got %s", c.Type, c.Expected, got)
		}
	}
}
