package xquery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestImportModule(t *testing.T) {
	loader := MapLoader{
		"/queries/a.xq": `module namespace a = 'urn:a';
import module namespace b = 'urn:b' at 'lib/b.xq';
declare variable $a:x := b:f(1);
declare function a:f($v) { $v + $a:x };
declare %private function a:g() { 0 };`,
		"/queries/lib/b.xq": `module namespace b = 'urn:b';
declare function b:f($v) { $v * 2 };`,
	}
	query := `import module namespace a = 'urn:a' at 'a.xq';
a:f($a:x)`

	mod, err := ParseMain(query, WithFile("/queries/main.xq"), WithLoader(loader))
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
	if len(mod.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(mod.Imports))
	}
	if diff := cmp.Diff([]string{"/queries/a.xq"}, mod.Imports[0].Paths); diff != "" {
		t.Errorf("import paths mismatched (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff([]string{"urn:a"}, mod.ImportedURIs()); diff != "" {
		t.Errorf("imported uris mismatched (-want +got)\n%s", diff)
	}
	if len(mod.Modules) != 1 {
		t.Fatalf("expected 1 library module, got %d", len(mod.Modules))
	}
	lib := mod.Modules[0]
	if lib.URI != "urn:a" || lib.Prefix != "a" {
		t.Errorf("unexpected library module %s=%s", lib.Prefix, lib.URI)
	}
	funcs, vars := lib.Exports()
	if len(funcs) != 1 || len(vars) != 1 {
		t.Errorf("exports mismatched! want 1 function and 1 variable, got %d and %d", len(funcs), len(vars))
	}
}

func TestImportPrivate(t *testing.T) {
	loader := MapLoader{
		"/queries/a.xq": `module namespace a = 'urn:a';
declare %private variable $a:x := 1;`,
	}
	query := `import module namespace a = 'urn:a' at 'a.xq';
$a:x`
	_, err := ParseMain(query, WithFile("/queries/main.xq"), WithLoader(loader))
	if got := errorCode(err); got != CodeUndefinedVar {
		t.Errorf("error code mismatched! want %s, got %q (%v)", CodeUndefinedVar, got, err)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		Name    string
		Modules MapLoader
		Query   string
		Code    string
		Message string
	}{
		{
			Name: "cycle",
			Modules: MapLoader{
				"/queries/a.xq": "module namespace a = 'urn:a'; import module namespace b = 'urn:b' at 'b.xq';",
				"/queries/b.xq": "module namespace b = 'urn:b'; import module namespace a = 'urn:a' at 'a.xq';",
			},
			Query:   "import module namespace a = 'urn:a' at 'a.xq'; 1",
			Code:    CodeImportCycle,
			Message: "a.xq -> b.xq -> a.xq",
		},
		{
			Name: "wrong-namespace",
			Modules: MapLoader{
				"/queries/a.xq": "module namespace a = 'urn:other';",
			},
			Query:   "import module namespace a = 'urn:a' at 'a.xq'; 1",
			Code:    CodeWrongModule,
			Message: `"urn:a" expected, "urn:other" found`,
		},
		{
			Name: "reimport-other-namespace",
			Modules: MapLoader{
				"/queries/a.xq": "module namespace a = 'urn:a';",
				"/queries/b.xq": "module namespace b = 'urn:b'; import module namespace x = 'urn:x' at 'a.xq';",
			},
			Query:   "import module namespace a = 'urn:a' at 'a.xq'; import module namespace b = 'urn:b' at 'b.xq'; 1",
			Code:    CodeWrongModule,
			Message: `"urn:x" expected, "urn:a" found`,
		},
		{
			Name:    "not-found",
			Modules: MapLoader{},
			Query:   "import module namespace a = 'urn:a' at 'a.xq'; 1",
			Code:    CodeModuleNotFound,
		},
		{
			Name:    "no-location",
			Modules: MapLoader{},
			Query:   "import module namespace a = 'urn:unknown'; 1",
			Code:    CodeModuleNotFound,
		},
		{
			Name: "duplicate",
			Modules: MapLoader{
				"/queries/a.xq": "module namespace a = 'urn:a';",
			},
			Query: "import module namespace a = 'urn:a' at 'a.xq'; import module namespace x = 'urn:a' at 'a.xq'; 1",
			Code:  CodeDuplicateImport,
		},
		{
			Name: "library-error",
			Modules: MapLoader{
				"/queries/a.xq": "module namespace a = 'urn:a'; declare function a:f() { $undefined };",
			},
			Query: "import module namespace a = 'urn:a' at 'a.xq'; 1",
			Code:  CodeUndefinedVar,
		},
	}
	for _, c := range tests {
		t.Run(c.Name, func(t *testing.T) {
			_, err := ParseMain(c.Query, WithFile("/queries/main.xq"), WithLoader(c.Modules))
			if got := errorCode(err); got != c.Code {
				t.Fatalf("error code mismatched! want %s, got %q (%v)", c.Code, got, err)
			}
			if c.Message != "" && !strings.Contains(err.Error(), c.Message) {
				t.Errorf("message %q not found in %s", c.Message, err)
			}
		})
	}
}

func TestImportBaseURI(t *testing.T) {
	tests := []struct {
		Query string
		Path  string
	}{
		{
			Query: "declare base-uri '/lib/'; import module namespace a = 'urn:a' at 'a.xq'; 1",
			Path:  "/lib/a.xq",
		},
		{
			Query: "declare base-uri 'lib/'; import module namespace a = 'urn:a' at 'a.xq'; 1",
			Path:  "/queries/lib/a.xq",
		},
		{
			Query: "import module namespace a = 'urn:a' at 'a.xq'; 1",
			Path:  "/queries/a.xq",
		},
	}
	for _, c := range tests {
		loader := MapLoader{
			c.Path: "module namespace a = 'urn:a';",
		}
		mod, err := ParseMain(c.Query, WithFile("/queries/main.xq"), WithLoader(loader))
		if err != nil {
			t.Errorf("%s: fail to parse query: %s", c.Query, err)
			continue
		}
		if diff := cmp.Diff([]string{c.Path}, mod.Imports[0].Paths); diff != "" {
			t.Errorf("%s: import paths mismatched (-want +got)\n%s", c.Query, diff)
		}
	}
}

func TestImportDeclared(t *testing.T) {
	loader := MapLoader{
		"/modules/a.xq": "module namespace a = 'urn:a'; declare function a:f() { 1 };",
	}
	query := "import module namespace a = 'urn:a'; a:f()"
	_, err := ParseMain(query, WithModule("urn:a", "/modules/a.xq"), WithLoader(loader))
	if err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
}

func TestImportStatic(t *testing.T) {
	query := "import module namespace m = 'http://www.w3.org/2005/xpath-functions/math'; m:pi()"
	if _, err := ParseMain(query); err != nil {
		t.Fatalf("fail to parse query: %s", err)
	}
}

func TestRepositoryLocator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "org", "example", "lib.xqm")
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("module namespace lib = 'http://www.example.org/lib';"), 0o644); err != nil {
		t.Fatal(err)
	}
	locator := RepositoryLocator{
		Dirs: []string{dir},
	}
	loc, err := locator.Locate(context.Background(), "http://www.example.org/lib")
	if err != nil {
		t.Fatalf("fail to locate module: %s", err)
	}
	if diff := cmp.Diff([]string{file}, loc.Paths); diff != "" {
		t.Errorf("paths mismatched (-want +got)\n%s", diff)
	}

	query := "import module namespace lib = 'http://www.example.org/lib'; 1"
	if _, err := ParseMain(query, WithLocator(locator)); err != nil {
		t.Errorf("fail to parse query: %s", err)
	}
}

func TestParseAborted(t *testing.T) {
	loader := MapLoader{
		"/queries/a.xq": "module namespace a = 'urn:a';",
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	query := "import module namespace a = 'urn:a' at 'a.xq'; 1"
	_, err := ParseMain(query, WithFile("/queries/main.xq"), WithLoader(loader), WithContext(ctx))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context canceled, got %v", err)
	}
}
