package xquery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Location tells where a module lives. A statically available module is
// known by the host and does not need to be parsed.
type Location struct {
	Static bool
	Paths  []string
}

func (l Location) Found() bool {
	return l.Static || len(l.Paths) > 0
}

type ModuleLocator interface {
	Locate(context.Context, string) (Location, error)
}

type Loader interface {
	Load(context.Context, string) ([]byte, error)
}

var staticModules = []string{
	FnURI,
	MathURI,
	MapURI,
	ArrayURI,
	XsURI,
	ErrURI,
}

type staticLocator struct{}

func (_ staticLocator) Locate(_ context.Context, uri string) (Location, error) {
	var loc Location
	loc.Static = slices.Contains(staticModules, uri)
	return loc, nil
}

// RepositoryLocator finds modules installed in a repository directory:
// the namespace http://example.org/a/b is looked up as org/example/a/b with
// one of the module extensions.
type RepositoryLocator struct {
	Dirs []string
}

var moduleExtensions = []string{".xqm", ".xq", ".xqy", ".xquery"}

func (r RepositoryLocator) Locate(ctx context.Context, uri string) (Location, error) {
	loc, err := staticLocator{}.Locate(ctx, uri)
	if err != nil || loc.Found() {
		return loc, err
	}
	rel := uriToPath(uri)
	if rel == "" {
		return loc, nil
	}
	for _, dir := range r.Dirs {
		if err := ctx.Err(); err != nil {
			return loc, err
		}
		for _, ext := range moduleExtensions {
			file := filepath.Join(dir, rel+ext)
			if s, err := os.Stat(file); err == nil && !s.IsDir() {
				loc.Paths = append(loc.Paths, file)
				return loc, nil
			}
		}
	}
	return loc, nil
}

func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	var parts []string
	switch {
	case u.Scheme == "urn" || (u.Opaque != "" && u.Host == ""):
		parts = strings.Split(u.Opaque, ":")
	case u.Host != "":
		host := strings.Split(u.Hostname(), ".")
		if len(host) > 0 && host[0] == "www" {
			host = host[1:]
		}
		slices.Reverse(host)
		parts = append(parts, host...)
		parts = append(parts, strings.Split(strings.Trim(u.Path, "/"), "/")...)
	default:
		return ""
	}
	parts = slices.DeleteFunc(parts, func(s string) bool {
		return s == ""
	})
	if len(parts) == 0 {
		return ""
	}
	return filepath.Join(parts...)
}

// FileLoader reads modules from the local file system or from http
// locations.
type FileLoader struct{}

func (_ FileLoader) Load(ctx context.Context, file string) ([]byte, error) {
	r, err := openFile(ctx, file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func openFile(ctx context.Context, file string) (io.ReadCloser, error) {
	u, err := url.Parse(file)
	if err != nil {
		return os.Open(file)
	}
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return nil, fmt.Errorf("fail to retrieve remote file (%s)", res.Status)
		}
		return res.Body, nil
	case "file":
		return os.Open(u.Path)
	default:
		return os.Open(file)
	}
}

// MapLoader serves sources from memory, keyed by path.
type MapLoader map[string]string

func (m MapLoader) Load(_ context.Context, file string) ([]byte, error) {
	str, ok := m[file]
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, os.ErrNotExist)
	}
	return []byte(str), nil
}

// moduleSet is shared by the parsers of one compilation: the main module
// and every library module it imports directly or not.
type moduleSet struct {
	parsed map[string]string
	libs   map[string]*LibraryModule
	stack  []string
}

func newModuleSet() *moduleSet {
	return &moduleSet{
		parsed: make(map[string]string),
		libs:   make(map[string]*LibraryModule),
	}
}

func (m *moduleSet) push(file string) {
	m.stack = append(m.stack, file)
}

func (m *moduleSet) pop() {
	if n := len(m.stack); n > 0 {
		m.stack = m.stack[:n-1]
	}
}

func (m *moduleSet) loading(file string) bool {
	return slices.Contains(m.stack, file)
}

func (m *moduleSet) cycle(file string) string {
	ix := slices.Index(m.stack, file)
	if ix < 0 {
		return file
	}
	var list []string
	for _, f := range m.stack[ix:] {
		list = append(list, filepath.Base(f))
	}
	list = append(list, filepath.Base(file))
	return strings.Join(list, " -> ")
}

func (p *Parser) resolvePath(loc string) string {
	if strings.Contains(loc, "://") {
		return loc
	}
	if filepath.IsAbs(loc) {
		return filepath.Clean(loc)
	}
	base := p.staticBase()
	if strings.Contains(base, "://") {
		u, err := url.Parse(base)
		if err == nil {
			u.Path = path.Join(path.Dir(u.Path), loc)
			return u.String()
		}
	}
	if base != "" {
		if abs, err := filepath.Abs(filepath.Join(filepath.Dir(base), loc)); err == nil {
			return abs
		}
	}
	if abs, err := filepath.Abs(loc); err == nil {
		return abs
	}
	return loc
}

// staticBase returns the base used to resolve module locations. A base-uri
// declared in the prolog wins over the file and the configured base; when
// relative, it is itself resolved against them.
func (p *Parser) staticBase() string {
	base := p.file
	if base == "" {
		base = p.baseURI
	}
	if _, ok := p.setters["base-uri"]; !ok || p.static.BaseURI == "" {
		return base
	}
	decl := p.static.BaseURI
	if strings.Contains(decl, "://") || filepath.IsAbs(decl) || base == "" {
		return decl
	}
	if strings.Contains(base, "://") {
		u, err := url.Parse(base)
		if err == nil {
			u.Path = path.Join(path.Dir(u.Path), decl)
			if strings.HasSuffix(decl, "/") {
				u.Path += "/"
			}
			return u.String()
		}
	}
	dir := filepath.Join(filepath.Dir(base), decl)
	if strings.HasSuffix(decl, "/") {
		dir += string(filepath.Separator)
	}
	return dir
}

func (p *Parser) importModules() error {
	for _, mi := range p.imports {
		if err := p.importModule(mi); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) importModule(mi *Import) error {
	paths := mi.Locations
	if len(paths) == 0 {
		if file, ok := p.declared[mi.URI]; ok {
			return p.module(file, mi)
		}
		if err := p.checkAbort(); err != nil {
			return err
		}
		loc, err := p.locator.Locate(p.ctx, mi.URI)
		if err != nil {
			return err
		}
		if loc.Static {
			return nil
		}
		if !loc.Found() {
			return errWhichModule.create(mi.Position, mi.URI)
		}
		paths = loc.Paths
	}
	for _, file := range paths {
		if err := p.module(file, mi); err != nil {
			return err
		}
	}
	return nil
}

// module parses the library module stored at file and checks that it
// declares the namespace requested by the import.
func (p *Parser) module(file string, mi *Import) error {
	var (
		abs  = p.resolvePath(file)
		name = filepath.Base(abs)
	)
	if uri, ok := p.modules.parsed[abs]; ok {
		if uri != mi.URI {
			return errWrongModule.create(mi.Position, name, mi.URI, uri)
		}
		if p.modules.loading(abs) {
			return errImportCycle.create(mi.Position, p.modules.cycle(abs))
		}
		if lib, ok := p.modules.libs[abs]; ok {
			p.attach(lib)
		}
		mi.Paths = append(mi.Paths, abs)
		return nil
	}
	if err := p.checkAbort(); err != nil {
		return err
	}
	p.Module(mi.URI, abs)
	p.modules.parsed[abs] = mi.URI

	buf, err := p.loader.Load(p.ctx, abs)
	if err != nil {
		delete(p.modules.parsed, abs)
		return errModuleFile.create(mi.Position, name, err)
	}
	p.modules.push(abs)
	defer p.modules.pop()

	sub := p.child(string(buf), abs)
	lib, err := sub.ParseLibrary()
	if err != nil {
		return err
	}
	if lib.URI != mi.URI {
		return errWrongModule.create(mi.Position, name, mi.URI, lib.URI)
	}
	if ct := lib.Static.ContextType; ct != nil {
		if p.static.ContextType == nil {
			p.static.ContextType = ct
		} else if !ct.Equal(*p.static.ContextType) {
			return errContextTypes.create(mi.Position, ct, p.static.ContextType)
		}
	}
	p.modules.libs[abs] = lib
	mi.Paths = append(mi.Paths, abs)
	p.attach(lib)
	return nil
}

func (p *Parser) attach(lib *LibraryModule) {
	if slices.Contains(p.prolog.Modules, lib) {
		return
	}
	p.prolog.Modules = append(p.prolog.Modules, lib)
	funcs, vars := lib.Exports()
	for _, f := range funcs {
		p.functions[f.Signature()] = f
	}
	for _, v := range vars {
		p.scopes.declareGlobal(v.Var)
	}
}

func (p *Parser) checkAbort() error {
	if p.ctx == nil {
		return nil
	}
	return p.ctx.Err()
}
