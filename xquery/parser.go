package xquery

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/midbel/distance"
	"github.com/midbel/xq/environ"
)

// Parser turns the source of one module into its expression tree. Imported
// library modules are parsed by child parsers sharing the module table of
// the compilation.
type Parser struct {
	*cursor
	Tracer

	ctx        context.Context
	file       string
	baseURI    string
	external   map[string]string
	declared   map[string]string
	locator    ModuleLocator
	loader     Loader
	collations CollationProvider
	options    OptionRegistry
	maxDepth   int
	mixUpdates bool
	stopDirs   []string

	static *StaticContext
	prolog *Prolog
	ns     *environ.Env[string]
	names  nameTable
	scopes *scopes
	refs   []*VarRef

	modules    *moduleSet
	imports    []*Import
	functions  map[string]*FuncDecl
	setters    map[string]struct{}
	library    bool
	moduleURI  string
	declaredNS map[string]string

	alter    *errorDef
	alterPos int
	lexErr   error
	depth    int
	updating bool
	doc      string
	currDoc  strings.Builder
	ftopt    *FTOpt
}

func NewParser(query string, options ...ParserOption) *Parser {
	p := Parser{
		cursor:     newCursor(query),
		Tracer:     discardTracer{},
		ctx:        context.Background(),
		external:   make(map[string]string),
		declared:   make(map[string]string),
		locator:    staticLocator{},
		loader:     FileLoader{},
		collations: defaultCollations{},
		options:    DefaultOptions(),
		maxDepth:   MaxDepth,
		modules:    newModuleSet(),
		functions:  make(map[string]*FuncDecl),
		setters:    make(map[string]struct{}),
		declaredNS: make(map[string]string),
	}
	for _, o := range options {
		o(&p)
	}
	p.reset(0)
	p.static = defaultStatic()
	p.static.BaseURI = p.baseURI
	p.scopes = newScopes()
	p.ns = environ.Enclosed[string](predeclaredNamespaces())
	for prefix, uri := range p.external {
		p.ns.Define(prefix, uri)
	}
	p.ftopt = p.static.FTOptions
	p.prolog = &Prolog{
		File:       p.file,
		Static:     p.static,
		Namespaces: p.declaredNS,
	}
	return &p
}

func (p *Parser) child(query, file string) *Parser {
	c := Parser{
		cursor:     newCursor(query),
		Tracer:     p.Tracer,
		ctx:        p.ctx,
		file:       file,
		baseURI:    file,
		external:   p.external,
		declared:   p.declared,
		locator:    p.locator,
		loader:     p.loader,
		collations: p.collations,
		options:    p.options,
		maxDepth:   p.maxDepth,
		mixUpdates: p.mixUpdates,
		stopDirs:   p.stopDirs,
		modules:    p.modules,
		functions:  make(map[string]*FuncDecl),
		setters:    make(map[string]struct{}),
		declaredNS: make(map[string]string),
	}
	c.static = defaultStatic()
	c.static.BaseURI = file
	c.scopes = newScopes()
	c.ns = environ.Enclosed[string](predeclaredNamespaces())
	for prefix, uri := range c.external {
		c.ns.Define(prefix, uri)
	}
	c.ftopt = c.static.FTOptions
	c.prolog = &Prolog{
		File:       file,
		Static:     c.static,
		Namespaces: c.declaredNS,
	}
	return &c
}

func Parse(query string, options ...ParserOption) (Module, error) {
	p := NewParser(query, options...)
	if IsLibrary(query) {
		return p.ParseLibrary()
	}
	return p.ParseMain()
}

func ParseMain(query string, options ...ParserOption) (*MainModule, error) {
	return NewParser(query, options...).ParseMain()
}

func ParseLibrary(query string, options ...ParserOption) (*LibraryModule, error) {
	return NewParser(query, options...).ParseLibrary()
}

func ParseFile(file string, options ...ParserOption) (Module, error) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	options = append([]ParserOption{WithFile(file)}, options...)
	return Parse(string(buf), options...)
}

// ParseSeqType parses a standalone sequence type.
func ParseSeqType(str string, options ...ParserOption) (SeqType, error) {
	p := NewParser(str, options...)
	st, err := p.sequenceType()
	if err == nil {
		p.skipWs()
		if p.more() {
			err = p.error(errQueryEnd, p.remaining())
		}
	}
	return st, p.located(err)
}

func (p *Parser) ParseMain() (*MainModule, error) {
	p.Enter("main")
	defer p.Leave("main")

	mod, err := p.parseMain()
	if err != nil {
		err = p.located(err)
		p.Error("main", err)
		return nil, err
	}
	return mod, nil
}

func (p *Parser) ParseLibrary() (*LibraryModule, error) {
	p.Enter("library")
	defer p.Leave("library")

	mod, err := p.parseLibrary()
	if err != nil {
		err = p.located(err)
		p.Error("library", err)
		return nil, err
	}
	return mod, nil
}

func (p *Parser) parseMain() (*MainModule, error) {
	if err := p.init(); err != nil {
		return nil, err
	}
	if err := p.versionDecl(); err != nil {
		return nil, err
	}
	pos := p.mark()
	if p.wsConsumeWs("module") && p.wsConsumeWs("namespace") {
		p.reset(pos)
		return nil, p.error(errMainModule)
	}
	p.reset(pos)
	p.prolog.Doc = p.takeDoc()

	if err := p.prologSetters(); err != nil {
		return nil, err
	}
	if err := p.importModules(); err != nil {
		return nil, err
	}
	if err := p.prologDecls(); err != nil {
		return nil, err
	}

	p.scopes.pushContext(ModuleScope, false)
	body, err := p.expr()
	p.scopes.popContext()
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, p.alterError(errNoExpr)
	}
	if err := p.finish(true); err != nil {
		return nil, err
	}
	mod := MainModule{
		Prolog: *p.prolog,
		Body:   body,
	}
	if err := p.checkUpdates(mod.Functions, mod.Variables, body); err != nil {
		return nil, err
	}
	mod.Updating = p.updating
	return &mod, nil
}

func (p *Parser) parseLibrary() (*LibraryModule, error) {
	if err := p.init(); err != nil {
		return nil, err
	}
	if err := p.versionDecl(); err != nil {
		return nil, err
	}
	pos := p.here()
	if !p.wsConsumeWs("module") {
		return nil, p.error(errLibModule)
	}
	if err := p.wsCheck("namespace"); err != nil {
		return nil, err
	}
	p.skipWs()
	prefix := p.ncName()
	if prefix == "" {
		return nil, p.error(errNoName, p.found())
	}
	if err := p.wsCheck("="); err != nil {
		return nil, err
	}
	uri, err := p.uriLiteral()
	if err != nil {
		return nil, err
	}
	if uri == "" {
		return nil, p.errorAt(errModuleEmptyURI, pos)
	}
	if err := p.bindPrefix(prefix, uri); err != nil {
		return nil, err
	}
	if err := p.wsCheck(";"); err != nil {
		return nil, err
	}
	p.library = true
	p.moduleURI = uri
	p.prolog.Doc = p.takeDoc()

	if p.file != "" {
		if _, ok := p.modules.parsed[p.file]; !ok {
			p.modules.parsed[p.file] = uri
			p.modules.push(p.file)
			defer p.modules.pop()
		}
	}

	if err := p.prologSetters(); err != nil {
		return nil, err
	}
	if err := p.importModules(); err != nil {
		return nil, err
	}
	if err := p.prologDecls(); err != nil {
		return nil, err
	}
	if err := p.finish(false); err != nil {
		return nil, err
	}
	mod := LibraryModule{
		Prolog: *p.prolog,
		Prefix: prefix,
		URI:    uri,
	}
	if err := p.checkUpdates(mod.Functions, mod.Variables, nil); err != nil {
		return nil, err
	}
	mod.Updating = p.updating
	return &mod, nil
}

// init validates the encoding and the codepoints of the source and rejects
// empty queries.
func (p *Parser) init() error {
	if p.bad >= 0 {
		p.reset(p.bad)
		return p.error(errInvalidByte, p.badByte)
	}
	for i, r := range p.input {
		if !isValidChar(r) {
			p.reset(i)
			return p.error(errInvalidChar, r)
		}
	}
	p.skipWs()
	if p.lexErr != nil {
		return p.lexErr
	}
	if !p.more() {
		return p.error(errQueryEmpty)
	}
	return nil
}

func (p *Parser) finish(main bool) error {
	p.skipWs()
	if p.lexErr != nil {
		return p.lexErr
	}
	if p.more() {
		if p.alter != nil {
			return p.alterError(errNoExpr)
		}
		if !main {
			return p.error(errModuleExpr, p.remaining())
		}
		return p.error(errQueryEnd, p.remaining())
	}
	if err := p.names.assignURI(0, p.ns, p.static.ElemNS); err != nil {
		return err
	}
	return p.resolveRefs()
}

// resolveRefs binds the references to global variables declared after
// their use.
func (p *Parser) resolveRefs() error {
	for _, ref := range p.refs {
		if ref.Var != nil {
			continue
		}
		v, ok := p.scopes.global(ref.Name)
		if !ok {
			return p.errorAt(errUndefinedVar, ref.Position, ref.Name)
		}
		ref.Var = v
	}
	p.refs = p.refs[:0]
	return nil
}

func (p *Parser) located(err error) error {
	var qe QueryError
	if errors.As(err, &qe) && qe.File == "" && p.file != "" {
		qe.File = p.file
		return qe
	}
	return err
}

func (p *Parser) error(def errorDef, args ...any) error {
	if p.lexErr != nil {
		return p.lexErr
	}
	return p.errorAt(def, p.here(), args...)
}

func (p *Parser) errorAt(def errorDef, pos Position, args ...any) error {
	err := def.create(pos, args...)
	err.File = p.file
	return err
}

// alterError returns the most specific error recorded while trying the
// alternatives of a production, or def when there is none.
func (p *Parser) alterError(def errorDef) error {
	if p.alter == nil {
		return p.error(def)
	}
	p.reset(p.alterPos)
	return p.error(*p.alter)
}

func (p *Parser) setAlter(def errorDef, pos int) {
	p.alter = &def
	p.alterPos = pos
}

func (p *Parser) nest() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return p.error(errTooDeep, p.maxDepth)
	}
	return nil
}

func (p *Parser) unnest() {
	p.depth--
}

func (p *Parser) takeDoc() string {
	doc := p.doc
	p.doc = ""
	return doc
}

func (p *Parser) skipWs() bool {
	pos := p.mark()
	for p.more() {
		r := p.curr()
		if r == '(' && p.next() == ':' {
			p.comment()
			continue
		}
		if r > ' ' {
			break
		}
		p.pos++
	}
	return pos != p.mark()
}

func (p *Parser) comment() {
	start := p.mark()
	p.pos += 2
	xqdoc := p.is('~')
	if xqdoc {
		p.currDoc.Reset()
		p.pos++
	}
	if !p.commentBody(false, xqdoc) {
		p.reset(start)
		p.lexErr = p.errorAt(errCommentClose, p.here())
		p.reset(len(p.input))
	}
}

func (p *Parser) commentBody(nested, xqdoc bool) bool {
	for p.more() {
		r := p.curr()
		if r == '(' && p.next() == ':' {
			p.pos += 2
			if !p.commentBody(true, xqdoc) {
				return false
			}
			continue
		}
		if r == ':' && p.next() == ')' {
			p.pos += 2
			if !nested && xqdoc && p.doc == "" {
				p.doc = strings.TrimSpace(p.currDoc.String())
				p.currDoc.Reset()
			}
			return true
		}
		if xqdoc {
			p.currDoc.WriteRune(r)
		}
		p.pos++
	}
	return false
}

// consumeWs skips whitespace only, comments are content.
func (p *Parser) consumeWs() bool {
	pos := p.mark()
	for p.more() && p.curr() <= ' ' {
		p.pos++
	}
	return pos != p.mark()
}

func (p *Parser) wsConsume(str string) bool {
	p.skipWs()
	return p.consumeString(str)
}

func (p *Parser) wsConsumeRune(r rune) bool {
	p.skipWs()
	return p.consumeRune(r)
}

// wsConsumeWs consumes a keyword: it must not be directly followed by a
// name character unless it is not a name itself.
func (p *Parser) wsConsumeWs(str string) bool {
	pos := p.mark()
	if !p.wsConsume(str) {
		return false
	}
	first := []rune(str)[0]
	if p.skipWs() || !isNCStartChar(first) || !isNCChar(p.curr()) {
		return true
	}
	p.reset(pos)
	return false
}

// wsConsumeWs2 consumes str1 only if it is followed by str2. The cursor
// is left after str1 and alt is recorded as the alternative error.
func (p *Parser) wsConsumeWs2(str1, str2 string, alt *errorDef) bool {
	pos := p.mark()
	if !p.wsConsumeWs(str1) {
		return false
	}
	after := p.mark()
	if alt != nil {
		p.setAlter(*alt, after)
	}
	ok := p.wsConsume(str2)
	if ok {
		p.reset(after)
	} else {
		p.reset(pos)
	}
	return ok
}

func (p *Parser) wsCheck(str string) error {
	if !p.wsConsume(str) {
		return p.error(errExpected, str, p.found())
	}
	return nil
}

func (p *Parser) check(r rune) error {
	if !p.consumeRune(r) {
		return p.error(errExpected, string(r), p.found())
	}
	return nil
}

func (p *Parser) ncName() string {
	if !isNCStartChar(p.curr()) {
		return ""
	}
	pos := p.mark()
	for isNCChar(p.curr()) {
		p.pos++
	}
	return p.text(pos, p.mark())
}

func (p *Parser) qName() string {
	name := p.ncName()
	if name == "" {
		return ""
	}
	if p.is(':') && isNCStartChar(p.next()) {
		p.pos++
		name += ":" + p.ncName()
	}
	return name
}

// skipCheck returns names without resolving their prefix.
const skipCheck = "\x01"

// eQName parses a braced uri name or a lexical qname. Unprefixed names get
// def as namespace. A zero name is returned if nothing matches and err is
// nil.
func (p *Parser) eQName(def string, err *errorDef) (QName, error) {
	pos := p.mark()
	if p.consumeString("Q{") {
		uri, e := p.bracedURI()
		if e != nil {
			return QName{}, e
		}
		if local := p.ncName(); local != "" {
			return ExpandedName(uri, local), nil
		}
		p.reset(pos)
	}
	str := p.qName()
	if str == "" {
		if err != nil {
			return QName{}, p.error(*err, p.found())
		}
		return QName{}, nil
	}
	name := parseQName(str)
	if def == skipCheck {
		name.URI = Unresolved
		return name, nil
	}
	if name.Prefix != "" {
		uri, e := p.ns.Resolve(name.Prefix)
		if e != nil {
			p.reset(pos)
			return QName{}, p.error(errNoURI, name.Prefix, prefixHint(p.ns, name.Prefix))
		}
		name.URI = uri
		return name, nil
	}
	name.URI = def
	return name, nil
}

func (p *Parser) bracedURI() (string, error) {
	var str strings.Builder
	for !p.is('}') {
		if !p.more() {
			return "", p.error(errExpected, "}", p.found())
		}
		if p.is('{') {
			return "", p.error(errExpected, "}", p.found())
		}
		if _, err := p.entity(&str); err != nil {
			return "", err
		}
	}
	p.pos++
	return normalizeSpace(str.String()), nil
}

func (p *Parser) varName() (QName, error) {
	p.skipWs()
	return p.eQName("", &errNoVarName)
}

func (p *Parser) uriLiteral() (string, error) {
	str, err := p.stringLiteral()
	if err != nil {
		return "", err
	}
	return normalizeSpace(str), nil
}

func normalizeSpace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// stringLiteral parses a quoted string, doubled delimiters and entity
// references included.
func (p *Parser) stringLiteral() (string, error) {
	p.skipWs()
	delim := p.curr()
	if delim != '"' && delim != '\'' {
		return "", p.error(errNoQuote)
	}
	p.pos++
	var str strings.Builder
	for {
		if !p.more() {
			return "", p.error(errNoQuote)
		}
		if p.is(delim) {
			if p.next() != delim {
				break
			}
			p.pos++
		}
		if _, err := p.entity(&str); err != nil {
			return "", err
		}
	}
	p.pos++
	return str.String(), nil
}

// entity consumes one character or one entity/character reference and
// writes the decoded value to str. It reports whether a reference was
// found.
func (p *Parser) entity(str *strings.Builder) (bool, error) {
	start := p.mark()
	if !p.consumeRune('&') {
		r := p.consume()
		if r == '\r' {
			r = '\n'
			p.consumeRune('\n')
		}
		str.WriteRune(r)
		return false, nil
	}
	if p.consumeRune('#') {
		base := 10
		if p.consumeRune('x') {
			base = 16
		}
		var (
			n        int64
			overflow bool
			digits   int
		)
		for !p.consumeRune(';') {
			r := p.curr()
			if !isDigit(r) && !(base == 16 && isHex(r)) {
				return true, p.entityError(start, errInvalidEntity)
			}
			p.pos++
			digits++
			var v int64
			switch {
			case isDigit(r):
				v = int64(r - '0')
			case r >= 'a':
				v = int64(r-'a') + 10
			default:
				v = int64(r-'A') + 10
			}
			n = n*int64(base) + v
			if n > 0x10FFFF {
				overflow = true
				n = 0x10FFFF + 1
			}
		}
		if digits == 0 {
			return true, p.entityError(start, errInvalidEntity)
		}
		if overflow || !isValidChar(rune(n)) {
			return true, p.entityError(start, errInvalidRef)
		}
		str.WriteRune(rune(n))
		return true, nil
	}
	switch {
	case p.consumeString("lt"):
		str.WriteRune('<')
	case p.consumeString("gt"):
		str.WriteRune('>')
	case p.consumeString("amp"):
		str.WriteRune('&')
	case p.consumeString("quot"):
		str.WriteRune('"')
	case p.consumeString("apos"):
		str.WriteRune('\'')
	default:
		return true, p.entityError(start, errInvalidEntity)
	}
	if !p.consumeRune(';') {
		return true, p.entityError(start, errInvalidEntity)
	}
	return true, nil
}

func (p *Parser) entityError(start int, def errorDef) error {
	sub := p.text(start, start+20)
	if ix := strings.IndexRune(sub, ';'); ix >= 0 {
		sub = sub[:ix+1]
	} else {
		sub += "..."
	}
	p.reset(start)
	return p.error(def, sub)
}

// suggest formats the names close to name for error messages.
func suggest(name string, candidates []string) string {
	others := distance.Levenshtein(name, candidates)
	if len(others) == 0 {
		return ""
	}
	if len(others) > 3 {
		others = others[:3]
	}
	return ", did you mean " + strings.Join(others, ", ") + "?"
}
