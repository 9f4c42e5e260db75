package xquery

import (
	"slices"
	"strings"
)

var supportedVersions = []string{"1.0", "3.0", "3.1", "4.0"}

var supportedEncodings = []string{
	"utf-8",
	"utf8",
	"utf-16",
	"utf-16le",
	"utf-16be",
	"utf-32",
	"iso-8859-1",
	"latin1",
	"us-ascii",
	"ascii",
	"windows-1252",
}

// reservedFunctionNames can not be used as unprefixed function names.
var reservedFunctionNames = []string{
	"array",
	"attribute",
	"comment",
	"document-node",
	"element",
	"empty-sequence",
	"function",
	"if",
	"item",
	"map",
	"namespace-node",
	"node",
	"processing-instruction",
	"schema-attribute",
	"schema-element",
	"switch",
	"text",
	"typeswitch",
}

func isReservedFunction(name QName) bool {
	return name.Prefix == "" && slices.Contains(reservedFunctionNames, name.Local)
}

func (p *Parser) versionDecl() error {
	p.Enter("version")
	defer p.Leave("version")

	pos := p.mark()
	if !p.wsConsumeWs("xquery") {
		return nil
	}
	version := p.wsConsumeWs("version")
	if version {
		str, err := p.stringLiteral()
		if err != nil {
			return err
		}
		if !slices.Contains(supportedVersions, str) {
			return p.error(errVersion, str)
		}
		p.static.Version = str
	}
	if p.wsConsumeWs("encoding") {
		str, err := p.stringLiteral()
		if err != nil {
			return err
		}
		if !slices.Contains(supportedEncodings, strings.ToLower(str)) {
			return p.error(errEncoding, str)
		}
		p.static.Encoding = str
	} else if !version {
		p.reset(pos)
		return nil
	}
	return p.wsCheck(";")
}

func (p *Parser) setter(name string, def errorDef) error {
	if _, ok := p.setters[name]; ok {
		return p.error(def)
	}
	p.setters[name] = struct{}{}
	return nil
}

// prologSetters parses the first part of the prolog: setters, namespace
// declarations and imports.
func (p *Parser) prologSetters() error {
	p.Enter("prolog-setters")
	defer p.Leave("prolog-setters")
	for {
		pos := p.mark()
		var err error
		switch {
		case p.wsConsumeWs("declare"):
			switch {
			case p.wsConsumeWs("default"):
				err = p.defaultDecl()
			case p.wsConsumeWs("boundary-space"):
				err = p.boundarySpaceDecl()
			case p.wsConsumeWs("base-uri"):
				err = p.baseURIDecl()
			case p.wsConsumeWs("construction"):
				err = p.constructionDecl()
			case p.wsConsumeWs("ordering"):
				err = p.orderingDecl()
			case p.wsConsumeWs("revalidation"):
				err = p.revalidationDecl()
			case p.wsConsumeWs("copy-namespaces"):
				err = p.copyNamespacesDecl()
			case p.wsConsumeWs("decimal-format"):
				err = p.decimalFormatDecl(false)
			case p.wsConsumeWs("namespace"):
				err = p.namespaceDecl()
			case p.wsConsumeWs("ft-option"):
				err = p.ftOptionDecl()
			default:
				p.reset(pos)
				return nil
			}
		case p.wsConsumeWs("import"):
			switch {
			case p.wsConsumeWs("schema"):
				err = p.schemaImport()
			case p.wsConsumeWs("module"):
				err = p.moduleImport()
			default:
				p.reset(pos)
				return nil
			}
		default:
			return nil
		}
		if err != nil {
			return err
		}
		p.doc = ""
		if err := p.wsCheck(";"); err != nil {
			return err
		}
	}
}

// prologDecls parses the second part of the prolog: context item, option,
// variable and function declarations.
func (p *Parser) prologDecls() error {
	p.Enter("prolog-decls")
	defer p.Leave("prolog-decls")
	for {
		pos := p.mark()
		if !p.wsConsumeWs("declare") {
			if p.wsConsumeWs("import") {
				p.reset(pos)
				return p.error(errPrologOrder)
			}
			return nil
		}
		var err error
		switch {
		case p.wsConsumeWs("context"):
			err = p.contextItemDecl()
		case p.wsConsumeWs("option"):
			err = p.optionDecl()
		case p.isSetter():
			p.reset(pos)
			return p.error(errPrologOrder)
		default:
			doc := p.takeDoc()
			anns, e := p.annotations(true)
			if e != nil {
				return e
			}
			switch {
			case p.wsConsumeWs("variable"):
				err = p.varDecl(anns, doc)
			case p.wsConsumeWs("function"):
				err = p.functionDecl(anns, doc)
			case len(anns) > 0:
				return p.error(errAnnNoDecl)
			default:
				p.reset(pos)
				return nil
			}
		}
		if err != nil {
			return err
		}
		p.doc = ""
		if err := p.wsCheck(";"); err != nil {
			return err
		}
	}
}

func (p *Parser) isSetter() bool {
	pos := p.mark()
	defer p.reset(pos)
	for _, kw := range []string{"default", "boundary-space", "base-uri", "construction", "ordering", "revalidation", "copy-namespaces", "decimal-format", "namespace", "ft-option"} {
		if p.wsConsumeWs(kw) {
			return true
		}
	}
	return false
}

func (p *Parser) defaultDecl() error {
	switch {
	case p.wsConsumeWs("element"):
		return p.defaultNamespaceDecl(true)
	case p.wsConsumeWs("function"):
		return p.defaultNamespaceDecl(false)
	case p.wsConsumeWs("collation"):
		return p.defaultCollationDecl()
	case p.wsConsumeWs("order"):
		return p.emptyOrderDecl()
	case p.wsConsumeWs("decimal-format"):
		return p.decimalFormatDecl(true)
	default:
		return p.error(errExpected, "element, function, collation, order or decimal-format", p.found())
	}
}

func (p *Parser) defaultNamespaceDecl(elem bool) error {
	if err := p.wsCheck("namespace"); err != nil {
		return err
	}
	uri, err := p.uriLiteral()
	if err != nil {
		return err
	}
	if uri == XmlURI || uri == XmlnsURI {
		return p.error(errBindXml, uri)
	}
	if elem {
		if err := p.setter("default-element", errDuplElemNs); err != nil {
			return err
		}
		p.static.ElemNS = uri
	} else {
		if err := p.setter("default-function", errDuplFuncNs); err != nil {
			return err
		}
		p.static.FuncNS = uri
	}
	return nil
}

func (p *Parser) defaultCollationDecl() error {
	if err := p.setter("collation", errDuplCollation); err != nil {
		return err
	}
	uri, err := p.uriLiteral()
	if err != nil {
		return err
	}
	if err := p.checkAbort(); err != nil {
		return err
	}
	coll, ok := p.collations.Resolve(uri)
	if !ok {
		return p.error(errUnknownColl, uri)
	}
	p.static.Collation = coll
	return nil
}

func (p *Parser) emptyOrderDecl() error {
	if err := p.wsCheck("empty"); err != nil {
		return err
	}
	if err := p.setter("empty-order", errDuplEmptyOrder); err != nil {
		return err
	}
	p.static.EmptyGreatest = p.wsConsumeWs("greatest")
	if !p.static.EmptyGreatest {
		return p.wsCheck("least")
	}
	return nil
}

func (p *Parser) boundarySpaceDecl() error {
	if err := p.setter("boundary-space", errDuplBoundary); err != nil {
		return err
	}
	p.static.PreserveSpace = p.wsConsumeWs("preserve")
	if !p.static.PreserveSpace {
		return p.wsCheck("strip")
	}
	return nil
}

func (p *Parser) baseURIDecl() error {
	if err := p.setter("base-uri", errDuplBaseURI); err != nil {
		return err
	}
	uri, err := p.uriLiteral()
	if err != nil {
		return err
	}
	p.static.BaseURI = uri
	return nil
}

func (p *Parser) constructionDecl() error {
	if err := p.setter("construction", errDuplConstruct); err != nil {
		return err
	}
	if p.wsConsumeWs("strip") {
		p.static.Construction = "strip"
		return nil
	}
	p.static.Construction = "preserve"
	return p.wsCheck("preserve")
}

func (p *Parser) orderingDecl() error {
	if err := p.setter("ordering", errDuplOrdering); err != nil {
		return err
	}
	p.static.Ordered = p.wsConsumeWs("ordered")
	if !p.static.Ordered {
		return p.wsCheck("unordered")
	}
	return nil
}

func (p *Parser) revalidationDecl() error {
	if err := p.setter("revalidation", errDuplRevalidate); err != nil {
		return err
	}
	if p.wsConsumeWs("strict") || p.wsConsumeWs("lax") {
		return p.error(errValidate)
	}
	p.static.Revalidation = "skip"
	return p.wsCheck("skip")
}

func (p *Parser) copyNamespacesDecl() error {
	if err := p.setter("copy-namespaces", errDuplCopyNs); err != nil {
		return err
	}
	p.static.PreserveNS = p.wsConsumeWs("preserve")
	if !p.static.PreserveNS {
		if err := p.wsCheck("no-preserve"); err != nil {
			return err
		}
	}
	if err := p.wsCheck(","); err != nil {
		return err
	}
	p.static.InheritNS = p.wsConsumeWs("inherit")
	if !p.static.InheritNS {
		return p.wsCheck("no-inherit")
	}
	return nil
}

func (p *Parser) decimalFormatDecl(def bool) error {
	var key string
	if !def {
		p.skipWs()
		name, err := p.eQName("", &errNoName)
		if err != nil {
			return err
		}
		key = name.Key()
	}
	if _, ok := p.static.DecimalFormats[key]; ok && (key != "" || p.hasSetter("default-decimal-format")) {
		return p.error(errDuplDecFormat, key)
	}
	if def {
		p.setters["default-decimal-format"] = struct{}{}
	}
	var (
		df   = defaultDecimalFormat()
		seen = make(map[string]struct{})
	)
	for {
		pos := p.mark()
		p.skipWs()
		prop := p.ncName()
		if !slices.Contains(decimalProperties, prop) {
			p.reset(pos)
			break
		}
		if _, ok := seen[prop]; ok {
			return p.error(errDuplDecProp, prop)
		}
		seen[prop] = struct{}{}
		if err := p.wsCheck("="); err != nil {
			return err
		}
		value, err := p.stringLiteral()
		if err != nil {
			return err
		}
		if !df.set(prop, value) {
			return p.error(errInvDecProp, prop, value)
		}
	}
	if !df.distinct() {
		return p.error(errInvDecProp, "picture", "characters must be distinct")
	}
	p.static.DecimalFormats[key] = df
	return nil
}

func (p *Parser) hasSetter(name string) bool {
	_, ok := p.setters[name]
	return ok
}

func (p *Parser) namespaceDecl() error {
	p.skipWs()
	prefix := p.ncName()
	if prefix == "" {
		return p.error(errNoName, p.found())
	}
	if err := p.wsCheck("="); err != nil {
		return err
	}
	uri, err := p.uriLiteral()
	if err != nil {
		return err
	}
	return p.bindPrefix(prefix, uri)
}

// bindPrefix declares a namespace in the prolog.
func (p *Parser) bindPrefix(prefix, uri string) error {
	if prefix == "xml" || prefix == "xmlns" {
		return p.error(errBindXml, prefix)
	}
	if uri == XmlURI || uri == XmlnsURI {
		return p.error(errBindXml, uri)
	}
	if _, ok := p.declaredNS[prefix]; ok {
		return p.error(errDuplNsDecl, prefix)
	}
	p.declaredNS[prefix] = uri
	p.ns.Define(prefix, uri)
	return nil
}

func (p *Parser) schemaImport() error {
	if p.wsConsumeWs("namespace") {
		p.skipWs()
		if p.ncName() == "" {
			return p.error(errNoName, p.found())
		}
		if err := p.wsCheck("="); err != nil {
			return err
		}
	} else if p.wsConsumeWs("default") {
		if err := p.wsCheck("element"); err != nil {
			return err
		}
		if err := p.wsCheck("namespace"); err != nil {
			return err
		}
	}
	if _, err := p.stringLiteral(); err != nil {
		return err
	}
	if _, err := p.locations(); err != nil {
		return err
	}
	return p.error(errSchemaImport)
}

func (p *Parser) moduleImport() error {
	pos := p.here()
	var prefix string
	if p.wsConsumeWs("namespace") {
		p.skipWs()
		prefix = p.ncName()
		if prefix == "" {
			return p.error(errNoName, p.found())
		}
		if err := p.wsCheck("="); err != nil {
			return err
		}
	}
	uri, err := p.uriLiteral()
	if err != nil {
		return err
	}
	if uri == "" {
		return p.errorAt(errModuleEmptyURI, pos)
	}
	if slices.ContainsFunc(p.imports, func(i *Import) bool { return i.URI == uri }) {
		return p.errorAt(errDuplModule, pos, uri)
	}
	if prefix != "" {
		if err := p.bindPrefix(prefix, uri); err != nil {
			return err
		}
	}
	locs, err := p.locations()
	if err != nil {
		return err
	}
	mi := Import{
		Prefix:    prefix,
		URI:       uri,
		Locations: locs,
		Position:  pos,
	}
	p.imports = append(p.imports, &mi)
	p.prolog.Imports = append(p.prolog.Imports, &mi)
	return nil
}

func (p *Parser) locations() ([]string, error) {
	if !p.wsConsumeWs("at") {
		return nil, nil
	}
	var list []string
	for {
		loc, err := p.uriLiteral()
		if err != nil {
			return nil, err
		}
		list = append(list, loc)
		if !p.wsConsume(",") {
			break
		}
	}
	return list, nil
}

func (p *Parser) contextItemDecl() error {
	if err := p.wsCheck("item"); err != nil {
		return err
	}
	if err := p.setter("context-item", errDuplContext); err != nil {
		return err
	}
	if p.wsConsumeWs("as") {
		p.skipWs()
		it, err := p.itemType()
		if err != nil {
			return err
		}
		st := SeqType{Item: it}
		if p.static.ContextType != nil && !p.static.ContextType.Equal(st) {
			return p.error(errContextTypes, p.static.ContextType, st)
		}
		p.static.ContextType = &st
	}
	if p.wsConsumeWs("external") {
		if !p.wsConsume(":=") {
			return nil
		}
	} else if err := p.wsCheck(":="); err != nil {
		return err
	}
	p.scopes.pushContext(FunctionScope, false)
	defer p.scopes.popContext()
	expr, err := p.single()
	if err != nil {
		return err
	}
	if expr == nil {
		return p.error(errNoExpr)
	}
	return nil
}

func (p *Parser) optionDecl() error {
	p.skipWs()
	name, err := p.eQName(XqURI, &errNoName)
	if err != nil {
		return err
	}
	value, err := p.stringLiteral()
	if err != nil {
		return err
	}
	if p.options.Owns(name.URI) && !p.options.Lookup(name) {
		var others []string
		if k, ok := p.options.(interface{ known(string) []string }); ok {
			others = k.known(name.URI)
		}
		return p.error(errUnknownOption, name, suggest(name.Local, others))
	}
	p.prolog.Options = append(p.prolog.Options, Option{
		Name:  name,
		Value: value,
	})
	return nil
}

func (p *Parser) varDecl(anns []Annotation, doc string) error {
	p.Enter("variable")
	defer p.Leave("variable")

	if hasAnnotation(anns, AnnURI, "updating") {
		return p.error(errUpdatingVar)
	}
	if err := p.checkVisibility(anns); err != nil {
		return err
	}
	p.skipWs()
	pos := p.here()
	if err := p.check('$'); err != nil {
		return err
	}
	name, err := p.varName()
	if err != nil {
		return err
	}
	if p.library && name.URI != p.moduleURI {
		return p.errorAt(errModuleNs, pos, "$"+name.String(), p.moduleURI)
	}
	typ, err := p.optAsType()
	if err != nil {
		return err
	}
	decl := VarDecl{
		Var:         p.scopes.create(name, typ, pos),
		Annotations: anns,
		Doc:         doc,
		Position:    pos,
	}
	p.scopes.pushContext(FunctionScope, false)
	defer p.scopes.popContext()

	if decl.External = p.wsConsumeWs("external"); decl.External {
		if p.wsConsume(":=") {
			if decl.Expr, err = p.single(); err != nil {
				return err
			}
			if decl.Expr == nil {
				return p.error(errNoExpr)
			}
		}
	} else {
		if err := p.wsCheck(":="); err != nil {
			return err
		}
		if decl.Expr, err = p.single(); err != nil {
			return err
		}
		if decl.Expr == nil {
			return p.error(errNoExpr)
		}
	}
	if err := p.scopes.declareGlobal(decl.Var); err != nil {
		return p.errorAt(errDuplVar, pos, name)
	}
	p.prolog.Variables = append(p.prolog.Variables, &decl)
	return nil
}

func (p *Parser) optAsType() (*SeqType, error) {
	if !p.wsConsumeWs("as") {
		return nil, nil
	}
	st, err := p.sequenceType()
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (p *Parser) functionDecl(anns []Annotation, doc string) error {
	p.Enter("function")
	defer p.Leave("function")

	if err := p.checkVisibility(anns); err != nil {
		return err
	}
	p.skipWs()
	pos := p.here()
	name, err := p.eQName(p.static.FuncNS, &errNoName)
	if err != nil {
		return err
	}
	if isReservedFunction(name) {
		return p.errorAt(errReserved, pos, name.Local)
	}
	if err := p.wsCheck("("); err != nil {
		return err
	}
	if p.library && name.URI != p.moduleURI {
		return p.errorAt(errModuleNs, pos, name, p.moduleURI)
	}
	if reservedURI(name.URI) {
		return p.errorAt(errFuncReserved, pos, name)
	}
	if name.URI == "" {
		return p.errorAt(errFuncNoNS, pos, name)
	}
	p.scopes.pushContext(FunctionScope, false)
	defer p.scopes.popContext()

	params, err := p.paramList()
	if err != nil {
		return err
	}
	if err := p.wsCheck(")"); err != nil {
		return err
	}
	decl := FuncDecl{
		Name:        name,
		Params:      params,
		Annotations: anns,
		Doc:         doc,
		Position:    pos,
	}
	if decl.Return, err = p.optAsType(); err != nil {
		return err
	}
	if _, ok := p.functions[decl.Signature()]; ok {
		return p.errorAt(errDuplFunc, pos, name, len(params))
	}
	// registered before the body is parsed to accept recursive calls
	p.functions[decl.Signature()] = &decl
	if !p.wsConsumeWs("external") {
		body, err := p.enclosedExpr()
		if err != nil {
			return err
		}
		decl.Body = body
	}
	p.prolog.Functions = append(p.prolog.Functions, &decl)
	return nil
}

func (p *Parser) paramList() ([]*Var, error) {
	var params []*Var
	for {
		p.skipWs()
		if !p.is('$') && len(params) == 0 {
			break
		}
		pos := p.here()
		if err := p.check('$'); err != nil {
			return nil, err
		}
		name, err := p.varName()
		if err != nil {
			return nil, err
		}
		typ, err := p.optAsType()
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(params, func(v *Var) bool { return v.Name.Equal(name) }) {
			return nil, p.errorAt(errDuplParam, pos, name)
		}
		v := p.scopes.create(name, typ, pos)
		p.scopes.declare(v)
		params = append(params, v)
		if !p.wsConsume(",") {
			break
		}
	}
	return params, nil
}

// enclosedExpr parses an expression between curly braces. An empty body
// is the empty sequence.
func (p *Parser) enclosedExpr() (Expr, error) {
	pos := p.here()
	if err := p.wsCheck("{"); err != nil {
		return nil, err
	}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.wsCheck("}"); err != nil {
		return nil, err
	}
	if expr == nil {
		return &Sequence{Position: pos}, nil
	}
	return expr, nil
}
