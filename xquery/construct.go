package xquery

import (
	"strings"

	"github.com/midbel/xq/environ"
)

func (p *Parser) directConstructor() (Expr, error) {
	switch {
	case p.peekString("<!--"):
		return p.directComment()
	case p.peekString("<?"):
		return p.directPI()
	case isNCStartChar(p.next()):
		return p.directElement()
	default:
		return nil, nil
	}
}

func (p *Parser) directElement() (Expr, error) {
	p.Enter("direct-element")
	defer p.Leave("direct-element")

	if err := p.nest(); err != nil {
		return nil, err
	}
	defer p.unnest()

	pos := p.here()
	p.pos++

	parent := p.ns
	p.ns = environ.Enclosed[string](parent)
	defer func() {
		p.ns = parent
	}()

	var (
		mark = p.names.mark()
		tag  = p.qName()
		elem = ElementConstructor{
			Name:     parseQName(tag),
			Position: pos,
		}
	)
	if tag == "" {
		return nil, p.error(errNoTag)
	}
	p.names.add(&elem.Name, true, pos)
	if err := p.directAttributes(&elem); err != nil {
		return nil, err
	}

	elemNS := p.static.ElemNS
	if uri, ok := p.ns.Lookup(""); ok {
		elemNS = uri
	}
	if err := p.names.assignURI(mark, p.ns, elemNS); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, a := range elem.Attrs {
		key := a.Name.Key()
		if _, ok := seen[key]; ok {
			return nil, p.errorAt(errDuplAttr, a.Position, a.Name)
		}
		seen[key] = struct{}{}
	}

	if p.consumeString("/>") {
		return &elem, nil
	}
	if err := p.check('>'); err != nil {
		return nil, err
	}
	content, err := p.directContent()
	if err != nil {
		return nil, err
	}
	elem.Content = content

	end := p.qName()
	if end != tag {
		return nil, p.error(errTagWrong, tag, end)
	}
	p.consumeWs()
	if err := p.check('>'); err != nil {
		return nil, err
	}
	return &elem, nil
}

func (p *Parser) directAttributes(elem *ElementConstructor) error {
	for {
		ws := p.consumeWs()
		if p.is('/') || p.is('>') {
			return nil
		}
		if !ws {
			return p.error(errExpected, "whitespace", p.found())
		}
		pos := p.here()
		name := p.qName()
		if name == "" {
			return p.error(errNoName, p.found())
		}
		p.consumeWs()
		if err := p.check('='); err != nil {
			return err
		}
		p.consumeWs()
		parts, err := p.attributeValue()
		if err != nil {
			return err
		}
		qn := parseQName(name)
		if qn.Prefix == "xmlns" || name == "xmlns" {
			if err := p.namespaceAttr(elem, qn, parts, pos); err != nil {
				return err
			}
			continue
		}
		attr := AttributeConstructor{
			Name:     qn,
			Value:    parts,
			Position: pos,
		}
		elem.Attrs = append(elem.Attrs, &attr)
		p.names.add(&attr.Name, false, pos)
	}
}

func (p *Parser) namespaceAttr(elem *ElementConstructor, name QName, parts []Expr, pos Position) error {
	var prefix string
	if name.Prefix == "xmlns" {
		prefix = name.Local
	}
	var uri string
	for _, x := range parts {
		lit, ok := x.(*Literal)
		if !ok {
			return p.errorAt(errNsAttrValue, pos)
		}
		uri += lit.Value
	}
	uri = normalizeSpace(uri)
	for _, n := range elem.Namespaces {
		if n.Prefix == prefix {
			return p.errorAt(errDuplNsAttr, pos, name)
		}
	}
	switch {
	case prefix == "xml" && uri != XmlURI, prefix == "xmlns":
		return p.errorAt(errBindXml, pos, prefix)
	case prefix != "xml" && (uri == XmlURI || uri == XmlnsURI):
		return p.errorAt(errBindXml, pos, uri)
	case prefix != "" && uri == "":
		return p.errorAt(errNsAttrValue, pos)
	}
	elem.Namespaces = append(elem.Namespaces, NamespaceDecl{
		Prefix: prefix,
		URI:    uri,
	})
	p.ns.Define(prefix, uri)
	return nil
}

// attributeValue parses a quoted attribute value of a direct constructor
// into literal parts and enclosed expressions.
func (p *Parser) attributeValue() ([]Expr, error) {
	delim := p.curr()
	if delim != '"' && delim != '\'' {
		return nil, p.error(errNoQuote)
	}
	p.pos++
	var (
		parts []Expr
		str   strings.Builder
		start = p.here()
	)
	flush := func() {
		if str.Len() == 0 {
			return
		}
		parts = append(parts, &Literal{
			Kind:     StringLiteral,
			Value:    str.String(),
			Position: start,
		})
		str.Reset()
	}
	for {
		switch {
		case !p.more():
			return nil, p.error(errNoQuote)
		case p.is(delim):
			if p.next() != delim {
				p.pos++
				flush()
				return parts, nil
			}
			p.pos += 2
			str.WriteRune(delim)
		case p.consumeString("{{"):
			str.WriteRune('{')
		case p.consumeString("}}"):
			str.WriteRune('}')
		case p.is('{'):
			flush()
			e, err := p.enclosedExpr()
			if err != nil {
				return nil, err
			}
			parts = append(parts, e)
			start = p.here()
		case p.is('}'), p.is('<'):
			return nil, p.error(errExpected, "attribute value", p.found())
		default:
			var tmp strings.Builder
			ref, err := p.entity(&tmp)
			if err != nil {
				return nil, err
			}
			if ref {
				str.WriteString(tmp.String())
			} else {
				str.WriteString(strings.Map(normalizeAttrSpace, tmp.String()))
			}
		}
	}
}

func normalizeAttrSpace(r rune) rune {
	if r == '\n' || r == '\t' || r == '\r' {
		return ' '
	}
	return r
}

// directContent parses the content of a direct element up to its end
// tag. The cursor is left after "</".
func (p *Parser) directContent() ([]Expr, error) {
	var (
		list     []Expr
		str      strings.Builder
		boundary = true
		start    = p.here()
	)
	flush := func() {
		if str.Len() == 0 {
			return
		}
		if !boundary || p.static.PreserveSpace {
			list = append(list, &Literal{
				Kind:     StringLiteral,
				Value:    str.String(),
				Position: start,
			})
		}
		str.Reset()
		boundary = true
	}
	for {
		if !p.more() {
			return nil, p.error(errNoContent)
		}
		switch {
		case p.consumeString("</"):
			flush()
			return list, nil
		case p.peekString("<![CDATA["):
			p.pos += 9
			begin := p.mark()
			for !p.peekString("]]>") {
				if !p.more() {
					return nil, p.error(errNoContent)
				}
				p.pos++
			}
			str.WriteString(p.text(begin, p.mark()))
			boundary = false
			p.pos += 3
		case p.is('<'):
			flush()
			e, err := p.directConstructor()
			if err != nil {
				return nil, err
			}
			if e == nil {
				return nil, p.error(errNoTag)
			}
			list = append(list, e)
			start = p.here()
		case p.consumeString("{{"):
			str.WriteRune('{')
			boundary = false
		case p.consumeString("}}"):
			str.WriteRune('}')
			boundary = false
		case p.is('{'):
			flush()
			e, err := p.enclosedExpr()
			if err != nil {
				return nil, err
			}
			list = append(list, e)
			start = p.here()
		case p.is('}'):
			return nil, p.error(errExpected, "}}", p.found())
		default:
			if str.Len() == 0 {
				start = p.here()
			}
			ref, err := p.entity(&str)
			if err != nil {
				return nil, err
			}
			if ref || !isSpace(p.at(p.mark()-1)) {
				boundary = false
			}
		}
	}
}

func (p *Parser) directComment() (Expr, error) {
	pos := p.here()
	p.pos += 4
	begin := p.mark()
	for !p.peekString("-->") {
		if !p.more() {
			return nil, p.error(errNoContent)
		}
		if p.peekString("--") {
			return nil, p.error(errCommentDash)
		}
		p.pos++
	}
	text := p.text(begin, p.mark())
	p.pos += 3
	expr := CommentConstructor{
		Expr: &Literal{
			Kind:     StringLiteral,
			Value:    text,
			Position: pos,
		},
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) directPI() (Expr, error) {
	pos := p.here()
	p.pos += 2
	target := p.ncName()
	if target == "" {
		return nil, p.error(errNoName, p.found())
	}
	if strings.EqualFold(target, "xml") {
		return nil, p.errorAt(errPIXml, pos, target)
	}
	if !p.consumeWs() && !p.peekString("?>") {
		return nil, p.error(errExpected, "?>", p.found())
	}
	begin := p.mark()
	for !p.peekString("?>") {
		if !p.more() {
			return nil, p.error(errNoContent)
		}
		p.pos++
	}
	text := p.text(begin, p.mark())
	p.pos += 2
	expr := PIConstructor{
		Target: target,
		Content: &Literal{
			Kind:     StringLiteral,
			Value:    text,
			Position: pos,
		},
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) computedConstructor() (Expr, error) {
	p.skipWs()
	pos := p.here()
	kw := p.computedKeyword()
	if kw == "" {
		return nil, nil
	}
	p.Enter("computed-" + kw)
	defer p.Leave("computed-" + kw)

	switch kw {
	case "document":
		body, err := p.enclosedExpr()
		if err != nil {
			return nil, err
		}
		return &DocumentConstructor{Expr: body, Position: pos}, nil
	case "text":
		body, err := p.enclosedExpr()
		if err != nil {
			return nil, err
		}
		return &TextConstructor{Expr: body, Position: pos}, nil
	case "comment":
		body, err := p.enclosedExpr()
		if err != nil {
			return nil, err
		}
		return &CommentConstructor{Expr: body, Computed: true, Position: pos}, nil
	case "element":
		return p.computedElement(pos)
	case "attribute":
		return p.computedAttribute(pos)
	case "processing-instruction":
		return p.computedPI(pos)
	default:
		return p.computedNamespace(pos)
	}
}

// computedName parses either a literal name or a name expression in
// braces.
func (p *Parser) computedName(def string) (QName, Expr, error) {
	p.skipWs()
	if p.is('{') {
		e, err := p.enclosedExpr()
		return QName{}, e, err
	}
	name, err := p.eQName(def, &errNoName)
	return name, nil, err
}

// optEnclosed parses an enclosed expression that may be empty.
func (p *Parser) optEnclosed() (Expr, error) {
	if err := p.wsCheck("{"); err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return e, p.wsCheck("}")
}

func (p *Parser) computedElement(pos Position) (Expr, error) {
	name, nameExpr, err := p.computedName(p.static.ElemNS)
	if err != nil {
		return nil, err
	}
	content, err := p.optEnclosed()
	if err != nil {
		return nil, err
	}
	elem := ElementConstructor{
		Name:     name,
		NameExpr: nameExpr,
		Computed: true,
		Position: pos,
	}
	if content != nil {
		elem.Content = []Expr{content}
	}
	return &elem, nil
}

func (p *Parser) computedAttribute(pos Position) (Expr, error) {
	name, nameExpr, err := p.computedName("")
	if err != nil {
		return nil, err
	}
	value, err := p.optEnclosed()
	if err != nil {
		return nil, err
	}
	attr := AttributeConstructor{
		Name:     name,
		NameExpr: nameExpr,
		Computed: true,
		Position: pos,
	}
	if value != nil {
		attr.Value = []Expr{value}
	}
	return &attr, nil
}

func (p *Parser) computedPI(pos Position) (Expr, error) {
	expr := PIConstructor{
		Computed: true,
		Position: pos,
	}
	p.skipWs()
	if p.is('{') {
		target, err := p.enclosedExpr()
		if err != nil {
			return nil, err
		}
		expr.TargetExpr = target
	} else {
		expr.Target = p.ncName()
		if expr.Target == "" {
			return nil, p.error(errNoName, p.found())
		}
	}
	content, err := p.optEnclosed()
	if err != nil {
		return nil, err
	}
	expr.Content = content
	return &expr, nil
}

func (p *Parser) computedNamespace(pos Position) (Expr, error) {
	expr := NamespaceConstructor{
		Position: pos,
	}
	p.skipWs()
	if p.is('{') {
		prefix, err := p.enclosedExpr()
		if err != nil {
			return nil, err
		}
		expr.PrefixExpr = prefix
	} else {
		expr.Prefix = p.ncName()
		if expr.Prefix == "" {
			return nil, p.error(errNoName, p.found())
		}
	}
	uri, err := p.optEnclosed()
	if err != nil {
		return nil, err
	}
	expr.URI = uri
	return &expr, nil
}
