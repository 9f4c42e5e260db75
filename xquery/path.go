package xquery

import (
	"slices"
)

func (p *Parser) path() (Expr, error) {
	p.Enter("path")
	defer p.Leave("path")

	p.skipWs()
	pos := p.here()
	switch {
	case p.consumeString("//"):
		root := Root{Position: pos}
		expr := Path{
			Root:     &root,
			Steps:    []Expr{descendantOrSelf(pos)},
			Position: pos,
		}
		return p.relative(&expr, true)
	case p.is('/') && p.next() != '/':
		p.pos++
		root := Root{Position: pos}
		mark := p.mark()
		p.skipWs()
		if !p.startsStep() {
			p.reset(mark)
			return &root, nil
		}
		expr := Path{
			Root:     &root,
			Position: pos,
		}
		return p.relative(&expr, true)
	default:
		expr := Path{
			Position: pos,
		}
		e, err := p.relative(&expr, false)
		if err != nil || e == nil {
			return e, err
		}
		if x, ok := e.(*Path); ok && len(x.Steps) == 1 {
			if _, ok := x.Steps[0].(*Step); !ok {
				return x.Steps[0], nil
			}
		}
		return e, nil
	}
}

// startsStep reports whether a relative path can start at the cursor
// after a leading slash.
func (p *Parser) startsStep() bool {
	r := p.curr()
	switch {
	case isNCStartChar(r), r == '*', r == '@', r == '.', r == '$', r == '(':
		return true
	case r == '"', r == '\'', r == '[', r == '?', r == '%', r == '`':
		return true
	case r == '<' && (isNCStartChar(p.next()) || p.next() == '!' || p.next() == '?'):
		return true
	default:
		return isDigit(r)
	}
}

func (p *Parser) relative(expr *Path, required bool) (Expr, error) {
	first, err := p.step()
	if err != nil {
		return nil, err
	}
	if first == nil {
		if required || len(expr.Steps) > 0 {
			return nil, p.alterError(errIncomplete)
		}
		return nil, nil
	}
	expr.Steps = append(expr.Steps, first)
	for {
		p.skipWs()
		pos := p.here()
		if p.consumeString("//") {
			expr.Steps = append(expr.Steps, descendantOrSelf(pos))
		} else if !p.consumeRune('/') {
			break
		}
		next, err := p.required(p.step())
		if err != nil {
			return nil, err
		}
		expr.Steps = append(expr.Steps, next)
	}
	return expr, nil
}

func descendantOrSelf(pos Position) *Step {
	return &Step{
		Axis:     AxisDescendantOrSelf,
		Kind:     &ItemType{Kind: ItemNode},
		Position: pos,
	}
}

func (p *Parser) step() (Expr, error) {
	e, err := p.postfix()
	if err != nil || e != nil {
		return e, err
	}
	return p.axisStep()
}

func (p *Parser) axisStep() (Expr, error) {
	p.skipWs()
	pos := p.here()
	step := Step{
		Axis:     AxisChild,
		Position: pos,
	}
	switch {
	case p.consumeString(".."):
		step.Axis = AxisParent
		step.Kind = &ItemType{Kind: ItemNode}
	case p.consumeRune('@'):
		step.Axis = AxisAttribute
		if err := p.stepTest(&step, true); err != nil {
			return nil, err
		}
	default:
		axis, ok := p.axis()
		if ok {
			step.Axis = axis
		}
		if err := p.stepTest(&step, ok); err != nil {
			return nil, err
		}
		if step.Name == nil && step.Kind == nil {
			p.reset(pos.Offset)
			return nil, nil
		}
	}
	preds, err := p.predicates()
	if err != nil {
		return nil, err
	}
	step.Preds = preds
	return &step, nil
}

func (p *Parser) axis() (Axis, bool) {
	pos := p.mark()
	for _, a := range axes {
		if p.consumeString(string(a)) {
			p.skipWs()
			if p.consumeString("::") {
				return a, true
			}
			p.reset(pos)
		}
	}
	return "", false
}

func (p *Parser) stepTest(step *Step, required bool) error {
	p.skipWs()
	kind, err := p.kindTest()
	if err != nil {
		return err
	}
	if kind != nil {
		step.Kind = kind
		if kind.Kind == ItemAttribute && step.Axis == AxisChild {
			step.Axis = AxisAttribute
		}
		return nil
	}
	def := p.static.ElemNS
	if step.Axis == AxisAttribute {
		def = ""
	}
	test, err := p.nameTest(def)
	if err != nil {
		return err
	}
	if test == nil && required {
		return p.error(errNoName, p.found())
	}
	step.Name = test
	return nil
}

// nameTest parses a name or a wildcard. Unprefixed names are in the
// namespace def. Nil is returned when no name test is found.
func (p *Parser) nameTest(def string) (*NameTest, error) {
	pos := p.mark()
	if p.consumeRune('*') {
		if p.consumeRune(':') {
			local := p.ncName()
			if local == "" {
				p.reset(pos)
				return nil, p.error(errNoName, p.found())
			}
			return &NameTest{Mode: NameAnyPrefix, Name: LocalName(local)}, nil
		}
		return &NameTest{Mode: NameAny}, nil
	}
	if p.consumeString("Q{") {
		uri, err := p.bracedURI()
		if err != nil {
			return nil, err
		}
		if p.consumeRune('*') {
			return &NameTest{Mode: NameAnyLocal, Name: ExpandedName(uri, "")}, nil
		}
		p.reset(pos)
	}
	if prefix := p.ncName(); prefix != "" {
		if p.is(':') && p.next() == '*' {
			p.pos += 2
			uri, err := p.ns.Resolve(prefix)
			if err != nil {
				p.reset(pos)
				return nil, p.error(errNoURI, prefix, prefixHint(p.ns, prefix))
			}
			name := QName{
				Prefix: prefix,
				URI:    uri,
			}
			return &NameTest{Mode: NameAnyLocal, Name: name}, nil
		}
		p.reset(pos)
	}
	name, err := p.eQName(def, nil)
	if err != nil || name.IsZero() {
		return nil, err
	}
	return &NameTest{Mode: NameExact, Name: name}, nil
}

func (p *Parser) predicates() ([]Expr, error) {
	var list []Expr
	for p.wsConsume("[") {
		e, err := p.required(p.expr())
		if err != nil {
			return nil, err
		}
		if err := p.wsCheck("]"); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

// postfix parses a primary expression followed by predicates, argument
// lists and lookups.
func (p *Parser) postfix() (Expr, error) {
	pos := p.here()
	e, err := p.primary()
	if err != nil || e == nil {
		return e, err
	}
	for {
		mark := p.mark()
		p.skipWs()
		switch {
		case p.is('['):
			preds, err := p.predicates()
			if err != nil {
				return nil, err
			}
			e = &Filter{
				Expr:     e,
				Preds:    preds,
				Position: pos,
			}
		case p.is('('):
			p.pos++
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			e = &DynamicCall{
				Func:     e,
				Args:     args,
				Position: pos,
			}
		case p.is('?') && !slices.Contains([]rune{'?', ':', '>'}, p.next()):
			p.pos++
			lookup, err := p.lookupKey(e, pos)
			if err != nil {
				return nil, err
			}
			e = lookup
		default:
			p.reset(mark)
			return e, nil
		}
	}
}

// lookupKey parses the key specifier following a question mark.
func (p *Parser) lookupKey(e Expr, pos Position) (Expr, error) {
	expr := Lookup{
		Expr:     e,
		Position: pos,
	}
	p.skipWs()
	kpos := p.here()
	switch r := p.curr(); {
	case r == '*':
		p.pos++
		expr.Wildcard = true
	case r == '(':
		key, err := p.parenthesized()
		if err != nil {
			return nil, err
		}
		expr.Key = key
	case r == '$':
		key, err := p.varRef()
		if err != nil {
			return nil, err
		}
		expr.Key = key
	case r == '"' || r == '\'':
		str, err := p.stringLiteral()
		if err != nil {
			return nil, err
		}
		expr.Key = &Literal{Kind: StringLiteral, Value: str, Position: kpos}
	case isDigit(r):
		start := p.mark()
		for isDigit(p.curr()) {
			p.pos++
		}
		expr.Key = &Literal{Kind: IntegerLiteral, Value: p.text(start, p.mark()), Position: kpos}
	case isNCStartChar(r):
		expr.Key = &Literal{Kind: StringLiteral, Value: p.ncName(), Position: kpos}
	default:
		return nil, p.error(errExpected, "key specifier", p.found())
	}
	return &expr, nil
}

// arguments parses an argument list after its opening parenthesis. A
// question mark alone is a placeholder of a partial function application.
func (p *Parser) arguments() ([]Expr, error) {
	var args []Expr
	if p.wsConsume(")") {
		return args, nil
	}
	for {
		p.skipWs()
		if p.placeholder() {
			args = append(args, &Placeholder{Position: p.here()})
			p.pos++
		} else {
			e, err := p.single()
			if err != nil {
				return nil, err
			}
			if e == nil {
				return nil, p.error(errExpected, "argument", p.found())
			}
			args = append(args, e)
		}
		if !p.wsConsume(",") {
			break
		}
	}
	if err := p.wsCheck(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) placeholder() bool {
	if !p.is('?') {
		return false
	}
	pos := p.mark()
	defer p.reset(pos)
	p.pos++
	p.skipWs()
	return p.is(',') || p.is(')')
}
