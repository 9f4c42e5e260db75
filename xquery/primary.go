package xquery

import (
	"strconv"
	"strings"
)

func (p *Parser) primary() (Expr, error) {
	p.skipWs()
	pos := p.here()
	switch r := p.curr(); {
	case r == '(':
		if p.next() == '#' {
			return nil, nil
		}
		return p.parenthesized()
	case r == '$':
		return p.varRef()
	case r == '"' || r == '\'':
		str, err := p.stringLiteral()
		if err != nil {
			return nil, err
		}
		lit := Literal{
			Kind:     StringLiteral,
			Value:    str,
			Position: pos,
		}
		return &lit, nil
	case isDigit(r) || (r == '.' && isDigit(p.next())):
		return p.numericLiteral()
	case r == '.' && p.next() != '.':
		p.pos++
		return &ContextItem{Position: pos}, nil
	case r == '<':
		return p.directConstructor()
	case r == '`' && p.peekString("``["):
		return p.stringConstructor()
	case r == '[':
		return p.squareArray()
	case r == '?':
		if p.next() == '?' || p.next() == ':' {
			return nil, nil
		}
		p.pos++
		return p.lookupKey(nil, pos)
	case r == '%':
		return p.inlineFunction()
	case isNCStartChar(r) || p.peekString("Q{"):
		return p.keywordOrCall()
	default:
		return nil, nil
	}
}

// keywordOrCall parses the primary expressions starting with a name:
// keyword led constructors, function items and function calls. Nil is
// returned for names that are node tests.
func (p *Parser) keywordOrCall() (Expr, error) {
	for _, fn := range []parseFunc{
		p.inlineFunctionExpr,
		p.mapConstructor,
		p.curlyArray,
		p.orderedExpr,
		p.computedConstructor,
	} {
		e, err := fn()
		if err != nil || e != nil {
			return e, err
		}
	}
	pos := p.here()
	name, err := p.eQName(p.static.FuncNS, nil)
	if err != nil || name.IsZero() {
		return nil, err
	}
	if isReservedFunction(name) {
		p.reset(pos.Offset)
		return nil, nil
	}
	p.skipWs()
	switch {
	case p.is('#') && isDigit(p.next()):
		p.pos++
		start := p.mark()
		for isDigit(p.curr()) {
			p.pos++
		}
		arity, err := strconv.Atoi(p.text(start, p.mark()))
		if err != nil {
			return nil, p.error(errNumberRange)
		}
		ref := NamedFunctionRef{
			Name:     name,
			Arity:    arity,
			Position: pos,
		}
		return &ref, nil
	case p.is('(') && p.next() != '#':
		p.pos++
		args, err := p.arguments()
		if err != nil {
			return nil, err
		}
		call := FunctionCall{
			Name:     name,
			Args:     args,
			Position: pos,
		}
		return &call, nil
	default:
		p.reset(pos.Offset)
		return nil, nil
	}
}

func (p *Parser) parenthesized() (Expr, error) {
	pos := p.here()
	if err := p.wsCheck("("); err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.wsCheck(")"); err != nil {
		return nil, err
	}
	if e == nil {
		return &Sequence{Position: pos}, nil
	}
	return e, nil
}

func (p *Parser) varRef() (Expr, error) {
	p.skipWs()
	pos := p.here()
	if err := p.check('$'); err != nil {
		return nil, err
	}
	name, err := p.varName()
	if err != nil {
		return nil, err
	}
	ref := VarRef{
		Name:     name,
		Position: pos,
	}
	if v, ok := p.scopes.resolve(name); ok {
		ref.Var = v
	} else {
		p.refs = append(p.refs, &ref)
	}
	return &ref, nil
}

// numericLiteral parses integer, decimal and double literals. An integer
// out of the range of int64 gives a RangeError node.
func (p *Parser) numericLiteral() (Expr, error) {
	p.skipWs()
	pos := p.here()
	start := p.mark()
	kind := IntegerLiteral
	for isDigit(p.curr()) {
		p.pos++
	}
	if p.is('.') && p.next() != '.' {
		p.pos++
		kind = DecimalLiteral
		for isDigit(p.curr()) {
			p.pos++
		}
	}
	if p.is('e') || p.is('E') {
		mark := p.mark()
		p.pos++
		if p.is('+') || p.is('-') {
			p.pos++
		}
		if !isDigit(p.curr()) {
			p.reset(mark)
			return nil, p.error(errNumberWs)
		}
		for isDigit(p.curr()) {
			p.pos++
		}
		kind = DoubleLiteral
	}
	if r := p.curr(); isNCStartChar(r) || (r == '.' && p.next() != '.') {
		return nil, p.error(errNumberWs)
	}
	str := p.text(start, p.mark())
	if kind == IntegerLiteral {
		if _, err := strconv.ParseInt(str, 10, 64); err != nil {
			rg := RangeError{
				Literal:  str,
				Code:     CodeIntegerRange,
				Position: pos,
			}
			return &rg, nil
		}
	}
	lit := Literal{
		Kind:     kind,
		Value:    str,
		Position: pos,
	}
	return &lit, nil
}

func (p *Parser) inlineFunctionExpr() (Expr, error) {
	if !p.peekKeyword("function", "(") && !p.peekKeyword("fn", "(") {
		return nil, nil
	}
	return p.inlineFunction()
}

func (p *Parser) inlineFunction() (Expr, error) {
	p.Enter("inline-function")
	defer p.Leave("inline-function")

	p.skipWs()
	pos := p.here()
	anns, err := p.annotations(false)
	if err != nil {
		return nil, err
	}
	if !p.wsConsumeWs("function") && !p.wsConsumeWs("fn") {
		if len(anns) == 0 {
			p.reset(pos.Offset)
			return nil, nil
		}
		return nil, p.error(errExpected, "function", p.found())
	}
	if err := p.wsCheck("("); err != nil {
		return nil, err
	}
	p.scopes.pushContext(InlineScope, true)
	defer p.scopes.popContext()

	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	if err := p.wsCheck(")"); err != nil {
		return nil, err
	}
	fn := InlineFunction{
		Annotations: anns,
		Params:      params,
		Position:    pos,
	}
	if fn.Return, err = p.optAsType(); err != nil {
		return nil, err
	}
	if fn.Body, err = p.enclosedExpr(); err != nil {
		return nil, err
	}
	return &fn, nil
}

func (p *Parser) mapConstructor() (Expr, error) {
	pos := p.here()
	if !p.wsConsumeWs2("map", "{", &errIncomplete) {
		return nil, nil
	}
	p.wsConsume("{")
	expr := MapConstructor{
		Position: pos,
	}
	if p.wsConsume("}") {
		return &expr, nil
	}
	for {
		key, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		if err := p.wsCheck(":"); err != nil {
			return nil, err
		}
		val, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		expr.Entries = append(expr.Entries, MapEntry{
			Key:   key,
			Value: val,
		})
		if !p.wsConsume(",") {
			break
		}
	}
	if err := p.wsCheck("}"); err != nil {
		return nil, err
	}
	return &expr, nil
}

func (p *Parser) squareArray() (Expr, error) {
	pos := p.here()
	if err := p.wsCheck("["); err != nil {
		return nil, err
	}
	expr := ArrayConstructor{
		Square:   true,
		Position: pos,
	}
	if p.wsConsume("]") {
		return &expr, nil
	}
	for {
		e, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		expr.Members = append(expr.Members, e)
		if !p.wsConsume(",") {
			break
		}
	}
	if err := p.wsCheck("]"); err != nil {
		return nil, err
	}
	return &expr, nil
}

func (p *Parser) curlyArray() (Expr, error) {
	pos := p.here()
	if !p.wsConsumeWs2("array", "{", &errIncomplete) {
		return nil, nil
	}
	p.wsConsume("{")
	expr := ArrayConstructor{
		Position: pos,
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if e != nil {
		expr.Members = append(expr.Members, e)
	}
	if err := p.wsCheck("}"); err != nil {
		return nil, err
	}
	return &expr, nil
}

func (p *Parser) orderedExpr() (Expr, error) {
	pos := p.here()
	ordered := true
	if !p.wsConsumeWs2("ordered", "{", &errIncomplete) {
		if !p.wsConsumeWs2("unordered", "{", &errIncomplete) {
			return nil, nil
		}
		ordered = false
	}
	body, err := p.enclosedExpr()
	if err != nil {
		return nil, err
	}
	expr := Ordered{
		Ordered:  ordered,
		Expr:     body,
		Position: pos,
	}
	return &expr, nil
}

// stringConstructor parses ``[ ... ]`` with `{ expr }` interpolations.
func (p *Parser) stringConstructor() (Expr, error) {
	pos := p.here()
	p.pos += 3
	expr := StringConstructor{
		Position: pos,
	}
	var (
		str   strings.Builder
		start = p.here()
	)
	flush := func() {
		if str.Len() == 0 {
			return
		}
		expr.Parts = append(expr.Parts, &Literal{
			Kind:     StringLiteral,
			Value:    str.String(),
			Position: start,
		})
		str.Reset()
	}
	for {
		if !p.more() {
			return nil, p.error(errStringCons)
		}
		switch {
		case p.consumeString("]``"):
			flush()
			return &expr, nil
		case p.consumeString("`{"):
			flush()
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.wsCheck("}`"); err != nil {
				return nil, err
			}
			if e != nil {
				expr.Parts = append(expr.Parts, e)
			}
			start = p.here()
		default:
			str.WriteRune(p.consume())
		}
	}
}

var computedKeywords = []string{
	"document",
	"element",
	"attribute",
	"text",
	"comment",
	"processing-instruction",
	"namespace",
}

// computedKeyword returns the keyword of a computed constructor at the
// cursor. The cursor is left after the keyword.
func (p *Parser) computedKeyword() string {
	pos := p.mark()
	for _, kw := range computedKeywords {
		if !p.wsConsumeWs(kw) {
			continue
		}
		after := p.mark()
		p.skipWs()
		if p.is('{') {
			p.reset(after)
			return kw
		}
		if kw == "document" || kw == "text" || kw == "comment" {
			break
		}
		if p.consumeString("Q{") {
			for p.more() && !p.is('}') {
				p.pos++
			}
			p.pos++
		}
		if p.qName() != "" {
			p.skipWs()
			if p.is('{') {
				p.reset(after)
				return kw
			}
		}
		break
	}
	p.reset(pos)
	return ""
}
