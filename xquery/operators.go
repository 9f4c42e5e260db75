package xquery

import (
	"slices"
	"strings"
)

func (p *Parser) or() (Expr, error) {
	pos := p.here()
	e, err := p.and()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs("or") {
		return e, nil
	}
	expr := Or{
		Exprs:    []Expr{e},
		Position: pos,
	}
	for {
		next, err := p.required(p.and())
		if err != nil {
			return nil, err
		}
		expr.Exprs = append(expr.Exprs, next)
		if !p.wsConsumeWs("or") {
			break
		}
	}
	return &expr, nil
}

func (p *Parser) and() (Expr, error) {
	pos := p.here()
	e, err := p.comparison()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs("and") {
		return e, nil
	}
	expr := And{
		Exprs:    []Expr{e},
		Position: pos,
	}
	for {
		next, err := p.required(p.comparison())
		if err != nil {
			return nil, err
		}
		expr.Exprs = append(expr.Exprs, next)
		if !p.wsConsumeWs("and") {
			break
		}
	}
	return &expr, nil
}

var (
	valueComparisons   = []string{"eq", "ne", "lt", "le", "gt", "ge"}
	generalComparisons = []string{"!=", "<=", ">=", "=", "<", ">"}
)

func (p *Parser) comparisonOp() (string, CmpKind, bool) {
	for _, op := range valueComparisons {
		if p.wsConsumeWs(op) {
			return op, CmpValue, true
		}
	}
	if p.wsConsumeWs("is") {
		return "is", CmpNode, true
	}
	p.skipWs()
	for _, op := range []string{"<<", ">>"} {
		if p.consumeString(op) {
			return op, CmpNode, true
		}
	}
	for _, op := range generalComparisons {
		pos := p.mark()
		if !p.consumeString(op) {
			continue
		}
		if op == "=" && p.is('>') {
			p.reset(pos)
			continue
		}
		return op, CmpGeneral, true
	}
	return "", 0, false
}

// comparison is not repeatable: a second operator is a syntax error
// reported by the caller.
func (p *Parser) comparison() (Expr, error) {
	pos := p.here()
	e, err := p.ftContains()
	if err != nil || e == nil {
		return e, err
	}
	op, kind, ok := p.comparisonOp()
	if !ok {
		return e, nil
	}
	right, err := p.required(p.ftContains())
	if err != nil {
		return nil, err
	}
	expr := Comparison{
		Op:       op,
		Kind:     kind,
		Left:     e,
		Right:    right,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) concat() (Expr, error) {
	pos := p.here()
	e, err := p.rangeExpr()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsume("||") {
		return e, nil
	}
	expr := Concat{
		Exprs:    []Expr{e},
		Position: pos,
	}
	for {
		next, err := p.required(p.rangeExpr())
		if err != nil {
			return nil, err
		}
		expr.Exprs = append(expr.Exprs, next)
		if !p.wsConsume("||") {
			break
		}
	}
	return &expr, nil
}

func (p *Parser) rangeExpr() (Expr, error) {
	pos := p.here()
	e, err := p.additive()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs("to") {
		return e, nil
	}
	to, err := p.required(p.additive())
	if err != nil {
		return nil, err
	}
	expr := Range{
		From:     e,
		To:       to,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) additiveOp() (string, bool) {
	p.skipWs()
	switch {
	case p.is('+'):
		p.pos++
		return "+", true
	case p.is('-') && p.next() != '>':
		p.pos++
		return "-", true
	default:
		return "", false
	}
}

func (p *Parser) additive() (Expr, error) {
	return p.arithmetic(p.multiplicative, p.additiveOp)
}

func (p *Parser) multiplicativeOp() (string, bool) {
	p.skipWs()
	if p.is('*') {
		p.pos++
		return "*", true
	}
	for _, op := range []string{"div", "idiv", "mod"} {
		if p.wsConsumeWs(op) {
			return op, true
		}
	}
	return "", false
}

func (p *Parser) multiplicative() (Expr, error) {
	return p.arithmetic(p.otherwise, p.multiplicativeOp)
}

// arithmetic folds a run of operators of one precedence level into a
// single node.
func (p *Parser) arithmetic(next parseFunc, operator func() (string, bool)) (Expr, error) {
	pos := p.here()
	e, err := next()
	if err != nil || e == nil {
		return e, err
	}
	var expr *Arithmetic
	for {
		mark := p.mark()
		op, ok := operator()
		if !ok {
			p.reset(mark)
			break
		}
		right, err := p.required(next())
		if err != nil {
			return nil, err
		}
		if expr == nil {
			expr = &Arithmetic{
				Exprs:    []Expr{e},
				Position: pos,
			}
		}
		expr.Exprs = append(expr.Exprs, right)
		expr.Ops = append(expr.Ops, op)
	}
	if expr == nil {
		return e, nil
	}
	return expr, nil
}

func (p *Parser) otherwise() (Expr, error) {
	pos := p.here()
	e, err := p.union()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs("otherwise") {
		return e, nil
	}
	expr := Otherwise{
		Exprs:    []Expr{e},
		Position: pos,
	}
	for {
		next, err := p.required(p.union())
		if err != nil {
			return nil, err
		}
		expr.Exprs = append(expr.Exprs, next)
		if !p.wsConsumeWs("otherwise") {
			break
		}
	}
	return &expr, nil
}

func (p *Parser) unionOp() bool {
	if p.wsConsumeWs("union") {
		return true
	}
	p.skipWs()
	if p.is('|') && p.next() != '|' {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) union() (Expr, error) {
	pos := p.here()
	e, err := p.intersect()
	if err != nil || e == nil {
		return e, err
	}
	if !p.unionOp() {
		return e, nil
	}
	expr := Union{
		Exprs:    []Expr{e},
		Position: pos,
	}
	for {
		next, err := p.required(p.intersect())
		if err != nil {
			return nil, err
		}
		expr.Exprs = append(expr.Exprs, next)
		if !p.unionOp() {
			break
		}
	}
	return &expr, nil
}

// intersect parses intersect and except operators. Consecutive uses of the
// same operator share one node.
func (p *Parser) intersect() (Expr, error) {
	pos := p.here()
	e, err := p.instanceOf()
	if err != nil || e == nil {
		return e, err
	}
	var created Expr
	for {
		var except bool
		if !p.wsConsumeWs("intersect") {
			if !p.wsConsumeWs("except") {
				break
			}
			except = true
		}
		next, err := p.required(p.instanceOf())
		if err != nil {
			return nil, err
		}
		switch x := created.(type) {
		case *Intersect:
			if !except {
				x.Exprs = append(x.Exprs, next)
				continue
			}
		case *Except:
			if except {
				x.Exprs = append(x.Exprs, next)
				continue
			}
		}
		if except {
			created = &Except{
				Exprs:    []Expr{e, next},
				Position: pos,
			}
		} else {
			created = &Intersect{
				Exprs:    []Expr{e, next},
				Position: pos,
			}
		}
		e = created
	}
	return e, nil
}

func (p *Parser) instanceOf() (Expr, error) {
	pos := p.here()
	e, err := p.treat()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs2("instance", "of", &errIncomplete) {
		return e, nil
	}
	p.wsConsumeWs("of")
	p.skipWs()
	st, err := p.sequenceType()
	if err != nil {
		return nil, err
	}
	expr := InstanceOf{
		Expr:     e,
		Of:       st,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) treat() (Expr, error) {
	pos := p.here()
	e, err := p.promote()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs2("treat", "as", &errIncomplete) {
		return e, nil
	}
	p.wsConsumeWs("as")
	p.skipWs()
	st, err := p.sequenceType()
	if err != nil {
		return nil, err
	}
	expr := Treat{
		Expr:     e,
		As:       st,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) promote() (Expr, error) {
	pos := p.here()
	e, err := p.castable()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs2("promote", "to", &errIncomplete) {
		return e, nil
	}
	p.wsConsumeWs("to")
	p.skipWs()
	st, err := p.sequenceType()
	if err != nil {
		return nil, err
	}
	expr := Promote{
		Expr:     e,
		To:       st,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) castable() (Expr, error) {
	pos := p.here()
	e, err := p.cast()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs2("castable", "as", &errIncomplete) {
		return e, nil
	}
	p.wsConsumeWs("as")
	st, err := p.castTarget()
	if err != nil {
		return nil, err
	}
	expr := Castable{
		Expr:     e,
		As:       st,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) cast() (Expr, error) {
	pos := p.here()
	e, err := p.arrow()
	if err != nil || e == nil {
		return e, err
	}
	if !p.wsConsumeWs2("cast", "as", &errIncomplete) {
		return e, nil
	}
	p.wsConsumeWs("as")
	st, err := p.castTarget()
	if err != nil {
		return nil, err
	}
	expr := Cast{
		Expr:     e,
		As:       st,
		Position: pos,
	}
	return &expr, nil
}

// castTarget parses a simple type name optionally followed by "?".
func (p *Parser) castTarget() (SeqType, error) {
	p.skipWs()
	pos := p.here()
	name, err := p.eQName(p.static.ElemNS, &errNoName)
	if err != nil {
		return SeqType{}, err
	}
	if !isCastTarget(name) {
		return SeqType{}, p.errorAt(errUnknownType, pos, name, suggest(name.Local, castNames()))
	}
	st := SeqType{
		Item: &ItemType{
			Kind: ItemAtomic,
			Name: name,
		},
	}
	if p.wsConsume("?") {
		st.Occurrence = ZeroOrOne
	}
	return st, nil
}

func castNames() []string {
	return slices.DeleteFunc(slices.Clone(atomicTypes), func(s string) bool {
		return s == "anyAtomicType" || s == "NOTATION"
	})
}

func (p *Parser) arrowOp() (thin, ok bool) {
	p.skipWs()
	switch {
	case p.consumeString("=>"):
		return false, true
	case p.consumeString("->"):
		return true, true
	default:
		return false, false
	}
}

func (p *Parser) arrow() (Expr, error) {
	e, err := p.transformWith()
	if err != nil || e == nil {
		return e, err
	}
	for {
		mark := p.mark()
		thin, ok := p.arrowOp()
		if !ok {
			p.reset(mark)
			break
		}
		pos := p.here()
		expr := Arrow{
			Input:    e,
			Thin:     thin,
			Position: pos,
		}
		p.skipWs()
		switch {
		case p.is('$'):
			expr.Func, err = p.varRef()
		case p.is('('):
			expr.Func, err = p.parenthesized()
		case p.is('%') || p.peekKeyword("function", "(") || p.peekKeyword("fn", "("):
			expr.Func, err = p.inlineFunction()
		default:
			expr.Name, err = p.eQName(p.static.FuncNS, &errArrowTarget)
		}
		if err != nil {
			return nil, err
		}
		if !p.wsConsume("(") {
			return nil, p.error(errNoArgs)
		}
		if expr.Args, err = p.arguments(); err != nil {
			return nil, err
		}
		e = &expr
	}
	return e, nil
}

// peekKeyword reports whether the keyword word followed by next is at the
// cursor. The cursor does not move.
func (p *Parser) peekKeyword(word, next string) bool {
	pos := p.mark()
	defer p.reset(pos)
	return p.wsConsumeWs(word) && p.wsConsume(next)
}

func (p *Parser) transformWith() (Expr, error) {
	pos := p.here()
	e, err := p.unary()
	if err != nil || e == nil {
		return e, err
	}
	for p.wsConsumeWs2("transform", "with", &errIncomplete) {
		p.wsConsumeWs("with")
		modify, err := p.isolated(p.enclosedExpr)
		if err != nil {
			return nil, err
		}
		e = &TransformWith{
			Expr:     e,
			Modify:   modify,
			Position: pos,
		}
	}
	return e, nil
}

// isolated parses an expression whose updating sub-expressions do not
// make the module updating.
func (p *Parser) isolated(fn parseFunc) (Expr, error) {
	updating := p.updating
	defer func() {
		p.updating = updating
	}()
	return fn()
}

func (p *Parser) unary() (Expr, error) {
	pos := p.here()
	var (
		neg  bool
		sign bool
	)
	for {
		p.skipWs()
		if p.is('-') && p.next() != '>' {
			neg = !neg
		} else if !p.is('+') {
			break
		}
		sign = true
		p.pos++
	}
	e, err := p.value()
	if err != nil || !sign {
		return e, err
	}
	if e == nil {
		return nil, p.alterError(errIncomplete)
	}
	switch x := e.(type) {
	case *Literal:
		if x.Kind != StringLiteral {
			if neg {
				if v, ok := strings.CutPrefix(x.Value, "-"); ok {
					x.Value = v
				} else {
					x.Value = "-" + x.Value
				}
			}
			x.Position = pos
			return x, nil
		}
	case *RangeError:
		if neg && x.Literal == minInteger[1:] {
			lit := Literal{
				Kind:     IntegerLiteral,
				Value:    minInteger,
				Position: pos,
			}
			return &lit, nil
		}
	}
	expr := Unary{
		Negate:   neg,
		Expr:     e,
		Position: pos,
	}
	return &expr, nil
}

const minInteger = "-9223372036854775808"

func (p *Parser) value() (Expr, error) {
	pos := p.here()
	if p.wsConsumeWs("validate") {
		p.skipWs()
		if p.is('{') || p.peekString("lax") || p.peekString("strict") || p.peekString("type") {
			return nil, p.error(errValidate)
		}
		p.reset(pos.Offset)
	}
	e, err := p.extension()
	if err != nil || e != nil {
		return e, err
	}
	return p.simpleMap()
}

func (p *Parser) extension() (Expr, error) {
	pos := p.here()
	pragmas, err := p.pragmas()
	if err != nil || len(pragmas) == 0 {
		return nil, err
	}
	body, err := p.enclosedExpr()
	if err != nil {
		return nil, err
	}
	expr := Extension{
		Pragmas:  pragmas,
		Expr:     body,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) pragmas() ([]Pragma, error) {
	var list []Pragma
	for {
		p.skipWs()
		if !p.consumeString("(#") {
			break
		}
		p.consumeWs()
		name, err := p.eQName(XqURI, &errPragmaInvalid)
		if err != nil {
			return nil, err
		}
		if !p.consumeWs() && !p.peekString("#)") {
			return nil, p.error(errPragmaInvalid)
		}
		start := p.mark()
		for !p.peekString("#)") {
			if !p.more() {
				return nil, p.error(errPragmaInvalid)
			}
			p.pos++
		}
		list = append(list, Pragma{
			Name:    name,
			Content: p.text(start, p.mark()),
		})
		p.pos += 2
	}
	return list, nil
}

func (p *Parser) simpleMap() (Expr, error) {
	pos := p.here()
	e, err := p.path()
	if err != nil || e == nil {
		return e, err
	}
	var expr *SimpleMap
	for {
		p.skipWs()
		if !p.is('!') || p.next() == '=' || p.next() == '!' {
			break
		}
		p.pos++
		next, err := p.required(p.path())
		if err != nil {
			return nil, err
		}
		if expr == nil {
			expr = &SimpleMap{
				Exprs:    []Expr{e},
				Position: pos,
			}
		}
		expr.Exprs = append(expr.Exprs, next)
	}
	if expr == nil {
		return e, nil
	}
	return expr, nil
}
