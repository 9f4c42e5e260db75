package xquery

// expr parses a comma separated list of expressions. It returns nil
// without error when no expression starts at the cursor.
func (p *Parser) expr() (Expr, error) {
	p.Enter("expr")
	defer p.Leave("expr")

	pos := p.here()
	first, err := p.single()
	if err != nil || first == nil {
		return first, err
	}
	if !p.wsConsume(",") {
		return first, nil
	}
	seq := Sequence{
		Items:    []Expr{first},
		Position: pos,
	}
	for {
		e, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		seq.Items = append(seq.Items, e)
		if !p.wsConsume(",") {
			break
		}
	}
	return &seq, nil
}

// required turns a missing expression into an error.
func (p *Parser) required(e Expr, err error) (Expr, error) {
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, p.alterError(errIncomplete)
	}
	return e, nil
}

type parseFunc func() (Expr, error)

// single parses an ExprSingle: the keyword led expressions are tried
// first, in an order where the shared prefixes are distinguished by the
// following token.
func (p *Parser) single() (Expr, error) {
	p.Enter("single")
	defer p.Leave("single")

	p.alter = nil
	if err := p.nest(); err != nil {
		return nil, err
	}
	defer p.unnest()

	for _, fn := range []parseFunc{
		p.flwor,
		p.quantified,
		p.switchExpr,
		p.typeswitch,
		p.ifExpr,
		p.tryCatch,
		p.insert,
		p.deleteExpr,
		p.rename,
		p.replace,
		p.updatingCall,
		p.copyModify,
	} {
		e, err := fn()
		if err != nil || e != nil {
			return e, err
		}
	}
	return p.ternary()
}

func (p *Parser) ternary() (Expr, error) {
	pos := p.here()
	e, err := p.or()
	if err != nil || e == nil {
		return e, err
	}
	switch {
	case p.wsConsume("??"):
		then, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		if !p.wsConsume("!!") {
			return nil, p.error(errNoTernary)
		}
		alt, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		expr := If{
			Test:     e,
			Then:     then,
			Else:     alt,
			Position: pos,
		}
		return &expr, nil
	case p.wsConsume("?:"):
		alt, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		expr := Otherwise{
			Exprs:    []Expr{e, alt},
			Position: pos,
		}
		return &expr, nil
	default:
		return e, nil
	}
}

func (p *Parser) ifExpr() (Expr, error) {
	pos := p.here()
	if !p.wsConsumeWs2("if", "(", &errIncomplete) {
		return nil, nil
	}
	p.Enter("if")
	defer p.Leave("if")

	p.wsConsume("(")
	test, err := p.required(p.expr())
	if err != nil {
		return nil, err
	}
	if err := p.wsCheck(")"); err != nil {
		return nil, err
	}
	expr := If{
		Test:     test,
		Position: pos,
	}
	if !p.wsConsumeWs("then") {
		if expr.Then, err = p.enclosedExpr(); err != nil {
			return nil, err
		}
		if p.wsConsumeWs("else") {
			if e, err := p.ifExpr(); err != nil || e != nil {
				expr.Else = e
				return &expr, err
			}
			expr.Else, err = p.enclosedExpr()
		}
		return &expr, err
	}
	if expr.Then, err = p.required(p.single()); err != nil {
		return nil, err
	}
	if p.wsConsumeWs("else") {
		expr.Else, err = p.required(p.single())
	}
	return &expr, err
}

func (p *Parser) quantified() (Expr, error) {
	pos := p.here()
	var every bool
	if !p.wsConsumeWs2("some", "$", &errIncomplete) {
		if !p.wsConsumeWs2("every", "$", &errIncomplete) {
			return nil, nil
		}
		every = true
	}
	p.Enter("quantified")
	defer p.Leave("quantified")

	p.scopes.open(QuantifiedScope)
	defer p.scopes.close()

	expr := Quantified{
		Every:    every,
		Position: pos,
	}
	for {
		if err := p.wsCheck("$"); err != nil {
			return nil, err
		}
		vpos := p.here()
		name, err := p.varName()
		if err != nil {
			return nil, err
		}
		typ, err := p.optAsType()
		if err != nil {
			return nil, err
		}
		if err := p.wsCheck("in"); err != nil {
			return nil, err
		}
		in, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		v := p.scopes.create(name, typ, vpos)
		p.scopes.declare(v)
		expr.Bindings = append(expr.Bindings, Binding{
			Var: v,
			In:  in,
		})
		if !p.wsConsume(",") {
			break
		}
	}
	if !p.wsConsumeWs("satisfies") {
		return nil, p.error(errNoSatisfies)
	}
	sat, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	expr.Satisfies = sat
	return &expr, nil
}

func (p *Parser) switchExpr() (Expr, error) {
	pos := p.here()
	if !p.wsConsumeWs2("switch", "(", &errIncomplete) {
		return nil, nil
	}
	p.Enter("switch")
	defer p.Leave("switch")

	p.wsConsume("(")
	operand, err := p.required(p.expr())
	if err != nil {
		return nil, err
	}
	if err := p.wsCheck(")"); err != nil {
		return nil, err
	}
	braced := p.wsConsume("{")
	expr := Switch{
		Operand:  operand,
		Position: pos,
	}
	for p.wsConsumeWs("case") {
		var sc SwitchCase
		for {
			v, err := p.required(p.single())
			if err != nil {
				return nil, err
			}
			sc.Values = append(sc.Values, v)
			if !p.wsConsumeWs("case") {
				break
			}
		}
		if err := p.wsCheck("return"); err != nil {
			return nil, err
		}
		if sc.Return, err = p.required(p.single()); err != nil {
			return nil, err
		}
		expr.Cases = append(expr.Cases, sc)
	}
	if len(expr.Cases) == 0 {
		return nil, p.error(errNoSwitch)
	}
	if !p.wsConsumeWs("default") {
		return nil, p.error(errNoDefault)
	}
	if err := p.wsCheck("return"); err != nil {
		return nil, err
	}
	if expr.Default, err = p.required(p.single()); err != nil {
		return nil, err
	}
	if braced {
		if err := p.wsCheck("}"); err != nil {
			return nil, err
		}
	}
	return &expr, nil
}

func (p *Parser) typeswitch() (Expr, error) {
	pos := p.here()
	if !p.wsConsumeWs2("typeswitch", "(", &errIncomplete) {
		return nil, nil
	}
	p.Enter("typeswitch")
	defer p.Leave("typeswitch")

	p.wsConsume("(")
	operand, err := p.required(p.expr())
	if err != nil {
		return nil, err
	}
	if err := p.wsCheck(")"); err != nil {
		return nil, err
	}
	braced := p.wsConsume("{")
	expr := Typeswitch{
		Operand:  operand,
		Position: pos,
	}
	for p.wsConsumeWs("case") {
		tc, err := p.typeCase(true)
		if err != nil {
			return nil, err
		}
		expr.Cases = append(expr.Cases, tc)
	}
	if len(expr.Cases) == 0 {
		return nil, p.error(errNoTypeswitch)
	}
	if !p.wsConsumeWs("default") {
		return nil, p.error(errNoDefault)
	}
	if expr.Default, err = p.typeCase(false); err != nil {
		return nil, err
	}
	if braced {
		if err := p.wsCheck("}"); err != nil {
			return nil, err
		}
	}
	return &expr, nil
}

func (p *Parser) typeCase(withTypes bool) (TypeCase, error) {
	var tc TypeCase
	p.scopes.open(TypeswitchScope)
	defer p.scopes.close()

	p.skipWs()
	if p.consumeRune('$') {
		pos := p.here()
		name, err := p.varName()
		if err != nil {
			return tc, err
		}
		tc.Var = p.scopes.create(name, nil, pos)
		if withTypes {
			if err := p.wsCheck("as"); err != nil {
				return tc, err
			}
		}
	}
	if withTypes {
		for {
			p.skipWs()
			st, err := p.sequenceType()
			if err != nil {
				return tc, err
			}
			tc.Types = append(tc.Types, st)
			if !p.wsConsume("|") {
				break
			}
		}
		if tc.Var != nil && len(tc.Types) == 1 {
			tc.Var.Type = &tc.Types[0]
		}
	}
	if tc.Var != nil {
		p.scopes.declare(tc.Var)
	}
	if err := p.wsCheck("return"); err != nil {
		return tc, err
	}
	ret, err := p.required(p.single())
	if err != nil {
		return tc, err
	}
	tc.Return = ret
	return tc, nil
}

var catchVariables = []string{
	"code",
	"description",
	"value",
	"module",
	"line-number",
	"column-number",
	"additional",
	"map",
}

func (p *Parser) tryCatch() (Expr, error) {
	pos := p.here()
	if !p.wsConsumeWs2("try", "{", &errIncomplete) {
		return nil, nil
	}
	p.Enter("try")
	defer p.Leave("try")

	body, err := p.enclosedExpr()
	if err != nil {
		return nil, err
	}
	expr := Try{
		Body:     body,
		Position: pos,
	}
	for p.wsConsumeWs("catch") {
		c, err := p.catchClause()
		if err != nil {
			return nil, err
		}
		expr.Catches = append(expr.Catches, c)
	}
	if len(expr.Catches) == 0 {
		return nil, p.error(errNoCatch)
	}
	return &expr, nil
}

func (p *Parser) catchClause() (Catch, error) {
	var c Catch
	for {
		p.skipWs()
		test, err := p.nameTest(ErrURI)
		if err != nil {
			return c, err
		}
		if test == nil {
			return c, p.error(errNoName, p.found())
		}
		c.Tests = append(c.Tests, *test)
		if !p.wsConsume("|") {
			break
		}
	}
	p.scopes.open(CatchScope)
	defer p.scopes.close()

	pos := p.here()
	for _, local := range catchVariables {
		v := p.scopes.create(ExpandedName(ErrURI, local), nil, pos)
		v.Name.Prefix = "err"
		p.scopes.declare(v)
		c.Vars = append(c.Vars, v)
	}
	body, err := p.enclosedExpr()
	if err != nil {
		return c, err
	}
	c.Body = body
	return c, nil
}
