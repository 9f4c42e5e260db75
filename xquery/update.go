package xquery

type InsertMode int

const (
	InsertInto InsertMode = iota
	InsertFirst
	InsertLast
	InsertAfter
	InsertBefore
)

func (m InsertMode) String() string {
	switch m {
	case InsertFirst:
		return "as first into"
	case InsertLast:
		return "as last into"
	case InsertAfter:
		return "after"
	case InsertBefore:
		return "before"
	default:
		return "into"
	}
}

type Insert struct {
	Source Expr
	Mode   InsertMode
	Target Expr
	Position
}

func (_ Insert) Type() SeqType {
	return EmptySeq
}

type Delete struct {
	Target Expr
	Position
}

func (_ Delete) Type() SeqType {
	return EmptySeq
}

type Rename struct {
	Target Expr
	Name   Expr
	Position
}

func (_ Rename) Type() SeqType {
	return EmptySeq
}

// Replace replaces a node, or its value when Value is set.
type Replace struct {
	Target Expr
	With   Expr
	Value  bool
	Position
}

func (_ Replace) Type() SeqType {
	return EmptySeq
}

// Copy is the copy modify return expression.
type Copy struct {
	Bindings []Binding
	Modify   Expr
	Return   Expr
	Position
}

func (c Copy) Type() SeqType {
	return c.Return.Type()
}

type UpdatingCall struct {
	Func             Expr
	Args             []Expr
	Updating         bool
	NonDeterministic bool
	Position
}

func (_ UpdatingCall) Type() SeqType {
	return AnyItems
}

// keywords consumes the given keywords in sequence. The cursor is not
// moved when one of them is missing.
func (p *Parser) keywords(words ...string) bool {
	pos := p.mark()
	for _, w := range words {
		if !p.wsConsumeWs(w) {
			p.reset(pos)
			return false
		}
	}
	return true
}

func (p *Parser) insert() (Expr, error) {
	p.skipWs()
	pos := p.here()
	if !p.keywords("insert", "node") && !p.keywords("insert", "nodes") {
		return nil, nil
	}
	p.Enter("insert")
	defer p.Leave("insert")

	src, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	expr := Insert{
		Source:   src,
		Position: pos,
	}
	switch {
	case p.wsConsumeWs("as"):
		switch {
		case p.wsConsumeWs("first"):
			expr.Mode = InsertFirst
		case p.wsConsumeWs("last"):
			expr.Mode = InsertLast
		default:
			return nil, p.error(errExpected, "first or last", p.found())
		}
		if !p.wsConsumeWs("into") {
			return nil, p.error(errExpected, "into", p.found())
		}
	case p.wsConsumeWs("into"):
		expr.Mode = InsertInto
	case p.wsConsumeWs("after"):
		expr.Mode = InsertAfter
	case p.wsConsumeWs("before"):
		expr.Mode = InsertBefore
	default:
		return nil, p.error(errIncomplete)
	}
	if expr.Target, err = p.required(p.single()); err != nil {
		return nil, err
	}
	p.updating = true
	return &expr, nil
}

func (p *Parser) deleteExpr() (Expr, error) {
	p.skipWs()
	pos := p.here()
	if !p.keywords("delete", "nodes") && !p.keywords("delete", "node") {
		return nil, nil
	}
	p.Enter("delete")
	defer p.Leave("delete")

	target, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	p.updating = true
	return &Delete{Target: target, Position: pos}, nil
}

func (p *Parser) rename() (Expr, error) {
	p.skipWs()
	pos := p.here()
	if !p.keywords("rename", "node") {
		return nil, nil
	}
	p.Enter("rename")
	defer p.Leave("rename")

	target, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	if !p.wsConsumeWs("as") {
		return nil, p.error(errExpected, "as", p.found())
	}
	name, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	p.updating = true
	expr := Rename{
		Target:   target,
		Name:     name,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) replace() (Expr, error) {
	p.skipWs()
	pos := p.here()
	value := p.keywords("replace", "value", "of", "node")
	if !value && !p.keywords("replace", "node") {
		return nil, nil
	}
	p.Enter("replace")
	defer p.Leave("replace")

	target, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	if !p.wsConsumeWs("with") {
		return nil, p.error(errExpected, "with", p.found())
	}
	with, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	p.updating = true
	expr := Replace{
		Target:   target,
		With:     with,
		Value:    value,
		Position: pos,
	}
	return &expr, nil
}

// updatingCall parses "invoke updating f(args)" and the non-deterministic
// form. The invoke keyword is optional.
func (p *Parser) updatingCall() (Expr, error) {
	p.skipWs()
	pos := p.here()
	p.wsConsumeWs("invoke")
	var (
		upd = p.wsConsumeWs("updating")
		ndt = p.wsConsumeWs("non-deterministic")
	)
	if !upd && !ndt {
		p.reset(pos.Offset)
		return nil, nil
	}
	fn, err := p.primary()
	if err != nil {
		return nil, err
	}
	if fn == nil || !p.wsConsume("(") {
		p.reset(pos.Offset)
		return nil, nil
	}
	args, err := p.arguments()
	if err != nil {
		return nil, err
	}
	if upd {
		p.updating = true
	}
	expr := UpdatingCall{
		Func:             fn,
		Args:             args,
		Updating:         upd,
		NonDeterministic: ndt,
		Position:         pos,
	}
	return &expr, nil
}

// copyModify parses copy $v := e modify m return r. Updates in the modify
// clause apply to the copies: the expression itself is not updating.
func (p *Parser) copyModify() (Expr, error) {
	p.skipWs()
	pos := p.here()
	if !p.wsConsumeWs2("copy", "$", &errIncomplete) {
		return nil, nil
	}
	p.Enter("copy")
	defer p.Leave("copy")

	p.scopes.open(CopyScope)
	defer p.scopes.close()

	expr := Copy{
		Position: pos,
	}
	for {
		v, err := p.bindingVar(false)
		if err != nil {
			return nil, err
		}
		v.Type = typeRef(nodeType(ItemNode, ExactlyOne))
		if err := p.wsCheck(":="); err != nil {
			return nil, err
		}
		in, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		p.scopes.declare(v)
		expr.Bindings = append(expr.Bindings, Binding{
			Var: v,
			In:  in,
		})
		if !p.wsConsume(",") {
			break
		}
	}
	if !p.wsConsumeWs("modify") {
		return nil, p.error(errExpected, "modify", p.found())
	}
	modify, err := p.isolated(func() (Expr, error) {
		return p.required(p.single())
	})
	if err != nil {
		return nil, err
	}
	expr.Modify = modify
	if !p.wsConsumeWs("return") {
		return nil, p.error(errExpected, "return", p.found())
	}
	if expr.Return, err = p.required(p.single()); err != nil {
		return nil, err
	}
	return &expr, nil
}
