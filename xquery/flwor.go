package xquery

import (
	"slices"
)

// Clause is one of the clauses of a FLWOR expression.
type Clause interface {
	Pos() Position
	// Vars returns the variables bound by the clause.
	Vars() []*Var
}

type ForClause struct {
	Var        *Var
	At         *Var
	Score      *Var
	AllowEmpty bool
	In         Expr
	Position
}

func (c ForClause) Vars() []*Var {
	return compactVars(c.Var, c.At, c.Score)
}

type LetClause struct {
	Var   *Var
	Score bool
	Expr  Expr
	Position
}

func (c LetClause) Vars() []*Var {
	return compactVars(c.Var)
}

type WindowCond struct {
	Current  *Var
	At       *Var
	Previous *Var
	Next     *Var
	When     Expr
}

func (c WindowCond) vars() []*Var {
	return compactVars(c.Current, c.At, c.Previous, c.Next)
}

// WindowClause is a tumbling or sliding window. End is nil when the end
// condition is omitted.
type WindowClause struct {
	Sliding bool
	Var     *Var
	In      Expr
	Start   WindowCond
	Only    bool
	End     *WindowCond
	Position
}

func (c WindowClause) Vars() []*Var {
	list := c.Start.vars()
	if c.End != nil {
		list = append(list, c.End.vars()...)
	}
	return append(list, c.Var)
}

type WhereClause struct {
	Expr Expr
	Position
}

func (_ WhereClause) Vars() []*Var {
	return nil
}

type GroupSpec struct {
	Var       *Var
	Expr      Expr
	Collation string
}

// Rebinding maps a variable in scope before a group by clause to the
// variable holding its values for one group.
type Rebinding struct {
	From *Var
	To   *Var
}

type GroupClause struct {
	Specs   []GroupSpec
	Rebound []Rebinding
	Position
}

func (c GroupClause) Vars() []*Var {
	var list []*Var
	for _, s := range c.Specs {
		list = append(list, s.Var)
	}
	for _, r := range c.Rebound {
		list = append(list, r.To)
	}
	return list
}

type OrderKey struct {
	Expr       Expr
	Descending bool
	EmptyLeast bool
	Collation  string
}

type OrderClause struct {
	Stable bool
	Keys   []OrderKey
	Position
}

func (_ OrderClause) Vars() []*Var {
	return nil
}

type CountClause struct {
	Var *Var
	Position
}

func (c CountClause) Vars() []*Var {
	return compactVars(c.Var)
}

type FLWOR struct {
	Clauses []Clause
	Return  Expr
	Position
}

func (_ FLWOR) Type() SeqType {
	return AnyItems
}

func compactVars(vs ...*Var) []*Var {
	return slices.DeleteFunc(vs, func(v *Var) bool {
		return v == nil
	})
}

// flworVars tracks the variables bound by the clauses of one FLWOR
// expression in the order of their binding.
type flworVars struct {
	list []*Var
}

func (f *flworVars) bind(vs ...*Var) {
	for _, v := range vs {
		f.list = slices.DeleteFunc(f.list, func(x *Var) bool {
			return x.Name.Equal(v.Name)
		})
		f.list = append(f.list, v)
	}
}

func (f *flworVars) lookup(name QName) (*Var, bool) {
	ix := slices.IndexFunc(f.list, func(v *Var) bool {
		return v.Name.Equal(name)
	})
	if ix < 0 {
		return nil, false
	}
	return f.list[ix], true
}

func (p *Parser) flwor() (Expr, error) {
	p.skipWs()
	pos := p.here()
	if !p.startsClause() {
		return nil, nil
	}
	p.Enter("flwor")
	defer p.Leave("flwor")

	p.scopes.open(FlworScope)
	defer p.scopes.close()

	var (
		expr = FLWOR{
			Position: pos,
		}
		bound flworVars
	)
	for {
		size := len(expr.Clauses)
		for p.startsClause() {
			clauses, err := p.initialClause()
			if err != nil {
				return nil, err
			}
			for _, c := range clauses {
				bound.bind(c.Vars()...)
			}
			expr.Clauses = append(expr.Clauses, clauses...)
		}
		if c, err := p.whereClause(); err != nil {
			return nil, err
		} else if c != nil {
			expr.Clauses = append(expr.Clauses, c)
		}
		if c, err := p.groupClause(&bound); err != nil {
			return nil, err
		} else if c != nil {
			expr.Clauses = append(expr.Clauses, c)
		}
		if c, err := p.orderClause(); err != nil {
			return nil, err
		} else if c != nil {
			expr.Clauses = append(expr.Clauses, c)
		}
		if c, err := p.countClause(); err != nil {
			return nil, err
		} else if c != nil {
			bound.bind(c.Var)
			expr.Clauses = append(expr.Clauses, c)
		}
		if size == len(expr.Clauses) {
			break
		}
	}
	if !p.wsConsumeWs("return") {
		return nil, p.alterError(errFlworReturn)
	}
	ret, err := p.required(p.single())
	if err != nil {
		return nil, err
	}
	expr.Return = ret
	return &expr, nil
}

// startsClause reports whether a for, let or window clause starts at the
// cursor. The cursor does not move.
func (p *Parser) startsClause() bool {
	pos := p.mark()
	defer p.reset(pos)
	switch {
	case p.wsConsumeWs2("for", "$", &errFlworClause):
	case p.wsConsumeWs2("for", "sliding", &errFlworClause):
	case p.wsConsumeWs2("for", "tumbling", &errFlworClause):
	case p.wsConsumeWs2("let", "$", &errFlworClause):
	case p.wsConsumeWs2("let", "score", &errFlworClause):
	default:
		return false
	}
	return true
}

func (p *Parser) initialClause() ([]Clause, error) {
	p.skipWs()
	pos := p.here()
	switch {
	case p.wsConsumeWs("let"):
		return p.letClause(pos)
	case p.wsConsumeWs("for"):
		p.skipWs()
		if p.is('$') {
			return p.forClause(pos)
		}
		sliding := p.wsConsumeWs("sliding")
		if !sliding && !p.wsConsumeWs("tumbling") {
			return nil, p.error(errFlworClause)
		}
		if err := p.wsCheck("window"); err != nil {
			return nil, err
		}
		c, err := p.windowClause(sliding, pos)
		if err != nil {
			return nil, err
		}
		return []Clause{c}, nil
	default:
		return nil, p.error(errFlworClause)
	}
}

// bindingVar parses "$name" optionally followed by a type declaration.
func (p *Parser) bindingVar(typed bool) (*Var, error) {
	if err := p.wsCheck("$"); err != nil {
		return nil, err
	}
	pos := p.here()
	name, err := p.varName()
	if err != nil {
		return nil, err
	}
	var typ *SeqType
	if typed {
		if typ, err = p.optAsType(); err != nil {
			return nil, err
		}
	}
	return p.scopes.create(name, typ, pos), nil
}

func (p *Parser) forClause(pos Position) ([]Clause, error) {
	var list []Clause
	for {
		p.skipWs()
		cpos := p.here()
		v, err := p.bindingVar(true)
		if err != nil {
			return nil, err
		}
		clause := ForClause{
			Var:      v,
			Position: cpos,
		}
		if len(list) == 0 {
			clause.Position = pos
		}
		if p.wsConsumeWs("allowing") {
			if err := p.wsCheck("empty"); err != nil {
				return nil, err
			}
			clause.AllowEmpty = true
		}
		if p.wsConsumeWs("at") {
			if clause.At, err = p.bindingVar(false); err != nil {
				return nil, err
			}
			clause.At.Type = typeRef(IntegerType)
		}
		if p.wsConsumeWs("score") {
			if clause.Score, err = p.bindingVar(false); err != nil {
				return nil, err
			}
			clause.Score.Type = typeRef(DoubleType)
		}
		if err := p.checkDistinctVars(clause.Vars()); err != nil {
			return nil, err
		}
		if !p.wsConsumeWs("in") {
			return nil, p.error(errExpected, "in", p.found())
		}
		if clause.In, err = p.required(p.single()); err != nil {
			return nil, err
		}
		for _, v := range clause.Vars() {
			p.scopes.declare(v)
		}
		list = append(list, &clause)
		if !p.wsConsume(",") {
			break
		}
	}
	return list, nil
}

func (p *Parser) letClause(pos Position) ([]Clause, error) {
	var list []Clause
	for {
		p.skipWs()
		cpos := p.here()
		if len(list) == 0 {
			cpos = pos
		}
		score := p.wsConsumeWs("score")
		v, err := p.bindingVar(!score)
		if err != nil {
			return nil, err
		}
		if score {
			v.Type = typeRef(DoubleType)
		}
		if err := p.wsCheck(":="); err != nil {
			return nil, err
		}
		e, err := p.required(p.single())
		if err != nil {
			return nil, err
		}
		p.scopes.declare(v)
		clause := LetClause{
			Var:      v,
			Score:    score,
			Expr:     e,
			Position: cpos,
		}
		list = append(list, &clause)
		if !p.wsConsume(",") {
			break
		}
	}
	return list, nil
}

func (p *Parser) windowClause(sliding bool, pos Position) (Clause, error) {
	v, err := p.bindingVar(true)
	if err != nil {
		return nil, err
	}
	if !p.wsConsumeWs("in") {
		return nil, p.error(errExpected, "in", p.found())
	}
	clause := WindowClause{
		Sliding:  sliding,
		Var:      v,
		Position: pos,
	}
	if clause.In, err = p.required(p.single()); err != nil {
		return nil, err
	}
	if !p.wsConsumeWs("start") {
		return nil, p.error(errExpected, "start", p.found())
	}
	if clause.Start, err = p.windowCond(); err != nil {
		return nil, err
	}
	clause.Only = p.wsConsumeWs("only")
	if clause.Only || sliding {
		if !p.wsConsumeWs("end") {
			return nil, p.error(errWindowEnd)
		}
	}
	if clause.Only || sliding || p.wsConsumeWs("end") {
		end, err := p.windowCond()
		if err != nil {
			return nil, err
		}
		clause.End = &end
	}
	if err := p.checkDistinctVars(clause.Vars()); err != nil {
		return nil, err
	}
	p.scopes.declare(v)
	return &clause, nil
}

func (p *Parser) windowCond() (WindowCond, error) {
	var (
		cond WindowCond
		err  error
	)
	p.skipWs()
	if p.is('$') {
		if cond.Current, err = p.bindingVar(false); err != nil {
			return cond, err
		}
	}
	if p.wsConsumeWs("at") {
		if cond.At, err = p.bindingVar(false); err != nil {
			return cond, err
		}
		cond.At.Type = typeRef(IntegerType)
	}
	if p.wsConsumeWs("previous") {
		if cond.Previous, err = p.bindingVar(false); err != nil {
			return cond, err
		}
	}
	if p.wsConsumeWs("next") {
		if cond.Next, err = p.bindingVar(false); err != nil {
			return cond, err
		}
	}
	if !p.wsConsumeWs("when") {
		return cond, p.error(errExpected, "when", p.found())
	}
	if err := p.checkDistinctVars(cond.vars()); err != nil {
		return cond, err
	}
	for _, v := range cond.vars() {
		p.scopes.declare(v)
	}
	cond.When, err = p.required(p.single())
	return cond, err
}

func (p *Parser) checkDistinctVars(vs []*Var) error {
	for i, v := range vs {
		for _, x := range vs[:i] {
			if x.Name.Equal(v.Name) {
				return p.errorAt(errDuplFlworVar, v.Position, v.Name)
			}
		}
	}
	return nil
}

func (p *Parser) whereClause() (Clause, error) {
	p.skipWs()
	pos := p.here()
	if !p.wsConsumeWs("where") {
		return nil, nil
	}
	e, err := p.single()
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, p.error(errNoWhere)
	}
	clause := WhereClause{
		Expr:     e,
		Position: pos,
	}
	return &clause, nil
}

func (p *Parser) groupClause(bound *flworVars) (Clause, error) {
	p.skipWs()
	pos := p.here()
	if !p.wsConsumeWs2("group", "by", &errIncomplete) {
		return nil, nil
	}
	p.wsConsumeWs("by")
	clause := GroupClause{
		Position: pos,
	}
	for {
		spec, err := p.groupSpec(bound, clause.Specs)
		if err != nil {
			return nil, err
		}
		clause.Specs = append(clause.Specs, spec)
		if !p.wsConsume(",") {
			break
		}
	}
	for _, s := range clause.Specs {
		p.scopes.declare(s.Var)
		bound.bind(s.Var)
	}
	for _, v := range slices.Clone(bound.list) {
		grouping := slices.ContainsFunc(clause.Specs, func(s GroupSpec) bool {
			return s.Var == v
		})
		if grouping {
			continue
		}
		nv := p.scopes.create(v.Name, nil, v.Position)
		p.scopes.declare(nv)
		bound.bind(nv)
		clause.Rebound = append(clause.Rebound, Rebinding{
			From: v,
			To:   nv,
		})
	}
	return &clause, nil
}

// groupSpec parses one grouping variable. Without an assignment, the
// variable must be bound by a preceding clause of the same FLWOR or by a
// previous grouping specification.
func (p *Parser) groupSpec(bound *flworVars, prev []GroupSpec) (GroupSpec, error) {
	var spec GroupSpec
	v, err := p.bindingVar(true)
	if err != nil {
		return spec, err
	}
	spec.Var = v
	if v.Type != nil || p.wsConsume(":=") {
		if v.Type != nil {
			if err := p.wsCheck(":="); err != nil {
				return spec, err
			}
		}
		if spec.Expr, err = p.required(p.single()); err != nil {
			return spec, err
		}
	} else {
		ix := slices.IndexFunc(prev, func(s GroupSpec) bool {
			return s.Var.Name.Equal(v.Name)
		})
		var ref VarRef
		if ix >= 0 {
			ref.Var = prev[ix].Var
		} else if x, ok := bound.lookup(v.Name); ok {
			ref.Var = x
		} else {
			return spec, p.errorAt(errGroupVar, v.Position, v.Name)
		}
		ref.Name = v.Name
		ref.Position = v.Position
		spec.Expr = &ref
	}
	if spec.Collation, err = p.collationClause(); err != nil {
		return spec, err
	}
	return spec, nil
}

// collationClause parses an optional "collation uri" suffix and returns
// the resolved collation.
func (p *Parser) collationClause() (string, error) {
	if !p.wsConsumeWs("collation") {
		return "", nil
	}
	p.skipWs()
	pos := p.here()
	uri, err := p.uriLiteral()
	if err != nil {
		return "", err
	}
	coll, ok := p.collations.Resolve(uri)
	if !ok {
		return "", p.errorAt(errUnknownColl, pos, uri)
	}
	return coll, nil
}

func (p *Parser) orderClause() (Clause, error) {
	p.skipWs()
	pos := p.here()
	stable := p.wsConsumeWs2("stable", "order", &errIncomplete)
	if !stable && !p.wsConsumeWs2("order", "by", &errIncomplete) {
		return nil, nil
	}
	p.wsConsumeWs("order")
	if !p.wsConsumeWs("by") {
		return nil, p.error(errExpected, "by", p.found())
	}
	clause := OrderClause{
		Stable:   stable,
		Position: pos,
	}
	for {
		key, err := p.orderSpec()
		if err != nil {
			return nil, err
		}
		clause.Keys = append(clause.Keys, key)
		if !p.wsConsume(",") {
			break
		}
	}
	return &clause, nil
}

func (p *Parser) orderSpec() (OrderKey, error) {
	key := OrderKey{
		EmptyLeast: !p.static.EmptyGreatest,
	}
	e, err := p.required(p.single())
	if err != nil {
		return key, err
	}
	key.Expr = e
	if !p.wsConsumeWs("ascending") {
		key.Descending = p.wsConsumeWs("descending")
	}
	if p.wsConsumeWs("empty") {
		switch {
		case p.wsConsumeWs("greatest"):
			key.EmptyLeast = false
		case p.wsConsumeWs("least"):
			key.EmptyLeast = true
		default:
			return key, p.error(errExpected, "greatest or least", p.found())
		}
	}
	key.Collation, err = p.collationClause()
	return key, err
}

func (p *Parser) countClause() (*CountClause, error) {
	p.skipWs()
	pos := p.here()
	if !p.wsConsumeWs2("count", "$", &errIncomplete) {
		return nil, nil
	}
	v, err := p.bindingVar(false)
	if err != nil {
		return nil, err
	}
	v.Type = typeRef(IntegerType)
	p.scopes.declare(v)
	clause := CountClause{
		Var:      v,
		Position: pos,
	}
	return &clause, nil
}
