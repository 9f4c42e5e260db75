package xquery

import (
	"slices"
)

// Inspect traverses the tree rooted at e in depth first order. The
// children of a node are not visited when fn returns false.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range children(e) {
		Inspect(c, fn)
	}
}

func children(e Expr) []Expr {
	var list []Expr
	add := func(es ...Expr) {
		for _, e := range es {
			if e != nil {
				list = append(list, e)
			}
		}
	}
	switch x := e.(type) {
	case *Sequence:
		add(x.Items...)
	case *Path:
		add(x.Root)
		add(x.Steps...)
	case *Step:
		add(x.Preds...)
	case *Filter:
		add(x.Expr)
		add(x.Preds...)
	case *DynamicCall:
		add(x.Func)
		add(x.Args...)
	case *Lookup:
		add(x.Expr, x.Key)
	case *SimpleMap:
		add(x.Exprs...)
	case *Or:
		add(x.Exprs...)
	case *And:
		add(x.Exprs...)
	case *Comparison:
		add(x.Left, x.Right)
	case *Arithmetic:
		add(x.Exprs...)
	case *Concat:
		add(x.Exprs...)
	case *Range:
		add(x.From, x.To)
	case *Otherwise:
		add(x.Exprs...)
	case *Union:
		add(x.Exprs...)
	case *Intersect:
		add(x.Exprs...)
	case *Except:
		add(x.Exprs...)
	case *InstanceOf:
		add(x.Expr)
	case *Treat:
		add(x.Expr)
	case *Promote:
		add(x.Expr)
	case *Castable:
		add(x.Expr)
	case *Cast:
		add(x.Expr)
	case *Arrow:
		add(x.Input, x.Func)
		add(x.Args...)
	case *TransformWith:
		add(x.Expr, x.Modify)
	case *Unary:
		add(x.Expr)
	case *Extension:
		add(x.Expr)
	case *If:
		add(x.Test, x.Then, x.Else)
	case *Switch:
		add(x.Operand)
		for _, c := range x.Cases {
			add(c.Values...)
			add(c.Return)
		}
		add(x.Default)
	case *Typeswitch:
		add(x.Operand)
		for _, c := range x.Cases {
			add(c.Return)
		}
		add(x.Default.Return)
	case *Quantified:
		for _, b := range x.Bindings {
			add(b.In)
		}
		add(x.Satisfies)
	case *Try:
		add(x.Body)
		for _, c := range x.Catches {
			add(c.Body)
		}
	case *FunctionCall:
		add(x.Args...)
	case *InlineFunction:
		add(x.Body)
	case *MapConstructor:
		for _, e := range x.Entries {
			add(e.Key, e.Value)
		}
	case *ArrayConstructor:
		add(x.Members...)
	case *StringConstructor:
		add(x.Parts...)
	case *Ordered:
		add(x.Expr)
	case *ElementConstructor:
		add(x.NameExpr)
		for _, a := range x.Attrs {
			add(a)
		}
		add(x.Content...)
	case *AttributeConstructor:
		add(x.NameExpr)
		add(x.Value...)
	case *DocumentConstructor:
		add(x.Expr)
	case *TextConstructor:
		add(x.Expr)
	case *CommentConstructor:
		add(x.Expr)
	case *PIConstructor:
		add(x.TargetExpr, x.Content)
	case *NamespaceConstructor:
		add(x.PrefixExpr, x.URI)
	case *FLWOR:
		for _, c := range x.Clauses {
			add(clauseExprs(c)...)
		}
		add(x.Return)
	case *FTContains:
		add(x.Expr, x.Select)
	case *FTWords:
		add(x.Value)
		if x.Occurs != nil {
			add(x.Occurs.From, x.Occurs.To)
		}
	case *FTOr:
		add(x.Exprs...)
	case *FTAnd:
		add(x.Exprs...)
	case *FTMildNot:
		add(x.Expr, x.Not)
	case *FTNot:
		add(x.Expr)
	case *FTOptions:
		add(x.Expr)
	case *FTWeight:
		add(x.Expr, x.Weight)
	case *FTOrder:
		add(x.Expr)
	case *FTWindow:
		add(x.Expr, x.Size)
	case *FTDistance:
		add(x.Expr, x.Range.From, x.Range.To)
	case *FTContent:
		add(x.Expr)
	case *FTScope:
		add(x.Expr)
	case *FTExtension:
		add(x.Expr)
	case *Insert:
		add(x.Source, x.Target)
	case *Delete:
		add(x.Target)
	case *Rename:
		add(x.Target, x.Name)
	case *Replace:
		add(x.Target, x.With)
	case *Copy:
		for _, b := range x.Bindings {
			add(b.In)
		}
		add(x.Modify, x.Return)
	case *UpdatingCall:
		add(x.Func)
		add(x.Args...)
	}
	return list
}

func clauseExprs(c Clause) []Expr {
	var list []Expr
	switch c := c.(type) {
	case *ForClause:
		list = append(list, c.In)
	case *LetClause:
		list = append(list, c.Expr)
	case *WindowClause:
		list = append(list, c.In, c.Start.When)
		if c.End != nil {
			list = append(list, c.End.When)
		}
	case *WhereClause:
		list = append(list, c.Expr)
	case *GroupClause:
		for _, s := range c.Specs {
			list = append(list, s.Expr)
		}
	case *OrderClause:
		for _, k := range c.Keys {
			list = append(list, k.Expr)
		}
	}
	return list
}

// isVacuous reports whether e can be used in place of an updating
// expression: the empty sequence or a call to fn:error.
func isVacuous(e Expr) bool {
	switch x := e.(type) {
	case nil:
		return true
	case *Sequence:
		return len(x.Items) == 0
	case *FunctionCall:
		return x.Name.URI == FnURI && x.Name.Local == "error"
	default:
		return false
	}
}

// updateChecker verifies that updating and non-updating expressions are
// not mixed.
type updateChecker struct {
	funcs map[string]*FuncDecl
}

func (c updateChecker) isUpdating(e Expr) bool {
	switch x := e.(type) {
	case *Insert, *Delete, *Rename, *Replace:
		return true
	case *UpdatingCall:
		return x.Updating
	case *FunctionCall:
		f, ok := c.funcs[funcKey(x.Name, len(x.Args))]
		return ok && f.Updating()
	case *If:
		return c.isUpdating(x.Then) || c.isUpdating(x.Else)
	case *Switch:
		return slices.ContainsFunc(c.switchBranches(x), c.isUpdating)
	case *Typeswitch:
		return slices.ContainsFunc(c.typeswitchBranches(x), c.isUpdating)
	case *Try:
		return slices.ContainsFunc(c.tryBranches(x), c.isUpdating)
	case *Sequence:
		return slices.ContainsFunc(x.Items, c.isUpdating)
	case *FLWOR:
		return c.isUpdating(x.Return)
	case *Extension:
		return c.isUpdating(x.Expr)
	case *Ordered:
		return c.isUpdating(x.Expr)
	default:
		return false
	}
}

func (c updateChecker) switchBranches(x *Switch) []Expr {
	var list []Expr
	for _, sc := range x.Cases {
		list = append(list, sc.Return)
	}
	return append(list, x.Default)
}

func (c updateChecker) typeswitchBranches(x *Typeswitch) []Expr {
	var list []Expr
	for _, tc := range x.Cases {
		list = append(list, tc.Return)
	}
	return append(list, x.Default.Return)
}

func (c updateChecker) tryBranches(x *Try) []Expr {
	list := []Expr{x.Body}
	for _, cc := range x.Catches {
		list = append(list, cc.Body)
	}
	return list
}

// branches checks that the branches of a conditional expression are
// either all updating or all simple. Vacuous branches agree with both.
func (c updateChecker) branches(pos Position, list []Expr) error {
	var upd, simple bool
	for _, b := range list {
		if err := c.check(b); err != nil {
			return err
		}
		switch {
		case isVacuous(b):
		case c.isUpdating(b):
			upd = true
		default:
			simple = true
		}
	}
	if upd && simple {
		return errUpdatingMix.create(pos)
	}
	return nil
}

// simple checks that e is not updating.
func (c updateChecker) simple(e Expr) error {
	if e == nil {
		return nil
	}
	if c.isUpdating(e) {
		return errUpdatingMix.create(e.Pos())
	}
	return c.check(e)
}

func (c updateChecker) check(e Expr) error {
	switch x := e.(type) {
	case nil:
		return nil
	case *If:
		if err := c.simple(x.Test); err != nil {
			return err
		}
		return c.branches(x.Position, []Expr{x.Then, x.Else})
	case *Switch:
		if err := c.simple(x.Operand); err != nil {
			return err
		}
		for _, sc := range x.Cases {
			for _, v := range sc.Values {
				if err := c.simple(v); err != nil {
					return err
				}
			}
		}
		return c.branches(x.Position, c.switchBranches(x))
	case *Typeswitch:
		if err := c.simple(x.Operand); err != nil {
			return err
		}
		return c.branches(x.Position, c.typeswitchBranches(x))
	case *Try:
		return c.branches(x.Position, c.tryBranches(x))
	case *Sequence:
		return c.branches(x.Position, x.Items)
	case *FLWOR:
		for _, cl := range x.Clauses {
			for _, e := range clauseExprs(cl) {
				if err := c.simple(e); err != nil {
					return err
				}
			}
		}
		return c.check(x.Return)
	case *Extension:
		return c.check(x.Expr)
	case *Ordered:
		return c.check(x.Expr)
	case *Copy:
		for _, b := range x.Bindings {
			if err := c.simple(b.In); err != nil {
				return err
			}
		}
		if err := c.check(x.Modify); err != nil {
			return err
		}
		return c.simple(x.Return)
	case *TransformWith:
		if err := c.simple(x.Expr); err != nil {
			return err
		}
		return c.check(x.Modify)
	case *InlineFunction:
		if !hasAnnotation(x.Annotations, AnnURI, "updating") {
			return c.simple(x.Body)
		}
		return c.check(x.Body)
	default:
		for _, sub := range children(e) {
			if err := c.simple(sub); err != nil {
				return err
			}
		}
		return nil
	}
}

// checkUpdates verifies the updating expressions of the declarations and
// of the query body. The module becomes updating when its body is.
func (p *Parser) checkUpdates(funcs []*FuncDecl, vars []*VarDecl, body Expr) error {
	c := updateChecker{
		funcs: p.functions,
	}
	if body != nil && c.isUpdating(body) {
		p.updating = true
	}
	if p.mixUpdates {
		return nil
	}
	for _, v := range vars {
		if err := c.simple(v.Expr); err != nil {
			return p.located(err)
		}
	}
	for _, f := range funcs {
		if f.Body == nil {
			continue
		}
		var err error
		if f.Updating() {
			err = c.check(f.Body)
		} else {
			err = c.simple(f.Body)
		}
		if err != nil {
			return p.located(err)
		}
	}
	if err := c.check(body); err != nil {
		return p.located(err)
	}
	return nil
}
