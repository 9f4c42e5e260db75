package xquery

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Format returns the canonical text of expr. Operands that are not
// primary expressions are parenthesized: parsing the result gives back
// the same tree.
func Format(expr Expr) string {
	var f formatter
	f.expr(expr)
	return f.String()
}

// FormatModule returns the canonical text of a module: its prolog
// declarations followed by its body.
func FormatModule(mod Module) string {
	var (
		f    formatter
		info = mod.Info()
	)
	if lib, ok := mod.(*LibraryModule); ok {
		fmt.Fprintf(&f, "module namespace %s = %s;\n", lib.Prefix, quoteString(lib.URI))
	}
	prefixes := make([]string, 0, len(info.Namespaces))
	for p := range info.Namespaces {
		prefixes = append(prefixes, p)
	}
	slices.Sort(prefixes)
	for _, p := range prefixes {
		fmt.Fprintf(&f, "declare namespace %s = %s;\n", p, quoteString(info.Namespaces[p]))
	}
	for _, i := range info.Imports {
		f.WriteString("import module ")
		if i.Prefix != "" {
			fmt.Fprintf(&f, "namespace %s = ", i.Prefix)
		}
		f.WriteString(quoteString(i.URI))
		for j, loc := range i.Locations {
			if j == 0 {
				f.WriteString(" at ")
			} else {
				f.WriteString(", ")
			}
			f.WriteString(quoteString(loc))
		}
		f.WriteString(";\n")
	}
	for _, v := range info.Variables {
		f.WriteString("declare ")
		formatAnnotations(&f.Builder, v.Annotations)
		f.WriteString("variable ")
		f.WriteString(v.Var.String())
		f.varType(v.Var.Type)
		switch {
		case v.External && v.Expr != nil:
			f.WriteString(" external := ")
			f.expr(v.Expr)
		case v.External:
			f.WriteString(" external")
		default:
			f.WriteString(" := ")
			f.expr(v.Expr)
		}
		f.WriteString(";\n")
	}
	for _, fn := range info.Functions {
		f.WriteString("declare ")
		formatAnnotations(&f.Builder, fn.Annotations)
		f.WriteString("function ")
		f.WriteString(funcName(fn.Name))
		f.params(fn.Params)
		if fn.Return != nil {
			f.WriteString(" as ")
			f.WriteString(fn.Return.String())
		}
		if fn.External() {
			f.WriteString(" external;\n")
			continue
		}
		f.WriteString(" ")
		f.block(fn.Body)
		f.WriteString(";\n")
	}
	if main, ok := mod.(*MainModule); ok && main.Body != nil {
		f.expr(main.Body)
		f.WriteString("\n")
	}
	return f.String()
}

func formatLiteral(lit *Literal) string {
	if lit.Kind == StringLiteral {
		return quoteString(lit.Value)
	}
	return lit.Value
}

func quoteString(str string) string {
	str = strings.ReplaceAll(str, "&", "&amp;")
	str = strings.ReplaceAll(str, `"`, `""`)
	return `"` + str + `"`
}

// funcName writes the name of a function. Unprefixed names outside the
// default function namespace use the braced URI form.
func funcName(name QName) string {
	return qualifiedName(name, FnURI)
}

func qualifiedName(name QName, def string) string {
	if name.Prefix != "" || name.URI == "" || name.URI == def || name.URI == Unresolved {
		return name.String()
	}
	return "Q{" + name.URI + "}" + name.Local
}

type formatter struct {
	strings.Builder
}

func (f *formatter) list(list []Expr, sep string) {
	for i, e := range list {
		if i > 0 {
			f.WriteString(sep)
		}
		f.expr(e)
	}
}

func (f *formatter) operands(list []Expr, sep string) {
	for i, e := range list {
		if i > 0 {
			f.WriteString(sep)
		}
		f.operand(e)
	}
}

// operand writes e as the operand of an operator.
func (f *formatter) operand(e Expr) {
	if isPathExpr(e) {
		f.expr(e)
		return
	}
	f.paren(e)
}

// postfix writes e as the base of a filter, a lookup or a dynamic call.
func (f *formatter) postfix(e Expr) {
	if isPrimaryExpr(e) {
		f.expr(e)
		return
	}
	f.paren(e)
}

func (f *formatter) paren(e Expr) {
	f.WriteString("(")
	f.expr(e)
	f.WriteString(")")
}

func (f *formatter) block(e Expr) {
	f.WriteString("{ ")
	if e != nil {
		f.expr(e)
		f.WriteString(" ")
	}
	f.WriteString("}")
}

func (f *formatter) varType(t *SeqType) {
	if t == nil {
		return
	}
	f.WriteString(" as ")
	f.WriteString(t.String())
}

func (f *formatter) params(params []*Var) {
	f.WriteString("(")
	for i, p := range params {
		if i > 0 {
			f.WriteString(", ")
		}
		f.WriteString(p.String())
		f.varType(p.Type)
	}
	f.WriteString(")")
}

func (f *formatter) pragma(p Pragma) {
	f.WriteString("(# ")
	f.WriteString(qualifiedName(p.Name, XqURI))
	if p.Content == "" {
		f.WriteString(" #)")
		return
	}
	f.WriteString(" " + p.Content + "#)")
}

func isPrimaryExpr(e Expr) bool {
	switch x := e.(type) {
	case *Literal:
		return x.Kind == StringLiteral || !strings.HasPrefix(x.Value, "-")
	case *RangeError, *VarRef, *ContextItem, *FunctionCall, *NamedFunctionRef:
		return true
	case *Sequence, *MapConstructor, *ArrayConstructor, *StringConstructor, *Ordered:
		return true
	case *ElementConstructor, *AttributeConstructor, *DocumentConstructor, *TextConstructor:
		return true
	case *CommentConstructor, *PIConstructor, *NamespaceConstructor, *InlineFunction:
		return true
	case *Filter, *DynamicCall, *Lookup, *Placeholder:
		return true
	default:
		return false
	}
}

func isPathExpr(e Expr) bool {
	switch e.(type) {
	case *Path, *Step:
		return true
	default:
		return isPrimaryExpr(e)
	}
}

func (f *formatter) expr(expr Expr) {
	switch v := expr.(type) {
	case nil:
	case *Literal:
		f.WriteString(formatLiteral(v))
	case *RangeError:
		f.WriteString(v.Literal)
	case *Sequence:
		f.WriteString("(")
		f.list(v.Items, ", ")
		f.WriteString(")")
	case *VarRef:
		f.WriteString("$" + v.Name.String())
	case *ContextItem:
		f.WriteString(".")
	case *Root:
		f.WriteString("(/)")
	case *Path:
		if v.Root != nil {
			f.WriteString("/")
		}
		for i, s := range v.Steps {
			if i > 0 {
				f.WriteString("/")
			}
			if _, ok := s.(*Step); ok {
				f.expr(s)
			} else {
				f.postfix(s)
			}
		}
	case *Step:
		f.WriteString(string(v.Axis))
		f.WriteString("::")
		if v.Kind != nil {
			f.WriteString(v.Kind.String())
		} else if v.Name != nil {
			f.WriteString(v.Name.String())
		}
		f.predicates(v.Preds)
	case *Filter:
		f.postfix(v.Expr)
		f.predicates(v.Preds)
	case *DynamicCall:
		f.postfix(v.Func)
		f.args(v.Args)
	case *Placeholder:
		f.WriteString("?")
	case *Lookup:
		if v.Expr != nil {
			f.postfix(v.Expr)
		}
		f.WriteString("?")
		f.lookupKey(v)
	case *SimpleMap:
		f.operands(v.Exprs, " ! ")
	case *Or:
		f.operands(v.Exprs, " or ")
	case *And:
		f.operands(v.Exprs, " and ")
	case *Comparison:
		f.operand(v.Left)
		f.WriteString(" " + v.Op + " ")
		f.operand(v.Right)
	case *Arithmetic:
		f.operand(v.Exprs[0])
		for i, op := range v.Ops {
			f.WriteString(" " + op + " ")
			f.operand(v.Exprs[i+1])
		}
	case *Concat:
		f.operands(v.Exprs, " || ")
	case *Range:
		f.operand(v.From)
		f.WriteString(" to ")
		f.operand(v.To)
	case *Otherwise:
		f.operands(v.Exprs, " otherwise ")
	case *Union:
		f.operands(v.Exprs, " | ")
	case *Intersect:
		f.operands(v.Exprs, " intersect ")
	case *Except:
		f.operands(v.Exprs, " except ")
	case *InstanceOf:
		f.operand(v.Expr)
		f.WriteString(" instance of " + v.Of.String())
	case *Treat:
		f.operand(v.Expr)
		f.WriteString(" treat as " + v.As.String())
	case *Promote:
		f.operand(v.Expr)
		f.WriteString(" promote to " + v.To.String())
	case *Castable:
		f.operand(v.Expr)
		f.WriteString(" castable as " + v.As.String())
	case *Cast:
		f.operand(v.Expr)
		f.WriteString(" cast as " + v.As.String())
	case *Arrow:
		f.operand(v.Input)
		if v.Thin {
			f.WriteString(" -> ")
		} else {
			f.WriteString(" => ")
		}
		switch fn := v.Func.(type) {
		case nil:
			f.WriteString(funcName(v.Name))
		case *VarRef:
			f.expr(fn)
		default:
			f.paren(fn)
		}
		f.args(v.Args)
	case *TransformWith:
		f.operand(v.Expr)
		f.WriteString(" transform with ")
		f.block(v.Modify)
	case *Unary:
		if v.Negate {
			f.WriteString("-")
		} else {
			f.WriteString("+")
		}
		f.operand(v.Expr)
	case *Extension:
		for _, p := range v.Pragmas {
			f.pragma(p)
			f.WriteString(" ")
		}
		f.block(v.Expr)
	case *If:
		f.WriteString("if (")
		f.expr(v.Test)
		f.WriteString(") ")
		if v.Else == nil {
			f.block(v.Then)
			return
		}
		f.WriteString("then ")
		f.single(v.Then)
		f.WriteString(" else ")
		f.single(v.Else)
	case *Switch:
		f.WriteString("switch (")
		f.expr(v.Operand)
		f.WriteString(")")
		for _, c := range v.Cases {
			for _, x := range c.Values {
				f.WriteString(" case ")
				f.single(x)
			}
			f.WriteString(" return ")
			f.single(c.Return)
		}
		f.WriteString(" default return ")
		f.single(v.Default)
	case *Typeswitch:
		f.WriteString("typeswitch (")
		f.expr(v.Operand)
		f.WriteString(")")
		for _, c := range v.Cases {
			f.WriteString(" case ")
			f.typeCase(c)
		}
		f.WriteString(" default ")
		f.typeCase(v.Default)
	case *Quantified:
		if v.Every {
			f.WriteString("every ")
		} else {
			f.WriteString("some ")
		}
		for i, b := range v.Bindings {
			if i > 0 {
				f.WriteString(", ")
			}
			f.WriteString(b.Var.String())
			f.varType(b.Var.Type)
			f.WriteString(" in ")
			f.single(b.In)
		}
		f.WriteString(" satisfies ")
		f.single(v.Satisfies)
	case *Try:
		f.WriteString("try ")
		f.block(v.Body)
		for _, c := range v.Catches {
			f.WriteString(" catch ")
			for i, t := range c.Tests {
				if i > 0 {
					f.WriteString(" | ")
				}
				f.WriteString(t.String())
			}
			f.WriteString(" ")
			f.block(c.Body)
		}
	case *FunctionCall:
		f.WriteString(funcName(v.Name))
		f.args(v.Args)
	case *NamedFunctionRef:
		f.WriteString(funcName(v.Name))
		f.WriteString("#" + strconv.Itoa(v.Arity))
	case *InlineFunction:
		formatAnnotations(&f.Builder, v.Annotations)
		f.WriteString("function")
		f.params(v.Params)
		if v.Return != nil {
			f.WriteString(" as " + v.Return.String())
		}
		f.WriteString(" ")
		f.block(v.Body)
	case *MapConstructor:
		f.WriteString("map {")
		for i, e := range v.Entries {
			if i > 0 {
				f.WriteString(",")
			}
			f.WriteString(" ")
			f.single(e.Key)
			f.WriteString(" : ")
			f.single(e.Value)
		}
		f.WriteString(" }")
	case *ArrayConstructor:
		if v.Square {
			f.WriteString("[")
			for i, e := range v.Members {
				if i > 0 {
					f.WriteString(", ")
				}
				f.single(e)
			}
			f.WriteString("]")
			return
		}
		f.WriteString("array ")
		if len(v.Members) == 0 {
			f.block(nil)
		} else {
			f.block(v.Members[0])
		}
	case *StringConstructor:
		f.WriteString("``[")
		for _, p := range v.Parts {
			if lit, ok := p.(*Literal); ok && lit.Kind == StringLiteral {
				f.WriteString(lit.Value)
				continue
			}
			f.WriteString("`{")
			f.expr(p)
			f.WriteString("}`")
		}
		f.WriteString("]``")
	case *Ordered:
		if v.Ordered {
			f.WriteString("ordered ")
		} else {
			f.WriteString("unordered ")
		}
		f.block(v.Expr)
	case *ElementConstructor:
		if v.Computed {
			f.WriteString("element ")
			f.computedName(v.Name, v.NameExpr)
			if len(v.Content) == 0 {
				f.block(nil)
			} else {
				f.block(v.Content[0])
			}
			return
		}
		f.directElement(v)
	case *AttributeConstructor:
		f.WriteString("attribute ")
		f.computedName(v.Name, v.NameExpr)
		if len(v.Value) == 0 {
			f.block(nil)
		} else {
			f.block(v.Value[0])
		}
	case *DocumentConstructor:
		f.WriteString("document ")
		f.block(v.Expr)
	case *TextConstructor:
		f.WriteString("text ")
		f.block(v.Expr)
	case *CommentConstructor:
		if lit, ok := v.Expr.(*Literal); ok && !v.Computed {
			f.WriteString("<!--" + lit.Value + "-->")
			return
		}
		f.WriteString("comment ")
		f.block(v.Expr)
	case *PIConstructor:
		if lit, ok := v.Content.(*Literal); ok && !v.Computed {
			f.WriteString("<?" + v.Target)
			if lit.Value != "" {
				f.WriteString(" " + lit.Value)
			}
			f.WriteString("?>")
			return
		}
		f.WriteString("processing-instruction ")
		if v.TargetExpr != nil {
			f.block(v.TargetExpr)
		} else {
			f.WriteString(v.Target)
		}
		f.WriteString(" ")
		f.block(v.Content)
	case *NamespaceConstructor:
		f.WriteString("namespace ")
		if v.PrefixExpr != nil {
			f.block(v.PrefixExpr)
		} else {
			f.WriteString(v.Prefix)
		}
		f.WriteString(" ")
		f.block(v.URI)
	case *FLWOR:
		for _, c := range v.Clauses {
			f.clause(c)
			f.WriteString(" ")
		}
		f.WriteString("return ")
		f.single(v.Return)
	case *FTContains:
		f.operand(v.Expr)
		f.WriteString(" contains text ")
		f.ftSelection(v.Select)
	case *Insert:
		f.WriteString("insert node ")
		f.operand(v.Source)
		f.WriteString(" " + v.Mode.String() + " ")
		f.operand(v.Target)
	case *Delete:
		f.WriteString("delete node ")
		f.operand(v.Target)
	case *Rename:
		f.WriteString("rename node ")
		f.operand(v.Target)
		f.WriteString(" as ")
		f.operand(v.Name)
	case *Replace:
		if v.Value {
			f.WriteString("replace value of node ")
		} else {
			f.WriteString("replace node ")
		}
		f.operand(v.Target)
		f.WriteString(" with ")
		f.operand(v.With)
	case *Copy:
		f.WriteString("copy ")
		for i, b := range v.Bindings {
			if i > 0 {
				f.WriteString(", ")
			}
			f.WriteString(b.Var.String() + " := ")
			f.single(b.In)
		}
		f.WriteString(" modify ")
		f.single(v.Modify)
		f.WriteString(" return ")
		f.single(v.Return)
	case *UpdatingCall:
		f.WriteString("invoke")
		if v.Updating {
			f.WriteString(" updating")
		}
		if v.NonDeterministic {
			f.WriteString(" non-deterministic")
		}
		f.WriteString(" ")
		switch v.Func.(type) {
		case *VarRef, *NamedFunctionRef:
			f.expr(v.Func)
		default:
			f.paren(v.Func)
		}
		f.args(v.Args)
	default:
		f.ftSelection(expr)
	}
}

// single writes an expression used as a branch of a larger expression.
// An if without else would capture a following else.
func (f *formatter) single(e Expr) {
	if x, ok := e.(*If); ok && x.Else == nil {
		f.paren(e)
		return
	}
	f.expr(e)
}

func (f *formatter) args(args []Expr) {
	f.WriteString("(")
	for i, a := range args {
		if i > 0 {
			f.WriteString(", ")
		}
		f.single(a)
	}
	f.WriteString(")")
}

func (f *formatter) predicates(preds []Expr) {
	for _, p := range preds {
		f.WriteString("[")
		f.expr(p)
		f.WriteString("]")
	}
}

func (f *formatter) lookupKey(v *Lookup) {
	if v.Wildcard {
		f.WriteString("*")
		return
	}
	switch k := v.Key.(type) {
	case *Literal:
		if k.Kind == IntegerLiteral && !strings.HasPrefix(k.Value, "-") {
			f.WriteString(k.Value)
			return
		}
		if k.Kind == StringLiteral && isNCName(k.Value) {
			f.WriteString(k.Value)
			return
		}
		f.WriteString(formatLiteral(k))
	case *VarRef:
		f.expr(k)
	default:
		f.paren(k)
	}
}

func (f *formatter) typeCase(c TypeCase) {
	if c.Var != nil {
		f.WriteString(c.Var.String())
		if len(c.Types) > 0 {
			f.WriteString(" as")
		}
		f.WriteString(" ")
	}
	for i, t := range c.Types {
		if i > 0 {
			f.WriteString(" | ")
		}
		f.WriteString(t.String())
	}
	if len(c.Types) > 0 {
		f.WriteString(" ")
	}
	f.WriteString("return ")
	f.single(c.Return)
}

func (f *formatter) computedName(name QName, expr Expr) {
	if expr != nil {
		f.block(expr)
	} else {
		f.WriteString(qualifiedName(name, ""))
	}
	f.WriteString(" ")
}

func (f *formatter) directElement(v *ElementConstructor) {
	f.WriteString("<" + v.Name.String())
	for _, n := range v.Namespaces {
		f.WriteString(" xmlns")
		if n.Prefix != "" {
			f.WriteString(":" + n.Prefix)
		}
		f.WriteString(`="` + escapeAttr(n.URI) + `"`)
	}
	for _, a := range v.Attrs {
		f.WriteString(" " + a.Name.String() + `="`)
		for _, p := range a.Value {
			if lit, ok := p.(*Literal); ok && lit.Kind == StringLiteral {
				f.WriteString(escapeAttr(lit.Value))
				continue
			}
			f.WriteString("{")
			f.expr(p)
			f.WriteString("}")
		}
		f.WriteString(`"`)
	}
	if len(v.Content) == 0 {
		f.WriteString("/>")
		return
	}
	f.WriteString(">")
	for _, c := range v.Content {
		switch x := c.(type) {
		case *Literal:
			if x.Kind == StringLiteral {
				f.WriteString(escapeContent(x.Value))
				continue
			}
		case *ElementConstructor:
			if !x.Computed {
				f.directElement(x)
				continue
			}
		case *CommentConstructor:
			if !x.Computed {
				f.expr(x)
				continue
			}
		case *PIConstructor:
			if !x.Computed {
				f.expr(x)
				continue
			}
		}
		f.WriteString("{")
		f.expr(c)
		f.WriteString("}")
	}
	f.WriteString("</" + v.Name.String() + ">")
}

func escapeAttr(str string) string {
	var out strings.Builder
	for _, r := range str {
		switch r {
		case '"':
			out.WriteString("&quot;")
		case '&':
			out.WriteString("&amp;")
		case '<':
			out.WriteString("&lt;")
		case '{':
			out.WriteString("{{")
		case '}':
			out.WriteString("}}")
		case '\t', '\n', '\r':
			fmt.Fprintf(&out, "&#%d;", r)
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

// escapeContent escapes the text of an element. Text made only of spaces
// is written with character references to not be taken as boundary
// whitespace.
func escapeContent(str string) string {
	var out strings.Builder
	if strings.TrimSpace(str) == "" {
		for _, r := range str {
			fmt.Fprintf(&out, "&#%d;", r)
		}
		return out.String()
	}
	for _, r := range str {
		switch r {
		case '&':
			out.WriteString("&amp;")
		case '<':
			out.WriteString("&lt;")
		case '{':
			out.WriteString("{{")
		case '}':
			out.WriteString("}}")
		case '\r':
			out.WriteString("&#13;")
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

func (f *formatter) clause(c Clause) {
	switch c := c.(type) {
	case *ForClause:
		f.WriteString("for " + c.Var.String())
		f.varType(c.Var.Type)
		if c.AllowEmpty {
			f.WriteString(" allowing empty")
		}
		if c.At != nil {
			f.WriteString(" at " + c.At.String())
		}
		if c.Score != nil {
			f.WriteString(" score " + c.Score.String())
		}
		f.WriteString(" in ")
		f.single(c.In)
	case *LetClause:
		f.WriteString("let ")
		if c.Score {
			f.WriteString("score " + c.Var.String())
		} else {
			f.WriteString(c.Var.String())
			f.varType(c.Var.Type)
		}
		f.WriteString(" := ")
		f.single(c.Expr)
	case *WindowClause:
		if c.Sliding {
			f.WriteString("for sliding window ")
		} else {
			f.WriteString("for tumbling window ")
		}
		f.WriteString(c.Var.String())
		f.varType(c.Var.Type)
		f.WriteString(" in ")
		f.single(c.In)
		f.WriteString(" start")
		f.windowCond(&c.Start)
		if c.End != nil {
			if c.Only {
				f.WriteString(" only")
			}
			f.WriteString(" end")
			f.windowCond(c.End)
		}
	case *WhereClause:
		f.WriteString("where ")
		f.single(c.Expr)
	case *GroupClause:
		f.WriteString("group by ")
		for i, s := range c.Specs {
			if i > 0 {
				f.WriteString(", ")
			}
			f.WriteString(s.Var.String())
			if s.Expr != nil {
				f.varType(s.Var.Type)
				f.WriteString(" := ")
				f.single(s.Expr)
			}
			if s.Collation != "" {
				f.WriteString(" collation " + quoteString(s.Collation))
			}
		}
	case *OrderClause:
		if c.Stable {
			f.WriteString("stable ")
		}
		f.WriteString("order by ")
		for i, k := range c.Keys {
			if i > 0 {
				f.WriteString(", ")
			}
			f.single(k.Expr)
			if k.Descending {
				f.WriteString(" descending")
			} else {
				f.WriteString(" ascending")
			}
			if k.EmptyLeast {
				f.WriteString(" empty least")
			} else {
				f.WriteString(" empty greatest")
			}
			if k.Collation != "" {
				f.WriteString(" collation " + quoteString(k.Collation))
			}
		}
	case *CountClause:
		f.WriteString("count " + c.Var.String())
	}
}

func (f *formatter) windowCond(c *WindowCond) {
	if c.Current != nil {
		f.WriteString(" " + c.Current.String())
	}
	if c.At != nil {
		f.WriteString(" at " + c.At.String())
	}
	if c.Previous != nil {
		f.WriteString(" previous " + c.Previous.String())
	}
	if c.Next != nil {
		f.WriteString(" next " + c.Next.String())
	}
	f.WriteString(" when ")
	f.single(c.When)
}

// ftSelection writes a full-text selection. Everything but words and
// extensions is parenthesized.
func (f *formatter) ftSelection(e Expr) {
	switch e.(type) {
	case *FTWords, *FTExtension:
		f.ftExpr(e)
	default:
		f.WriteString("(")
		f.ftExpr(e)
		f.WriteString(")")
	}
}

func (f *formatter) ftSelections(list []Expr, sep string) {
	for i, e := range list {
		if i > 0 {
			f.WriteString(sep)
		}
		f.ftSelection(e)
	}
}

func (f *formatter) ftExpr(expr Expr) {
	switch v := expr.(type) {
	case *FTWords:
		if lit, ok := v.Value.(*Literal); ok && lit.Kind == StringLiteral {
			f.WriteString(formatLiteral(lit))
		} else {
			f.block(v.Value)
		}
		if v.Mode != FTAny {
			f.WriteString(" " + v.Mode.String())
		}
		if v.Occurs != nil {
			f.WriteString(" occurs ")
			f.ftRange(*v.Occurs)
			f.WriteString(" times")
		}
	case *FTOr:
		f.ftSelections(v.Exprs, " ftor ")
	case *FTAnd:
		f.ftSelections(v.Exprs, " ftand ")
	case *FTMildNot:
		f.ftSelection(v.Expr)
		f.WriteString(" not in ")
		f.ftSelection(v.Not)
	case *FTNot:
		f.WriteString("ftnot ")
		f.ftSelection(v.Expr)
	case *FTOptions:
		f.ftSelection(v.Expr)
		f.WriteString(formatFTOptions(v.Options))
	case *FTWeight:
		f.ftSelection(v.Expr)
		f.WriteString(" weight ")
		f.block(v.Weight)
	case *FTOrder:
		f.ftSelection(v.Expr)
		f.WriteString(" ordered")
	case *FTWindow:
		f.ftSelection(v.Expr)
		f.WriteString(" window ")
		f.operand(v.Size)
		f.WriteString(" " + string(v.Unit))
	case *FTDistance:
		f.ftSelection(v.Expr)
		f.WriteString(" distance ")
		f.ftRange(v.Range)
		f.WriteString(" " + string(v.Unit))
	case *FTContent:
		f.ftSelection(v.Expr)
		if v.Content == "entire" {
			f.WriteString(" entire content")
		} else {
			f.WriteString(" at " + v.Content)
		}
	case *FTScope:
		f.ftSelection(v.Expr)
		if v.Same {
			f.WriteString(" same ")
		} else {
			f.WriteString(" different ")
		}
		if v.Unit == UnitParagraphs {
			f.WriteString("paragraph")
		} else {
			f.WriteString("sentence")
		}
	case *FTExtension:
		f.pragma(v.Pragma)
		f.WriteString(" { ")
		f.ftExpr(v.Expr)
		f.WriteString(" }")
	default:
		f.WriteString("?unknown?")
	}
}

func (f *formatter) ftRange(rg FTRange) {
	f.WriteString("from ")
	f.operand(rg.From)
	f.WriteString(" to ")
	f.operand(rg.To)
}

// formatFTOptions writes match options, each one introduced by the using
// keyword.
func formatFTOptions(opt *FTOpt) string {
	if opt == nil {
		return ""
	}
	var str strings.Builder
	if opt.Case != CaseUnset {
		str.WriteString(" using " + opt.Case.String())
	}
	writeFlag := func(flag FTFlag, on, off string) {
		switch flag {
		case FlagOn:
			str.WriteString(" using " + on)
		case FlagOff:
			str.WriteString(" using " + off)
		}
	}
	writeFlag(opt.Diacritics, "diacritics sensitive", "diacritics insensitive")
	writeFlag(opt.Stemming, "stemming", "no stemming")
	if th := opt.Thesaurus; th != nil {
		switch {
		case !th.Use:
			str.WriteString(" using no thesaurus")
		default:
			var refs []string
			if th.Default {
				refs = append(refs, "default")
			}
			for _, r := range th.Refs {
				refs = append(refs, formatThesaurusRef(r))
			}
			str.WriteString(" using thesaurus (" + strings.Join(refs, ", ") + ")")
		}
	}
	if sw := opt.StopWords; sw != nil {
		switch {
		case !sw.Use:
			str.WriteString(" using no stop words")
		case sw.Default:
			str.WriteString(" using stop words default")
		default:
			words := make([]string, 0, len(sw.Words))
			for _, w := range sw.Words {
				words = append(words, quoteString(w))
			}
			str.WriteString(" using stop words (" + strings.Join(words, ", ") + ")")
		}
	}
	if opt.Language != "" {
		str.WriteString(" using language " + quoteString(opt.Language))
	}
	writeFlag(opt.Wildcards, "wildcards", "no wildcards")
	writeFlag(opt.Fuzzy, "fuzzy", "no fuzzy")
	if opt.Fuzzy == FlagOn && opt.Errors > 0 {
		fmt.Fprintf(&str, " %d errors", opt.Errors)
	}
	return str.String()
}

func formatThesaurusRef(ref ThesaurusRef) string {
	var str strings.Builder
	str.WriteString("at " + quoteString(ref.URI))
	if ref.Relationship != "" {
		str.WriteString(" relationship " + quoteString(ref.Relationship))
	}
	if ref.Min != 0 || ref.Max != math.MaxInt64 {
		fmt.Fprintf(&str, " from %d to %d levels", ref.Min, ref.Max)
	}
	return str.String()
}
