package xquery

import (
	"io"
	"strconv"
	"strings"
)

// Debug returns the shape of the tree rooted at expr as an s-expression.
func Debug(expr Expr) string {
	var str strings.Builder
	debugExpr(&str, expr)
	return str.String()
}

func debugNode(w io.Writer, name string, fns ...func()) {
	io.WriteString(w, name)
	io.WriteString(w, "(")
	for i, fn := range fns {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		fn()
	}
	io.WriteString(w, ")")
}

func debugList(w io.Writer, name string, list []Expr) {
	fns := make([]func(), 0, len(list))
	for _, e := range list {
		fns = append(fns, debugFunc(w, e))
	}
	debugNode(w, name, fns...)
}

func debugFunc(w io.Writer, e Expr) func() {
	return func() {
		debugExpr(w, e)
	}
}

func debugText(w io.Writer, str string) func() {
	return func() {
		io.WriteString(w, str)
	}
}

func debugVar(w io.Writer, v *Var) func() {
	return func() {
		if v == nil {
			io.WriteString(w, "$?")
			return
		}
		io.WriteString(w, v.String())
	}
}

func debugExpr(w io.Writer, expr Expr) {
	switch v := expr.(type) {
	case nil:
		io.WriteString(w, "nil")
	case *Literal:
		if v.Kind == StringLiteral {
			io.WriteString(w, strconv.Quote(v.Value))
		} else {
			io.WriteString(w, v.Value)
		}
	case *RangeError:
		debugNode(w, "range-error", debugText(w, v.Literal), debugText(w, v.Code))
	case *Sequence:
		debugList(w, "seq", v.Items)
	case *VarRef:
		debugNode(w, "var", debugText(w, "$"+v.Name.String()))
	case *ContextItem:
		io.WriteString(w, "context")
	case *Root:
		io.WriteString(w, "root")
	case *Path:
		var fns []func()
		if v.Root != nil {
			fns = append(fns, debugFunc(w, v.Root))
		}
		for _, s := range v.Steps {
			fns = append(fns, debugFunc(w, s))
		}
		debugNode(w, "path", fns...)
	case *Step:
		fns := []func(){debugText(w, string(v.Axis))}
		if v.Name != nil {
			fns = append(fns, func() {
				debugNode(w, "name", debugText(w, v.Name.String()))
			})
		}
		if v.Kind != nil {
			fns = append(fns, func() {
				debugNode(w, "kind", debugText(w, v.Kind.String()))
			})
		}
		if len(v.Preds) > 0 {
			fns = append(fns, func() {
				debugList(w, "pred", v.Preds)
			})
		}
		debugNode(w, "step", fns...)
	case *Filter:
		debugNode(w, "filter", debugFunc(w, v.Expr), func() {
			debugList(w, "pred", v.Preds)
		})
	case *DynamicCall:
		debugNode(w, "dyncall", debugFunc(w, v.Func), func() {
			debugList(w, "args", v.Args)
		})
	case *Placeholder:
		io.WriteString(w, "?")
	case *Lookup:
		var fns []func()
		if v.Expr != nil {
			fns = append(fns, debugFunc(w, v.Expr))
		}
		if v.Wildcard {
			fns = append(fns, debugText(w, "*"))
		} else {
			fns = append(fns, debugFunc(w, v.Key))
		}
		debugNode(w, "lookup", fns...)
	case *SimpleMap:
		debugList(w, "simple-map", v.Exprs)
	case *Or:
		debugList(w, "or", v.Exprs)
	case *And:
		debugList(w, "and", v.Exprs)
	case *Comparison:
		debugNode(w, "cmp", debugText(w, v.Op), debugFunc(w, v.Left), debugFunc(w, v.Right))
	case *Arithmetic:
		fns := []func(){debugFunc(w, v.Exprs[0])}
		for i, op := range v.Ops {
			fns = append(fns, debugText(w, op), debugFunc(w, v.Exprs[i+1]))
		}
		debugNode(w, "arith", fns...)
	case *Concat:
		debugList(w, "concat", v.Exprs)
	case *Range:
		debugNode(w, "range", debugFunc(w, v.From), debugFunc(w, v.To))
	case *Otherwise:
		debugList(w, "otherwise", v.Exprs)
	case *Union:
		debugList(w, "union", v.Exprs)
	case *Intersect:
		debugList(w, "intersect", v.Exprs)
	case *Except:
		debugList(w, "except", v.Exprs)
	case *InstanceOf:
		debugNode(w, "instance-of", debugFunc(w, v.Expr), debugText(w, v.Of.String()))
	case *Treat:
		debugNode(w, "treat", debugFunc(w, v.Expr), debugText(w, v.As.String()))
	case *Promote:
		debugNode(w, "promote", debugFunc(w, v.Expr), debugText(w, v.To.String()))
	case *Castable:
		debugNode(w, "castable", debugFunc(w, v.Expr), debugText(w, v.As.String()))
	case *Cast:
		debugNode(w, "cast", debugFunc(w, v.Expr), debugText(w, v.As.String()))
	case *Arrow:
		name := "arrow"
		if v.Thin {
			name = "thin-arrow"
		}
		fns := []func(){debugFunc(w, v.Input)}
		if v.Func != nil {
			fns = append(fns, debugFunc(w, v.Func))
		} else {
			fns = append(fns, debugText(w, v.Name.String()))
		}
		fns = append(fns, func() {
			debugList(w, "args", v.Args)
		})
		debugNode(w, name, fns...)
	case *TransformWith:
		debugNode(w, "transform", debugFunc(w, v.Expr), debugFunc(w, v.Modify))
	case *Unary:
		name := "pos"
		if v.Negate {
			name = "neg"
		}
		debugNode(w, name, debugFunc(w, v.Expr))
	case *Extension:
		var fns []func()
		for _, p := range v.Pragmas {
			fns = append(fns, debugPragma(w, p))
		}
		fns = append(fns, debugFunc(w, v.Expr))
		debugNode(w, "extension", fns...)
	case *If:
		fns := []func(){debugFunc(w, v.Test), debugFunc(w, v.Then)}
		if v.Else != nil {
			fns = append(fns, debugFunc(w, v.Else))
		}
		debugNode(w, "if", fns...)
	case *Switch:
		fns := []func(){debugFunc(w, v.Operand)}
		for _, c := range v.Cases {
			fns = append(fns, func() {
				debugNode(w, "case", func() {
					debugList(w, "values", c.Values)
				}, debugFunc(w, c.Return))
			})
		}
		fns = append(fns, func() {
			debugNode(w, "default", debugFunc(w, v.Default))
		})
		debugNode(w, "switch", fns...)
	case *Typeswitch:
		fns := []func(){debugFunc(w, v.Operand)}
		for _, c := range v.Cases {
			fns = append(fns, debugTypeCase(w, "case", c))
		}
		fns = append(fns, debugTypeCase(w, "default", v.Default))
		debugNode(w, "typeswitch", fns...)
	case *Quantified:
		name := "some"
		if v.Every {
			name = "every"
		}
		var fns []func()
		for _, b := range v.Bindings {
			fns = append(fns, debugBinding(w, "bind", b))
		}
		fns = append(fns, func() {
			debugNode(w, "satisfies", debugFunc(w, v.Satisfies))
		})
		debugNode(w, name, fns...)
	case *Try:
		fns := []func(){debugFunc(w, v.Body)}
		for _, c := range v.Catches {
			var tests []string
			for _, t := range c.Tests {
				tests = append(tests, t.String())
			}
			fns = append(fns, func() {
				debugNode(w, "catch", debugText(w, strings.Join(tests, " | ")), debugFunc(w, c.Body))
			})
		}
		debugNode(w, "try", fns...)
	case *FunctionCall:
		fns := []func(){debugText(w, v.Name.String())}
		for _, a := range v.Args {
			fns = append(fns, debugFunc(w, a))
		}
		debugNode(w, "call", fns...)
	case *NamedFunctionRef:
		debugNode(w, "ref", debugText(w, v.Name.String()+"#"+strconv.Itoa(v.Arity)))
	case *InlineFunction:
		var params []string
		for _, p := range v.Params {
			params = append(params, p.String())
		}
		debugNode(w, "function", func() {
			debugNode(w, "params", debugText(w, strings.Join(params, ", ")))
		}, debugFunc(w, v.Body))
	case *MapConstructor:
		var fns []func()
		for _, e := range v.Entries {
			fns = append(fns, func() {
				debugNode(w, "entry", debugFunc(w, e.Key), debugFunc(w, e.Value))
			})
		}
		debugNode(w, "map", fns...)
	case *ArrayConstructor:
		name := "array"
		if !v.Square {
			name = "curly-array"
		}
		debugList(w, name, v.Members)
	case *StringConstructor:
		debugList(w, "string", v.Parts)
	case *Ordered:
		name := "ordered"
		if !v.Ordered {
			name = "unordered"
		}
		debugNode(w, name, debugFunc(w, v.Expr))
	case *ElementConstructor:
		fns := []func(){debugName(w, v.Name, v.NameExpr)}
		for _, n := range v.Namespaces {
			fns = append(fns, func() {
				debugNode(w, "xmlns", debugText(w, n.Prefix), debugText(w, strconv.Quote(n.URI)))
			})
		}
		for _, a := range v.Attrs {
			fns = append(fns, debugFunc(w, a))
		}
		for _, c := range v.Content {
			fns = append(fns, debugFunc(w, c))
		}
		debugNode(w, "element", fns...)
	case *AttributeConstructor:
		fns := []func(){debugName(w, v.Name, v.NameExpr)}
		for _, c := range v.Value {
			fns = append(fns, debugFunc(w, c))
		}
		debugNode(w, "attribute", fns...)
	case *DocumentConstructor:
		debugNode(w, "document", debugFunc(w, v.Expr))
	case *TextConstructor:
		debugNode(w, "text", debugFunc(w, v.Expr))
	case *CommentConstructor:
		debugNode(w, "comment", debugFunc(w, v.Expr))
	case *PIConstructor:
		target := debugText(w, v.Target)
		if v.TargetExpr != nil {
			target = debugFunc(w, v.TargetExpr)
		}
		fns := []func(){target}
		if v.Content != nil {
			fns = append(fns, debugFunc(w, v.Content))
		}
		debugNode(w, "pi", fns...)
	case *NamespaceConstructor:
		prefix := debugText(w, v.Prefix)
		if v.PrefixExpr != nil {
			prefix = debugFunc(w, v.PrefixExpr)
		}
		debugNode(w, "namespace", prefix, debugFunc(w, v.URI))
	case *FLWOR:
		var fns []func()
		for _, c := range v.Clauses {
			fns = append(fns, debugClause(w, c))
		}
		fns = append(fns, func() {
			debugNode(w, "return", debugFunc(w, v.Return))
		})
		debugNode(w, "flwor", fns...)
	case *FTContains:
		debugNode(w, "contains", debugFunc(w, v.Expr), debugFunc(w, v.Select))
	case *FTWords:
		fns := []func(){debugFunc(w, v.Value), debugText(w, v.Mode.String())}
		if v.Occurs != nil {
			fns = append(fns, debugRange(w, "occurs", *v.Occurs))
		}
		debugNode(w, "words", fns...)
	case *FTOr:
		debugList(w, "ftor", v.Exprs)
	case *FTAnd:
		debugList(w, "ftand", v.Exprs)
	case *FTMildNot:
		debugNode(w, "not-in", debugFunc(w, v.Expr), debugFunc(w, v.Not))
	case *FTNot:
		debugNode(w, "ftnot", debugFunc(w, v.Expr))
	case *FTOptions:
		debugNode(w, "using", debugFunc(w, v.Expr), debugText(w, strings.TrimSpace(formatFTOptions(v.Options))))
	case *FTWeight:
		debugNode(w, "weight", debugFunc(w, v.Expr), debugFunc(w, v.Weight))
	case *FTOrder:
		debugNode(w, "ft-ordered", debugFunc(w, v.Expr))
	case *FTWindow:
		debugNode(w, "window", debugFunc(w, v.Expr), debugFunc(w, v.Size), debugText(w, string(v.Unit)))
	case *FTDistance:
		debugNode(w, "distance", debugFunc(w, v.Expr), debugRange(w, "range", v.Range), debugText(w, string(v.Unit)))
	case *FTContent:
		debugNode(w, "content", debugFunc(w, v.Expr), debugText(w, v.Content))
	case *FTScope:
		name := "different"
		if v.Same {
			name = "same"
		}
		debugNode(w, name, debugFunc(w, v.Expr), debugText(w, string(v.Unit)))
	case *FTExtension:
		debugNode(w, "ft-extension", debugPragma(w, v.Pragma), debugFunc(w, v.Expr))
	case *Insert:
		debugNode(w, "insert", debugFunc(w, v.Source), debugText(w, v.Mode.String()), debugFunc(w, v.Target))
	case *Delete:
		debugNode(w, "delete", debugFunc(w, v.Target))
	case *Rename:
		debugNode(w, "rename", debugFunc(w, v.Target), debugFunc(w, v.Name))
	case *Replace:
		name := "replace"
		if v.Value {
			name = "replace-value"
		}
		debugNode(w, name, debugFunc(w, v.Target), debugFunc(w, v.With))
	case *Copy:
		var fns []func()
		for _, b := range v.Bindings {
			fns = append(fns, debugBinding(w, "bind", b))
		}
		fns = append(fns, func() {
			debugNode(w, "modify", debugFunc(w, v.Modify))
		}, func() {
			debugNode(w, "return", debugFunc(w, v.Return))
		})
		debugNode(w, "copy", fns...)
	case *UpdatingCall:
		var fns []func()
		if v.Updating {
			fns = append(fns, debugText(w, "updating"))
		}
		if v.NonDeterministic {
			fns = append(fns, debugText(w, "non-deterministic"))
		}
		fns = append(fns, debugFunc(w, v.Func), func() {
			debugList(w, "args", v.Args)
		})
		debugNode(w, "invoke", fns...)
	default:
		io.WriteString(w, "unknown")
	}
}

func debugName(w io.Writer, name QName, expr Expr) func() {
	if expr != nil {
		return debugFunc(w, expr)
	}
	return debugText(w, name.String())
}

func debugPragma(w io.Writer, p Pragma) func() {
	return func() {
		debugNode(w, "pragma", debugText(w, p.Name.String()), debugText(w, strconv.Quote(p.Content)))
	}
}

func debugBinding(w io.Writer, name string, b Binding) func() {
	return func() {
		debugNode(w, name, debugVar(w, b.Var), debugFunc(w, b.In))
	}
}

func debugTypeCase(w io.Writer, name string, c TypeCase) func() {
	return func() {
		var fns []func()
		if c.Var != nil {
			fns = append(fns, debugVar(w, c.Var))
		}
		if len(c.Types) > 0 {
			var types []string
			for _, t := range c.Types {
				types = append(types, t.String())
			}
			fns = append(fns, debugText(w, strings.Join(types, " | ")))
		}
		fns = append(fns, debugFunc(w, c.Return))
		debugNode(w, name, fns...)
	}
}

func debugRange(w io.Writer, name string, rg FTRange) func() {
	return func() {
		debugNode(w, name, debugFunc(w, rg.From), debugFunc(w, rg.To))
	}
}

func debugWindowCond(w io.Writer, name string, c *WindowCond) func() {
	return func() {
		var fns []func()
		for _, v := range c.vars() {
			fns = append(fns, debugVar(w, v))
		}
		fns = append(fns, debugFunc(w, c.When))
		debugNode(w, name, fns...)
	}
}

func debugClause(w io.Writer, c Clause) func() {
	return func() {
		switch c := c.(type) {
		case *ForClause:
			fns := []func(){debugVar(w, c.Var)}
			if c.AllowEmpty {
				fns = append(fns, debugText(w, "allowing-empty"))
			}
			if c.At != nil {
				fns = append(fns, func() {
					debugNode(w, "at", debugVar(w, c.At))
				})
			}
			if c.Score != nil {
				fns = append(fns, func() {
					debugNode(w, "score", debugVar(w, c.Score))
				})
			}
			fns = append(fns, debugFunc(w, c.In))
			debugNode(w, "for", fns...)
		case *LetClause:
			name := "let"
			if c.Score {
				name = "let-score"
			}
			debugNode(w, name, debugVar(w, c.Var), debugFunc(w, c.Expr))
		case *WindowClause:
			name := "tumbling"
			if c.Sliding {
				name = "sliding"
			}
			fns := []func(){debugVar(w, c.Var), debugFunc(w, c.In), debugWindowCond(w, "start", &c.Start)}
			if c.End != nil {
				end := "end"
				if c.Only {
					end = "only-end"
				}
				fns = append(fns, debugWindowCond(w, end, c.End))
			}
			debugNode(w, name, fns...)
		case *WhereClause:
			debugNode(w, "where", debugFunc(w, c.Expr))
		case *GroupClause:
			var fns []func()
			for _, s := range c.Specs {
				fns = append(fns, func() {
					parts := []func(){debugVar(w, s.Var)}
					if s.Expr != nil {
						parts = append(parts, debugFunc(w, s.Expr))
					}
					if s.Collation != "" {
						parts = append(parts, debugText(w, strconv.Quote(s.Collation)))
					}
					debugNode(w, "spec", parts...)
				})
			}
			debugNode(w, "group", fns...)
		case *OrderClause:
			name := "order"
			if c.Stable {
				name = "stable-order"
			}
			var fns []func()
			for _, k := range c.Keys {
				fns = append(fns, func() {
					dir, empty := "asc", "empty-greatest"
					if k.Descending {
						dir = "desc"
					}
					if k.EmptyLeast {
						empty = "empty-least"
					}
					parts := []func(){debugFunc(w, k.Expr), debugText(w, dir), debugText(w, empty)}
					if k.Collation != "" {
						parts = append(parts, debugText(w, strconv.Quote(k.Collation)))
					}
					debugNode(w, "key", parts...)
				})
			}
			debugNode(w, name, fns...)
		case *CountClause:
			debugNode(w, "count", debugVar(w, c.Var))
		default:
			io.WriteString(w, "unknown")
		}
	}
}
