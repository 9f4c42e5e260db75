package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/midbel/cli"
	"github.com/midbel/xq/xquery"
)

var debugCmd = cli.Command{
	Name:    "debug",
	Summary: "print the expression tree of modules",
	Handler: &DebugCmd{},
}

type DebugCmd struct {
	Indent bool
	ParserOptions
}

func (d DebugCmd) Run(args []string) error {
	set := flag.NewFlagSet("debug", flag.ContinueOnError)
	set.BoolVar(&d.Indent, "indent", false, "print one node per line")
	d.attach(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	options, err := d.options()
	if err != nil {
		return err
	}
	mod, src, err := parseFile(set.Arg(0), options)
	if err != nil {
		printError(os.Stderr, err, src)
		return errFail
	}
	tree := debugModule(mod)
	if d.Indent {
		tree = indentTree(tree)
	}
	fmt.Fprintln(os.Stdout, tree)
	return nil
}

func debugModule(mod xquery.Module) string {
	var (
		str    strings.Builder
		prolog = mod.Info()
	)
	for _, v := range prolog.Variables {
		str.WriteString("variable(")
		str.WriteString(v.Var.String())
		if v.Expr != nil {
			str.WriteString(", ")
			str.WriteString(xquery.Debug(v.Expr))
		}
		str.WriteString(")\n")
	}
	for _, f := range prolog.Functions {
		fmt.Fprintf(&str, "function(%s#%d", f.Name, f.Arity())
		if f.Body != nil {
			str.WriteString(", ")
			str.WriteString(xquery.Debug(f.Body))
		}
		str.WriteString(")\n")
	}
	if m, ok := mod.(*xquery.MainModule); ok {
		str.WriteString(xquery.Debug(m.Body))
	}
	return strings.TrimSpace(str.String())
}

// indentTree breaks the output of xquery.Debug so that every argument of
// a node is written on its own line.
func indentTree(tree string) string {
	var (
		str    strings.Builder
		level  int
		quoted bool
		input  = []rune(tree)
	)
	newline := func() {
		str.WriteString("\n")
		str.WriteString(strings.Repeat("  ", level))
	}
	for i := 0; i < len(input); i++ {
		r := input[i]
		if quoted {
			str.WriteRune(r)
			if r == '\\' && i+1 < len(input) {
				i++
				str.WriteRune(input[i])
			} else if r == '"' {
				quoted = false
			}
			continue
		}
		switch r {
		case '"':
			quoted = true
			str.WriteRune(r)
		case '(':
			if i+1 < len(input) && input[i+1] == ')' {
				str.WriteString("()")
				i++
				continue
			}
			level++
			str.WriteRune(r)
			newline()
		case ')':
			level--
			newline()
			str.WriteRune(r)
		case ',':
			str.WriteRune(r)
			newline()
			if i+1 < len(input) && input[i+1] == ' ' {
				i++
			}
		case '\n':
			level = 0
			str.WriteRune(r)
		default:
			str.WriteRune(r)
		}
	}
	return str.String()
}
