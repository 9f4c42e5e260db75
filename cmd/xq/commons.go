package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/midbel/xq/xquery"
)

var (
	codeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	snippetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// ParserOptions are the flags shared by the commands reading modules.
type ParserOptions struct {
	Config     string
	BaseURI    string
	Trace      bool
	MaxDepth   int
	MixUpdates bool
}

func (p *ParserOptions) attach(set *flag.FlagSet) {
	set.StringVar(&p.Config, "config", "", "read parser settings from the given yaml file")
	set.StringVar(&p.BaseURI, "base-uri", "", "static base uri of the modules")
	set.BoolVar(&p.Trace, "trace", false, "trace the grammar rules on stderr")
	set.IntVar(&p.MaxDepth, "max-depth", 0, "maximum nesting of expressions")
	set.BoolVar(&p.MixUpdates, "mix-updates", false, "allow updating and non-updating expressions to be mixed")
}

func (p *ParserOptions) options() ([]xquery.ParserOption, error) {
	var options []xquery.ParserOption
	if p.Config != "" {
		cfg, err := xquery.LoadConfig(p.Config)
		if err != nil {
			return nil, err
		}
		options = append(options, xquery.WithConfig(cfg))
	}
	if p.BaseURI != "" {
		options = append(options, xquery.WithBaseURI(p.BaseURI))
	}
	if p.Trace {
		options = append(options, xquery.WithTracer(xquery.TraceStderr()))
	}
	if p.MaxDepth > 0 {
		options = append(options, xquery.WithMaxDepth(p.MaxDepth))
	}
	if p.MixUpdates {
		options = append(options, xquery.WithMixUpdates(true))
	}
	return options, nil
}

// parseFile parses the module stored in file. The source is returned with
// the error to render diagnostics.
func parseFile(file string, options []xquery.ParserOption) (xquery.Module, string, error) {
	buf, err := readSource(file)
	if err != nil {
		return nil, "", err
	}
	options = append([]xquery.ParserOption{xquery.WithFile(file)}, options...)
	mod, err := xquery.Parse(buf, options...)
	return mod, buf, err
}

func readSource(file string) (string, error) {
	var (
		buf []byte
		err error
	)
	if file == "" || file == "-" {
		buf, err = io.ReadAll(os.Stdin)
	} else {
		buf, err = os.ReadFile(file)
	}
	return string(buf), err
}

// printError writes err to w followed by the line of source where it
// occurred.
func printError(w io.Writer, err error, source string) {
	var qe xquery.QueryError
	if !errors.As(err, &qe) {
		lipgloss.Fprintln(w, err)
		return
	}
	var str strings.Builder
	str.WriteString(codeStyle.Render("[" + qe.Code + "]"))
	str.WriteString(" ")
	if qe.File != "" {
		str.WriteString(fileStyle.Render(fmt.Sprintf("%s:%d:%d", qe.File, qe.Line, qe.Column)))
	} else {
		str.WriteString(fileStyle.Render(fmt.Sprintf("%d:%d", qe.Line, qe.Column)))
	}
	str.WriteString(": ")
	str.WriteString(qe.Message)
	lipgloss.Fprintln(w, str.String())
	if snip := xquery.Snippet(err, source); snip != "" {
		lipgloss.Fprintln(w, snippetStyle.Render(snip))
	}
}

func moduleName(mod xquery.Module) string {
	switch m := mod.(type) {
	case *xquery.LibraryModule:
		return fmt.Sprintf("library module %s = %q", m.Prefix, m.URI)
	case *xquery.MainModule:
		return "main module"
	default:
		return "module"
	}
}
