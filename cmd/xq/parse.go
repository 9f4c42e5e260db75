package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/midbel/cli"
	"github.com/midbel/xq/xquery"
)

var parseCmd = cli.Command{
	Name:    "parse",
	Summary: "parse modules and print a summary of their prolog",
	Handler: &ParseCmd{},
}

type ParseCmd struct {
	Quiet bool
	ParserOptions
}

const parseInfo = "%s: %s parsed in %s"

func (p ParseCmd) Run(args []string) error {
	set := flag.NewFlagSet("parse", flag.ContinueOnError)
	set.BoolVar(&p.Quiet, "quiet", false, "only report errors")
	p.attach(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	options, err := p.options()
	if err != nil {
		return err
	}
	files := set.Args()
	if len(files) == 0 {
		files = append(files, "-")
	}
	var failed bool
	for _, file := range files {
		now := time.Now()
		mod, src, err := parseFile(file, options)
		if err != nil {
			printError(os.Stderr, err, src)
			failed = true
			continue
		}
		if p.Quiet {
			continue
		}
		fmt.Fprintf(os.Stdout, parseInfo, file, moduleName(mod), time.Since(now))
		fmt.Fprintln(os.Stdout)
		printProlog(mod.Info())
	}
	if failed {
		return errFail
	}
	return nil
}

func printProlog(prolog *xquery.Prolog) {
	if prolog.Doc != "" {
		fmt.Fprintf(os.Stdout, "- doc: %s", prolog.Doc)
		fmt.Fprintln(os.Stdout)
	}
	for _, i := range prolog.Imports {
		fmt.Fprintf(os.Stdout, "- import %s = %q %v", i.Prefix, i.URI, i.Paths)
		fmt.Fprintln(os.Stdout)
	}
	for _, v := range prolog.Variables {
		fmt.Fprintf(os.Stdout, "- variable %s", v.Var)
		if v.External {
			fmt.Fprint(os.Stdout, " (external)")
		}
		fmt.Fprintln(os.Stdout)
	}
	for _, f := range prolog.Functions {
		fmt.Fprintf(os.Stdout, "- function %s#%d", f.Name, f.Arity())
		if f.Updating() {
			fmt.Fprint(os.Stdout, " (updating)")
		}
		fmt.Fprintln(os.Stdout)
	}
	if prolog.Updating {
		fmt.Fprintln(os.Stdout, "- updating")
	}
}
