package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/midbel/cli"
	"github.com/midbel/xq/xquery"
)

var formatCmd = cli.Command{
	Name:    "format",
	Alias:   []string{"fmt"},
	Summary: "print modules in canonical form",
	Handler: &FormatCmd{},
}

type FormatCmd struct {
	OutFile string
	Write   bool
	ParserOptions
}

func (f *FormatCmd) Run(args []string) error {
	set := flag.NewFlagSet("format", flag.ContinueOnError)
	set.StringVar(&f.OutFile, "f", "", "specify the path to the file where the module will be written")
	set.BoolVar(&f.Write, "w", false, "write the result to the source file")
	f.attach(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	options, err := f.options()
	if err != nil {
		return err
	}
	file := set.Arg(0)
	mod, src, err := parseFile(file, options)
	if err != nil {
		printError(os.Stderr, err, src)
		return errFail
	}
	out := f.OutFile
	if f.Write && file != "" && file != "-" {
		out = file
	}
	return writeModule(mod, out)
}

func writeModule(mod xquery.Module, file string) error {
	var w io.Writer = os.Stdout
	if file != "" {
		f, err := os.Create(file)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err := fmt.Fprintln(w, xquery.FormatModule(mod))
	return err
}
